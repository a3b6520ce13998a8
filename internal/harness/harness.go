package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tape/internal/compiler"
	"github.com/roach88/tape/internal/engine"
	"github.com/roach88/tape/internal/ir"
	"github.com/roach88/tape/internal/runner"
	"github.com/roach88/tape/internal/testutil"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expectation matched.
	Pass bool `json:"pass"`

	// Status is halted, blocked or error.
	Status string `json:"status"`

	Output string `json:"output"`

	// ErrorCode is set for errors and for runs that blocked on input.
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	// Position is the unmatched bracket's token index for compile errors.
	Position *int `json:"position,omitempty"`

	Steps int64 `json:"steps"`

	// Disassembly is empty when the program failed to compile.
	Disassembly string `json:"disassembly,omitempty"`

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run compiles and executes a scenario, then checks its expectations.
//
// The program runs with the scenario's literal input and no live source, so
// a program that reads past its input stops with status blocked. Runs use a
// fixed id and a silent logger so results are reproducible.
//
// The returned error is reserved for harness failures; program failures are
// reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	result, err := execute(ctx, scenario)
	if err != nil {
		return nil, err
	}
	for _, mismatch := range Check(scenario.Expect, result) {
		result.AddError(mismatch.Error())
	}
	return result, nil
}

func execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := &Result{Pass: true}

	p, err := compiler.CompileSource(scenario.Source)
	if err != nil {
		var ce *compiler.CompileError
		if !errors.As(err, &ce) {
			return nil, fmt.Errorf("compile: %w", err)
		}
		position := ce.Position
		result.Status = StatusError
		result.ErrorCode = ce.Code
		result.ErrorMessage = ce.Error()
		result.Position = &position
		return result, nil
	}
	result.Disassembly = p.String()

	input, err := runner.EncodeInput(scenario.Input, scenario.InputEncoding)
	if err != nil {
		return nil, err
	}

	e := engine.New(p, engine.WithTapeSize(scenario.TapeSize))
	e.PushInputBytes(input)

	maxSteps := scenario.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	rn := runner.New(e,
		runner.WithMaxSteps(maxSteps),
		runner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		runner.WithIDGenerator(testutil.NewFixedIDGenerator("scenario-"+scenario.Name)),
	)

	res, runErr := rn.Run(ctx)
	result.Output = string(res.Output)
	result.Steps = res.Steps

	switch res.Status {
	case ir.RunHalted:
		result.Status = StatusHalted
	case ir.RunBlocked:
		result.Status = StatusBlocked
	default:
		result.Status = StatusError
	}
	if runErr != nil {
		result.ErrorCode = runner.ErrorCode(runErr)
		result.ErrorMessage = runErr.Error()
	}

	return result, nil
}
