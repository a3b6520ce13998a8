// Package runner drives an engine to completion.
//
// The engine itself never blocks and never starts goroutines. The runner is
// the loop around it: it feeds the input queue from a literal and/or a live
// reader, drains the output queue to a writer, enforces a step quota and
// stops on context cancellation.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tape/internal/engine"
	"github.com/roach88/tape/internal/ir"
)

// checkInterval is how many steps run between context checks, live input
// polls and output flushes.
const checkInterval = 4096

// maxCapture bounds how much output a Result keeps.
const maxCapture = 1 << 20

// Result describes a finished run. It is returned alongside any error.
type Result struct {
	ID         string
	Status     ir.RunStatus
	Steps      int64
	InputBytes int64
	// Output holds what was written, up to maxCapture bytes.
	Output    []byte
	Truncated bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithInput attaches a live input source. Bytes are pushed to the engine as
// they arrive; the run only gives up on input once r reaches EOF.
func WithInput(r io.Reader) Option {
	return func(rn *Runner) { rn.live = r }
}

// WithOutput sets where program output is written. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(rn *Runner) { rn.out = w }
}

// WithMaxSteps limits how many instructions may execute. 0 means unlimited.
func WithMaxSteps(n int64) Option {
	return func(rn *Runner) { rn.maxSteps = n }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) { rn.logger = l }
}

// WithIDGenerator sets the run id source. Defaults to UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(rn *Runner) { rn.ids = g }
}

// Runner executes one engine. Create a new Runner per run.
type Runner struct {
	engine   *engine.Engine
	live     io.Reader
	out      io.Writer
	maxSteps int64
	logger   *slog.Logger
	ids      IDGenerator

	// literal counts bytes already queued on the engine before Run.
	literal int64
}

// New creates a runner for e. Any bytes already pushed onto e's input queue
// are consumed before the live source.
func New(e *engine.Engine, opts ...Option) *Runner {
	rn := &Runner{
		engine:  e,
		out:     io.Discard,
		logger:  slog.Default(),
		ids:     UUIDv7Generator{},
		literal: int64(e.InputLen()),
	}
	for _, opt := range opts {
		opt(rn)
	}
	return rn
}

// Run steps the engine until it halts, fails, exhausts its input, exceeds
// the quota or ctx is canceled.
func (rn *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{ID: rn.ids.Generate(), InputBytes: rn.literal}
	w := bufio.NewWriter(rn.out)
	e := rn.engine

	var live *liveInput
	if rn.live != nil {
		liveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		live = startLiveInput(liveCtx, rn.live)
	}

	logger := rn.logger.With("run_id", res.ID)
	logger.Info("run starting",
		"instructions", e.Program().Len(),
		"max_steps", rn.maxSteps,
		"live_input", live != nil,
	)

	finish := func(status ir.RunStatus, err error) (*Result, error) {
		if werr := rn.drain(w, res); werr != nil && err == nil {
			status, err = ir.RunFailed, werr
		}
		if ferr := w.Flush(); ferr != nil && err == nil {
			status, err = ir.RunFailed, fmt.Errorf("write output: %w", ferr)
		}
		res.Status = status
		res.Steps = e.Steps()
		attrs := []any{"status", status, "steps", res.Steps, "tape_len", e.TapeLen()}
		if err != nil {
			logger.Info("run stopped", append(attrs, "error", err)...)
		} else {
			logger.Info("run finished", attrs...)
		}
		return res, err
	}

	for tick := 0; ; tick++ {
		if tick%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return finish(ir.RunCanceled, err)
			}
			live = rn.poll(live, res)
			if err := w.Flush(); err != nil {
				return finish(ir.RunFailed, fmt.Errorf("write output: %w", err))
			}
		}

		st, err := e.Step()
		if derr := rn.drain(w, res); derr != nil {
			return finish(ir.RunFailed, derr)
		}
		if err != nil {
			return finish(ir.RunFailed, err)
		}

		switch st {
		case engine.Halted:
			return finish(ir.RunHalted, nil)

		case engine.Blocked:
			if err := w.Flush(); err != nil {
				return finish(ir.RunFailed, fmt.Errorf("write output: %w", err))
			}
			if live == nil {
				return finish(ir.RunBlocked, ErrInputExhausted)
			}
			logger.Debug("blocked on input", "pc", e.PC())
			select {
			case <-ctx.Done():
				return finish(ir.RunCanceled, ctx.Err())
			case chunk, ok := <-live.ch:
				if !ok {
					if live.err != nil {
						logger.Warn("live input failed", "error", live.err)
					}
					live = nil
					continue
				}
				e.PushInputBytes(chunk)
				res.InputBytes += int64(len(chunk))
			}

		case engine.Continue:
			if rn.maxSteps > 0 && e.Steps() >= rn.maxSteps {
				return finish(ir.RunFailed, &StepsExceededError{
					RunID: res.ID,
					Steps: e.Steps(),
					Limit: rn.maxSteps,
				})
			}
		}
	}
}

// poll moves any chunks already waiting on the live channel into the engine
// without blocking. Returns nil once the source is closed.
func (rn *Runner) poll(live *liveInput, res *Result) *liveInput {
	if live == nil {
		return nil
	}
	for {
		select {
		case chunk, ok := <-live.ch:
			if !ok {
				if live.err != nil {
					rn.logger.Warn("live input failed", "error", live.err)
				}
				return nil
			}
			rn.engine.PushInputBytes(chunk)
			res.InputBytes += int64(len(chunk))
		default:
			return live
		}
	}
}

// drain moves pending engine output to w and the result capture.
func (rn *Runner) drain(w *bufio.Writer, res *Result) error {
	if rn.engine.OutputLen() == 0 {
		return nil
	}
	out := rn.engine.DrainOutput()
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if room := maxCapture - len(res.Output); room > 0 {
		if len(out) > room {
			out = out[:room]
			res.Truncated = true
		}
		res.Output = append(res.Output, out...)
	} else {
		res.Truncated = true
	}
	return nil
}
