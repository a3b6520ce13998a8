package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tape/internal/compiler"
	"github.com/roach88/tape/internal/ir"
	"github.com/roach88/tape/internal/lexer"
	"github.com/roach88/tape/internal/runner"
)

// Error code constants - unified across all CLI commands.
// Compile (E2xx) and run (E3xx) codes come from the compiler and runner.
const (
	ErrCodeGeneric     = runner.ErrCodeGeneric // Generic/unknown error
	ErrCodeNotFound    = "E002"                // Path not found or unreadable
	ErrCodeWriteFailed = "E003"                // File write error
	ErrCodeConfig      = "E004"                // Invalid config or flag value
	ErrCodeStore       = "E005"                // Run history database error
	ErrCodeScenario    = "E006"                // Scenario could not be loaded

	ErrCodeUnmatchedBracket = compiler.ErrCodeUnmatchedBracket

	ErrCodeOutOfBounds    = runner.ErrCodeOutOfBounds
	ErrCodeQuota          = runner.ErrCodeQuota
	ErrCodeInputExhausted = runner.ErrCodeInputExhausted
	ErrCodeCanceled       = runner.ErrCodeCanceled
)

// LoadError represents an error that occurred while loading a program.
type LoadError struct {
	Code    string
	Message string
	File    string
	Loc     lexer.Loc // Source position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Loc.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Loc.Line, e.Loc.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadProgram reads and compiles a source file.
func LoadProgram(path string) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("cannot read program: %v", err),
			File:    path,
			Err:     err,
		}
	}

	p, err := compiler.CompileSource(string(data))
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return nil, &LoadError{
				Code:    ce.Code,
				Message: ce.Message,
				File:    path,
				Loc:     ce.Loc,
				Err:     err,
			}
		}
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), File: path, Err: err}
	}
	return p, nil
}

// loadFailure reports a LoadProgram error and returns exit code 2.
// Compile errors print file:line:col so editors can jump to them.
func loadFailure(f *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), err)
	}

	message := le.Message
	if le.Loc.Line > 0 {
		message = fmt.Sprintf("%s:%d:%d: %s", le.File, le.Loc.Line, le.Loc.Column, le.Message)
	}
	return f.Fail(ExitCommandError, le.Code, message, err)
}
