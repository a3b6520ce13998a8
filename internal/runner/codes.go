package runner

import (
	"context"
	"errors"

	"github.com/roach88/tape/internal/compiler"
	"github.com/roach88/tape/internal/engine"
	"github.com/roach88/tape/internal/ir"
)

// Run error codes (E300-E399). Compile codes live in package compiler.
const (
	ErrCodeGeneric        = "E001"
	ErrCodeOutOfBounds    = "E301"
	ErrCodeQuota          = "E302"
	ErrCodeInputExhausted = "E303"
	ErrCodeCanceled       = "E304"
)

// ErrorCode maps an error from compiling or running a program to its stable
// code. Returns "" for nil.
func ErrorCode(err error) string {
	var ce *compiler.CompileError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return ce.Code
	case engine.IsOutOfBounds(err):
		return ErrCodeOutOfBounds
	case IsQuotaError(err):
		return ErrCodeQuota
	case errors.Is(err, ErrInputExhausted):
		return ErrCodeInputExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	default:
		return ErrCodeGeneric
	}
}

// Record builds the history entry for a finished run. runErr is the error
// Run returned alongside res, if any.
func Record(source string, p *ir.Program, res *Result, runErr error) (ir.RunRecord, error) {
	hash, err := ir.ProgramHash(p)
	if err != nil {
		return ir.RunRecord{}, err
	}
	rec := ir.RunRecord{
		ID:          res.ID,
		Source:      source,
		ProgramHash: hash,
		Status:      res.Status,
		Steps:       res.Steps,
		InputBytes:  res.InputBytes,
		Output:      res.Output,
		IRVersion:   ir.IRVersion,
	}
	if runErr != nil {
		rec.ErrorCode = ErrorCode(runErr)
		rec.ErrorMessage = runErr.Error()
	}
	return rec, nil
}
