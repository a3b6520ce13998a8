package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a fatal error detected during execution.
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// PC is the index of the failing instruction.
	PC int

	// Cursor is the tape position before the failing instruction.
	Cursor int

	// Delta is the attempted cursor movement (for OUT_OF_BOUNDS).
	Delta int
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeOutOfBounds indicates the cursor would move left of cell 0.
	ErrCodeOutOfBounds RuntimeErrorCode = "OUT_OF_BOUNDS"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (pc=%d, cursor=%d)", e.Code, e.Message, e.PC, e.Cursor)
}

// IsOutOfBounds returns true if the error is an out-of-bounds error.
// Uses errors.As to handle wrapped errors.
func IsOutOfBounds(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeOutOfBounds
	}
	return false
}

// NewOutOfBoundsError creates a RuntimeError for a move past the first cell.
func NewOutOfBoundsError(pc, cursor, delta int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeOutOfBounds,
		Message: fmt.Sprintf("cursor moved left of cell 0 (shift %d from %d)", delta, cursor),
		PC:      pc,
		Cursor:  cursor,
		Delta:   delta,
	}
}
