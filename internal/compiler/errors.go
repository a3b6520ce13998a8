package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/tape/internal/lexer"
)

// Compile error codes (E200-E299)
const (
	ErrCodeUnmatchedBracket = "E201" // [ without ] or ] without [
)

// ErrUnmatchedBracket is matched by errors.Is for every unmatched bracket
// CompileError.
var ErrUnmatchedBracket = errors.New("unmatched bracket")

// CompileError represents a fatal compile error.
type CompileError struct {
	Code string
	// Position is the offending bracket's index in the token stream.
	Position int
	// Token is the offending bracket.
	Token lexer.Token
	// Loc is the source location. Zero when compiling a bare token stream.
	Loc     lexer.Loc
	Message string
}

func (e *CompileError) Error() string {
	if e.Loc.Line > 0 {
		return fmt.Sprintf("%d:%d: [%s] %s", e.Loc.Line, e.Loc.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CompileError) Unwrap() error {
	if e.Code == ErrCodeUnmatchedBracket {
		return ErrUnmatchedBracket
	}
	return nil
}

func unmatchedClose(position int, loc lexer.Loc) *CompileError {
	return &CompileError{
		Code:     ErrCodeUnmatchedBracket,
		Position: position,
		Token:    lexer.Close,
		Loc:      loc,
		Message:  fmt.Sprintf("unmatched ']' at token %d", position),
	}
}

func unclosedOpen(position int, loc lexer.Loc) *CompileError {
	return &CompileError{
		Code:     ErrCodeUnmatchedBracket,
		Position: position,
		Token:    lexer.Open,
		Loc:      loc,
		Message:  fmt.Sprintf("unmatched '[' at token %d", position),
	}
}
