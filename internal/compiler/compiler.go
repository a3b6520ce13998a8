// Package compiler turns a token stream into a jump-resolved ir.Program.
//
// Compilation is a single forward pass. Runs of identical move or arithmetic
// commands fold into one instruction as they are read, and bracket pairs are
// linked through an explicit stack of open positions, so nesting depth is
// bounded by memory rather than call depth.
package compiler

import (
	"iter"

	"github.com/roach88/tape/internal/ir"
	"github.com/roach88/tape/internal/lexer"
)

// Compile compiles a token sequence.
// Errors carry token-stream positions only; use CompileSource for
// line/column information.
func Compile(tokens iter.Seq[lexer.Token]) (*ir.Program, error) {
	b := &builder{}
	for tok := range tokens {
		if err := b.add(tok, lexer.Loc{}); err != nil {
			return nil, err
		}
	}
	return b.finish()
}

// CompileSource lexes and compiles source text.
func CompileSource(src string) (*ir.Program, error) {
	b := &builder{}
	for lx := range lexer.Scan(src) {
		if err := b.add(lx.Token, lx.Loc); err != nil {
			return nil, err
		}
	}
	return b.finish()
}

// openBracket records a JumpIfZero still waiting for its partner.
type openBracket struct {
	instr int
	token int
	loc   lexer.Loc
}

type builder struct {
	instrs []ir.Instruction
	opens  []openBracket
	pos    int // index of the next token
}

func (b *builder) add(tok lexer.Token, loc lexer.Loc) error {
	defer func() { b.pos++ }()

	switch tok {
	case lexer.MoveLeft:
		b.fold(ir.OpShift, -1)
	case lexer.MoveRight:
		b.fold(ir.OpShift, 1)
	case lexer.Increment:
		b.fold(ir.OpAdd, 1)
	case lexer.Decrement:
		b.fold(ir.OpAdd, -1)
	case lexer.Output:
		b.instrs = append(b.instrs, ir.Output())
	case lexer.Input:
		b.instrs = append(b.instrs, ir.Input())
	case lexer.Open:
		b.opens = append(b.opens, openBracket{instr: len(b.instrs), token: b.pos, loc: loc})
		// Target is patched when the matching Close arrives.
		b.instrs = append(b.instrs, ir.JumpIfZero(-1))
	case lexer.Close:
		if len(b.opens) == 0 {
			return unmatchedClose(b.pos, loc)
		}
		open := b.opens[len(b.opens)-1]
		b.opens = b.opens[:len(b.opens)-1]

		here := len(b.instrs)
		b.instrs[open.instr].Arg = here
		b.instrs = append(b.instrs, ir.JumpIfNonZero(open.instr))
	}
	return nil
}

// fold adds delta to the last instruction when it has the same op, otherwise
// appends a new one.
func (b *builder) fold(op ir.Op, delta int) {
	if n := len(b.instrs); n > 0 && b.instrs[n-1].Op == op {
		b.instrs[n-1].Arg += delta
		return
	}
	b.instrs = append(b.instrs, ir.Instruction{Op: op, Arg: delta})
}

func (b *builder) finish() (*ir.Program, error) {
	if len(b.opens) > 0 {
		// Report the leftmost unclosed bracket.
		first := b.opens[0]
		return nil, unclosedOpen(first.token, first.loc)
	}
	return ir.NewProgram(b.instrs)
}
