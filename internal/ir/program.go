package ir

import (
	"fmt"
	"strings"
)

// Program is an ordered, immutable sequence of instructions with every
// bracket pair resolved.
//
// Invariant: for each OpJumpIfZero at index i with Arg t, the instruction at t
// is OpJumpIfNonZero with Arg i, and the pairs nest without crossing.
type Program struct {
	instrs []Instruction
}

// InvalidProgramError reports a violated Program invariant.
type InvalidProgramError struct {
	Index   int
	Message string
}

func (e *InvalidProgramError) Error() string {
	return fmt.Sprintf("invalid program at instruction %d: %s", e.Index, e.Message)
}

// NewProgram validates instrs and returns a Program holding a copy of them.
func NewProgram(instrs []Instruction) (*Program, error) {
	if err := validate(instrs); err != nil {
		return nil, err
	}
	owned := make([]Instruction, len(instrs))
	copy(owned, instrs)
	return &Program{instrs: owned}, nil
}

// MustProgram is NewProgram that panics on invalid input. For tests and
// literals only.
func MustProgram(instrs ...Instruction) *Program {
	p, err := NewProgram(instrs)
	if err != nil {
		panic(err)
	}
	return p
}

func validate(instrs []Instruction) error {
	var opens []int
	for i, in := range instrs {
		switch in.Op {
		case OpShift, OpAdd, OpOutput, OpInput:
		case OpJumpIfZero:
			opens = append(opens, i)
		case OpJumpIfNonZero:
			if len(opens) == 0 {
				return &InvalidProgramError{Index: i, Message: "jnz without matching jz"}
			}
			open := opens[len(opens)-1]
			opens = opens[:len(opens)-1]
			if in.Arg != open {
				return &InvalidProgramError{Index: i, Message: fmt.Sprintf("jnz targets %d, want %d", in.Arg, open)}
			}
			if instrs[open].Arg != i {
				return &InvalidProgramError{Index: open, Message: fmt.Sprintf("jz targets %d, want %d", instrs[open].Arg, i)}
			}
		default:
			return &InvalidProgramError{Index: i, Message: fmt.Sprintf("unknown op %d", uint8(in.Op))}
		}
	}
	if len(opens) > 0 {
		return &InvalidProgramError{Index: opens[0], Message: "jz without matching jnz"}
	}
	return nil
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.instrs)
}

// At returns the instruction at index i.
func (p *Program) At(i int) (Instruction, bool) {
	if i < 0 || i >= len(p.instrs) {
		return Instruction{}, false
	}
	return p.instrs[i], true
}

// Instructions returns a copy of the instruction sequence.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.instrs))
	copy(out, p.instrs)
	return out
}

// OpCounts returns how many instructions of each kind p contains.
func (p *Program) OpCounts() map[Op]int {
	counts := make(map[Op]int)
	for _, in := range p.instrs {
		counts[in.Op]++
	}
	return counts
}

// MaxDepth returns the deepest loop nesting in p.
func (p *Program) MaxDepth() int {
	depth, deepest := 0, 0
	for _, in := range p.instrs {
		switch in.Op {
		case OpJumpIfZero:
			depth++
			if depth > deepest {
				deepest = depth
			}
		case OpJumpIfNonZero:
			depth--
		}
	}
	return deepest
}

// String returns a disassembly listing, one instruction per line, indented
// by loop depth.
func (p *Program) String() string {
	var b strings.Builder
	depth := 0
	for i, in := range p.instrs {
		if in.Op == OpJumpIfNonZero {
			depth--
		}
		fmt.Fprintf(&b, "%04d  %s%s\n", i, strings.Repeat("  ", depth), in)
		if in.Op == OpJumpIfZero {
			depth++
		}
	}
	return b.String()
}
