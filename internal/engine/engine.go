package engine

import (
	"fmt"

	"github.com/roach88/tape/internal/ir"
)

// Status is the outcome of a single Step.
type Status int

const (
	// Continue means more instructions remain.
	Continue Status = iota
	// Halted means the instruction pointer is past the last instruction.
	Halted
	// Blocked means an Input instruction found the input queue empty.
	Blocked
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Halted:
		return "halted"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	tapeSize  int
	blockSize int
}

// WithTapeSize sets the initial number of tape cells.
// Non-positive values keep the default.
func WithTapeSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.tapeSize = n
		}
	}
}

// WithBlockSize sets how many cells the tape grows by at a time.
// Non-positive values keep the default.
func WithBlockSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// Engine executes a compiled program one instruction at a time.
//
// Engine is not safe for concurrent use. See the package documentation.
type Engine struct {
	program *ir.Program
	instrs  []ir.Instruction

	tape   tape
	cursor int
	pc     int

	input  byteQueue
	output byteQueue

	// fault holds the first fatal error; once set, Step only returns it.
	fault error
	steps int64
}

// New creates an engine positioned at the first instruction of p with a
// zeroed tape and empty queues.
func New(p *ir.Program, opts ...Option) *Engine {
	o := options{
		tapeSize:  DefaultTapeSize,
		blockSize: DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		program: p,
		instrs:  p.Instructions(),
		tape:    newTape(o.tapeSize, o.blockSize),
	}
}

// Step executes one instruction.
//
// When err is non-nil the status is Halted and the engine is permanently
// faulted: later calls return the same error.
func (e *Engine) Step() (Status, error) {
	if e.fault != nil {
		return Halted, e.fault
	}
	if e.pc >= len(e.instrs) {
		return Halted, nil
	}

	in := e.instrs[e.pc]
	switch in.Op {
	case ir.OpShift:
		next := e.cursor + in.Arg
		if next < 0 {
			e.fault = NewOutOfBoundsError(e.pc, e.cursor, in.Arg)
			return Halted, e.fault
		}
		e.tape.ensure(next)
		e.cursor = next

	case ir.OpAdd:
		// Conversion keeps the low 8 bits, so negative deltas wrap too.
		e.tape.cells[e.cursor] += byte(in.Arg)

	case ir.OpOutput:
		e.output.Push(e.tape.cells[e.cursor])

	case ir.OpInput:
		b, ok := e.input.Pop()
		if !ok {
			return Blocked, nil
		}
		e.tape.cells[e.cursor] = b

	case ir.OpJumpIfZero:
		if e.tape.cells[e.cursor] == 0 {
			e.pc = in.Arg
		}

	case ir.OpJumpIfNonZero:
		if e.tape.cells[e.cursor] != 0 {
			e.pc = in.Arg
		}

	default:
		// Unreachable for programs built by ir.NewProgram.
		panic(fmt.Sprintf("engine: unknown op %v at %d", in.Op, e.pc))
	}

	e.pc++
	e.steps++
	if e.pc >= len(e.instrs) {
		return Halted, nil
	}
	return Continue, nil
}

// PushInput appends b to the input queue.
func (e *Engine) PushInput(b byte) {
	e.input.Push(b)
}

// PushInputBytes appends bs to the input queue in order.
func (e *Engine) PushInputBytes(bs []byte) {
	e.input.PushAll(bs)
}

// PopOutput removes the oldest output byte.
func (e *Engine) PopOutput() (byte, bool) {
	return e.output.Pop()
}

// DrainOutput removes and returns all pending output bytes.
func (e *Engine) DrainOutput() []byte {
	return e.output.Drain()
}

// InputLen returns the number of unread input bytes.
func (e *Engine) InputLen() int { return e.input.Len() }

// OutputLen returns the number of undrained output bytes.
func (e *Engine) OutputLen() int { return e.output.Len() }

// Program returns the program being executed.
func (e *Engine) Program() *ir.Program { return e.program }

// PC returns the index of the next instruction to execute.
func (e *Engine) PC() int { return e.pc }

// Cursor returns the current tape index.
func (e *Engine) Cursor() int { return e.cursor }

// Cell returns the value under the cursor.
func (e *Engine) Cell() byte { return e.tape.cells[e.cursor] }

// CellAt returns the value of cell i. Cells past the end of the tape read
// as zero.
func (e *Engine) CellAt(i int) byte {
	if i < 0 || i >= e.tape.len() {
		return 0
	}
	return e.tape.cells[i]
}

// TapeLen returns the current tape length.
func (e *Engine) TapeLen() int { return e.tape.len() }

// Steps returns the number of instructions executed. Blocked steps are not
// counted.
func (e *Engine) Steps() int64 { return e.steps }

// Err returns the fatal error that stopped the engine, if any.
func (e *Engine) Err() error { return e.fault }

// Done reports whether Step can make no further progress.
func (e *Engine) Done() bool {
	return e.fault != nil || e.pc >= len(e.instrs)
}
