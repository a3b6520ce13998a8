// Package engine implements the step-driven tape interpreter.
//
// ARCHITECTURE:
//
// An Engine owns a compiled ir.Program, a growable byte tape, a cursor, an
// instruction pointer and two FIFO byte queues. Each call to Step executes
// exactly one instruction and reports one of three statuses:
//
//   - Continue: more instructions remain
//   - Halted:   the instruction pointer ran off the end (terminal, idempotent)
//   - Blocked:  an Input instruction found the input queue empty
//
// Blocked is the only suspension point. The pointer is left on the Input
// instruction, so the caller pushes more input and calls Step again.
//
// CRITICAL PATTERNS:
//
// Single owner:
// The engine has no locks and starts no goroutines. Step, PushInput and
// PopOutput must be called from the one goroutine driving the program.
//
// Fatal errors are sticky:
// Once Step returns a RuntimeError, every later call returns the same error
// without touching state. Nothing is clamped or retried internally.
package engine
