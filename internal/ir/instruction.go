package ir

import "fmt"

// Op identifies an instruction kind.
type Op uint8

const (
	// OpShift moves the cursor by Arg cells (negative = left).
	OpShift Op = iota + 1
	// OpAdd adds Arg to the current cell modulo 256.
	OpAdd
	// OpOutput appends the current cell to the output queue.
	OpOutput
	// OpInput reads one byte from the input queue into the current cell.
	OpInput
	// OpJumpIfZero jumps to Arg when the current cell is zero.
	OpJumpIfZero
	// OpJumpIfNonZero jumps to Arg when the current cell is non-zero.
	OpJumpIfNonZero
)

var opNames = map[Op]string{
	OpShift:         "shift",
	OpAdd:           "add",
	OpOutput:        "output",
	OpInput:         "input",
	OpJumpIfZero:    "jz",
	OpJumpIfNonZero: "jnz",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

// MarshalText encodes o by name so serialized programs stay readable.
func (o Op) MarshalText() ([]byte, error) {
	name, ok := opNames[o]
	if !ok {
		return nil, fmt.Errorf("unknown op %d", uint8(o))
	}
	return []byte(name), nil
}

// UnmarshalText decodes an op name.
func (o *Op) UnmarshalText(text []byte) error {
	op, ok := ParseOp(string(text))
	if !ok {
		return fmt.Errorf("unknown op %q", text)
	}
	*o = op
	return nil
}

// IsJump reports whether o carries a jump target.
func (o Op) IsJump() bool {
	return o == OpJumpIfZero || o == OpJumpIfNonZero
}

// HasArg reports whether o uses Instruction.Arg.
func (o Op) HasArg() bool {
	return o != OpOutput && o != OpInput
}

// Instruction is a single compiled operation.
//
// Arg is the signed magnitude for OpShift and OpAdd, the target index for
// jumps, and unused otherwise.
type Instruction struct {
	Op  Op  `json:"op"`
	Arg int `json:"arg,omitempty"`
}

// Shift returns a cursor move instruction.
func Shift(delta int) Instruction { return Instruction{Op: OpShift, Arg: delta} }

// Add returns a cell arithmetic instruction.
func Add(delta int) Instruction { return Instruction{Op: OpAdd, Arg: delta} }

// Output returns an output instruction.
func Output() Instruction { return Instruction{Op: OpOutput} }

// Input returns an input instruction.
func Input() Instruction { return Instruction{Op: OpInput} }

// JumpIfZero returns the instruction emitted for an opening bracket.
func JumpIfZero(target int) Instruction { return Instruction{Op: OpJumpIfZero, Arg: target} }

// JumpIfNonZero returns the instruction emitted for a closing bracket.
func JumpIfNonZero(target int) Instruction { return Instruction{Op: OpJumpIfNonZero, Arg: target} }

func (in Instruction) String() string {
	if !in.Op.HasArg() {
		return in.Op.String()
	}
	if in.Op.IsJump() {
		return fmt.Sprintf("%s %d", in.Op, in.Arg)
	}
	return fmt.Sprintf("%s %+d", in.Op, in.Arg)
}
