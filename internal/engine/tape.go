package engine

// Tape sizing defaults.
const (
	DefaultTapeSize  = 30_000
	DefaultBlockSize = 30_000
)

// tape is a contiguous, zero-initialized byte buffer that only grows.
type tape struct {
	cells []byte
	block int
}

func newTape(size, block int) tape {
	return tape{cells: make([]byte, size), block: block}
}

// ensure grows the tape in whole blocks until index i is addressable.
// Returns true if the tape grew.
func (t *tape) ensure(i int) bool {
	if i < len(t.cells) {
		return false
	}
	blocks := (i-len(t.cells))/t.block + 1
	t.cells = append(t.cells, make([]byte, blocks*t.block)...)
	return true
}

func (t *tape) len() int {
	return len(t.cells)
}
