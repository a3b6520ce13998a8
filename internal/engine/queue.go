package engine

// byteQueue is an unbounded FIFO of bytes.
//
// It is not safe for concurrent use; the engine is single-owner.
type byteQueue struct {
	buf  []byte
	head int
}

// Push adds b to the back of the queue.
func (q *byteQueue) Push(b byte) {
	q.buf = append(q.buf, b)
}

// PushAll adds bs to the back of the queue in order.
func (q *byteQueue) PushAll(bs []byte) {
	q.buf = append(q.buf, bs...)
}

// Pop removes and returns the front byte.
// Returns (0, false) if the queue is empty.
func (q *byteQueue) Pop() (byte, bool) {
	if q.head >= len(q.buf) {
		return 0, false
	}
	b := q.buf[q.head]
	q.head++

	// Reset when drained so the backing array is reused instead of growing.
	if q.head == len(q.buf) {
		q.buf = q.buf[:0]
		q.head = 0
	} else if q.head >= 4096 && q.head*2 >= len(q.buf) {
		// Compact once the consumed prefix dominates.
		n := copy(q.buf, q.buf[q.head:])
		q.buf = q.buf[:n]
		q.head = 0
	}
	return b, true
}

// Drain removes and returns every queued byte.
func (q *byteQueue) Drain() []byte {
	if q.Len() == 0 {
		return nil
	}
	out := make([]byte, q.Len())
	copy(out, q.buf[q.head:])
	q.buf = q.buf[:0]
	q.head = 0
	return out
}

// Len returns the current queue length.
func (q *byteQueue) Len() int {
	return len(q.buf) - q.head
}
