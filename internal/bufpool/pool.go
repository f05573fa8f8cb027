package bufpool

// Buffer is a fixed-capacity byte region with a logical length.
// While idle it belongs to the pool; after Acquire it belongs exclusively to
// the caller until the matching Release.
type Buffer struct {
	data []byte
	n    int
}

// Bytes returns the filled prefix of the buffer.
func (b *Buffer) Bytes() []byte { return b.data[:b.n] }

// Cap returns the fixed byte capacity, set at pool construction.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the logical length recorded by SetLen.
func (b *Buffer) Len() int { return b.n }

// SetLen records how many bytes of the buffer are filled.
// Panics if n exceeds the fixed capacity; the capture side must check the
// raw frame size against Cap before copying.
func (b *Buffer) SetLen(n int) {
	if n < 0 || n > len(b.data) {
		panic("bufpool: SetLen out of range")
	}
	b.n = n
}

// Data returns the full backing slice for filling up to Cap bytes.
func (b *Buffer) Data() []byte { return b.data }

// Pool holds a fixed set of pre-allocated buffers. All allocation happens in
// New; Acquire and Release only move ownership. Safe for concurrent use from
// the capture and consumer goroutines.
type Pool struct {
	idle chan *Buffer
	size int
}

// New creates a pool of n buffers of bufBytes capacity each.
// Total memory is n*bufBytes for the lifetime of the pool.
func New(n, bufBytes int) *Pool {
	if n <= 0 {
		panic("bufpool: pool size must be positive")
	}
	if bufBytes <= 0 {
		panic("bufpool: buffer capacity must be positive")
	}
	p := &Pool{
		idle: make(chan *Buffer, n),
		size: n,
	}
	for i := 0; i < n; i++ {
		p.idle <- &Buffer{data: make([]byte, bufBytes)}
	}
	return p
}

// Acquire checks out an idle buffer. Never blocks and never allocates;
// returns false when every buffer is checked out.
func (p *Pool) Acquire() (*Buffer, bool) {
	select {
	case b := <-p.idle:
		return b, true
	default:
		return nil, false
	}
}

// Release returns a previously acquired buffer to the idle set. Callable from
// a different goroutine than the one that acquired it.
func (p *Pool) Release(b *Buffer) {
	if b == nil {
		panic("bufpool: Release of nil buffer")
	}
	b.n = 0
	select {
	case p.idle <- b:
	default:
		// More releases than acquires; the conservation contract is broken.
		panic("bufpool: Release without matching Acquire")
	}
}

// Idle returns the number of buffers currently in the pool.
func (p *Pool) Idle() int { return len(p.idle) }

// Size returns the fixed pool capacity N.
func (p *Pool) Size() int { return p.size }
