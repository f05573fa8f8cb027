package handoff

import "github.com/freshframe/freshframe/internal/bufpool"

// Slot is a single-capacity hand-off between the capture worker and the
// consumer. It holds at most one filled buffer; a new offer against an
// occupied slot is rejected rather than overwriting the pending frame, so a
// buffer is never aliased mid-transfer. Safe for one producer and one
// consumer goroutine.
type Slot struct {
	ch chan *bufpool.Buffer
}

// New creates an empty slot.
func New() *Slot {
	return &Slot{ch: make(chan *bufpool.Buffer, 1)}
}

// Offer places the buffer in the slot if it is empty. Returns false without
// blocking when the slot is occupied; the caller keeps ownership of the
// buffer in that case and must dispose of it (return it to the pool).
func (s *Slot) Offer(b *bufpool.Buffer) bool {
	select {
	case s.ch <- b:
		return true
	default:
		return false
	}
}

// TryTake removes and returns the pending buffer, or reports false without
// blocking when the slot is empty. Ownership of a returned buffer passes to
// the caller, who must release it to the pool after use.
func (s *Slot) TryTake() (*bufpool.Buffer, bool) {
	select {
	case b := <-s.ch:
		return b, true
	default:
		return nil, false
	}
}
