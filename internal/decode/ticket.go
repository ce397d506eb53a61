package decode

import (
	"context"
	"sync"
)

// Ticket is the pending result of one frame request. Duplicate concurrent
// requests for the same frame id receive the same ticket, so independent
// callers (a visibility prefetch and a user click, say) share a single
// decode. A ticket settles exactly once.
type Ticket struct {
	once sync.Once
	done chan struct{}
	img  []byte
	err  error
}

func newTicket() *Ticket {
	return &Ticket{done: make(chan struct{})}
}

func resolvedTicket(img []byte) *Ticket {
	t := newTicket()
	t.resolve(img)
	return t
}

func rejectedTicket(err error) *Ticket {
	t := newTicket()
	t.reject(err)
	return t
}

func (t *Ticket) resolve(img []byte) {
	t.once.Do(func() {
		t.img = img
		close(t.done)
	})
}

func (t *Ticket) reject(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

func (t *Ticket) settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done is closed when the ticket settles.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the ticket settles or ctx is cancelled and returns the
// decoded image or the failure.
func (t *Ticket) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.done:
		return t.img, t.err
	}
}
