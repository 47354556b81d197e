package parallel

import (
	"sync"

	"github.com/idelchi/dutree/internal/du"
)

// result is either a listed entry or a listing error.
type result struct {
	entry du.Entry
	err   error
}

// outbox is an unbounded multi-producer single-consumer FIFO.
// push never blocks, so a worker cannot stall on a driver that stopped reading.
type outbox struct {
	mu    sync.Mutex
	items []result
	head  int
}

func (o *outbox) push(r result) {
	o.mu.Lock()
	o.items = append(o.items, r)
	o.mu.Unlock()
}

// poll removes the oldest result, if any.
func (o *outbox) poll() (result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.head == len(o.items) {
		return result{}, false
	}

	r := o.items[o.head]
	o.items[o.head] = result{}
	o.head++

	// Reuse the backing array once everything has been consumed.
	if o.head == len(o.items) {
		o.items = o.items[:0]
		o.head = 0
	}

	return r, true
}

// size returns the number of results not yet polled.
func (o *outbox) size() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.items) - o.head
}
