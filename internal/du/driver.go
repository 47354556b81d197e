package du

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotStarted is returned by Run when Begin has not been called.
	ErrNotStarted = errors.New("driver not started")
	// ErrStarted is returned by Begin when the driver was already started.
	ErrStarted = errors.New("driver already started")
)

// DefaultTick is the default time slice used by Run between progress callbacks.
const DefaultTick = 100 * time.Millisecond

// Driver pulls entries from a Source into Stats and feeds discovered
// directories back to the source.
//
// A Driver is owned by a single goroutine; only Begin's background run of
// Source.Begin executes elsewhere.
type Driver struct {
	stats  *Stats
	source Source
	done   chan struct{}
	parked *Entry
}

// New creates a Driver over source with an empty tree.
func New(source Source) *Driver {
	return &Driver{
		stats:  NewStats(),
		source: source,
	}
}

// Stats returns the tree built so far.
func (d *Driver) Stats() *Stats {
	return d.stats
}

// Errors returns the filesystem errors collected by the source so far.
func (d *Driver) Errors() []error {
	return d.source.Errors()
}

// Begin enqueues path as the root task and starts the source.
//
// The root task is enqueued on the calling goroutine. Source.Begin runs on its
// own goroutine since the parallel source blocks until its workers are idle,
// which requires the caller to keep reading; Done is closed once it returns.
// A Driver runs a single traversal; a second call fails with ErrStarted.
func (d *Driver) Begin(path string) error {
	if d.done != nil {
		return ErrStarted
	}

	d.source.Enqueue(Root, path)

	d.done = make(chan struct{})

	go func() {
		defer close(d.done)

		d.source.Begin()
	}()

	return nil
}

// Done returns a channel closed once Source.Begin has returned.
// It is nil before Begin is called.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}

// Finish asks the source to stop producing entries.
func (d *Driver) Finish() {
	d.source.Finish()
}

// Read applies entries until the source has nothing ready or keep returns false.
//
// keep is evaluated before each pulled entry is applied. An entry rejected by
// keep is not applied; it is held back and applied first by the next call to
// Read. It returns the number of entries applied.
func (d *Driver) Read(keep func(*Stats, Source) bool) int {
	count := 0

	for {
		entry, ok := d.next()
		if !ok {
			return count
		}

		if !keep(d.stats, d.source) {
			d.parked = &entry

			return count
		}

		d.apply(entry)
		count++
	}
}

// ReadFor applies entries until the source has nothing ready or budget has
// elapsed. The budget is checked between entries, so an entry already pulled
// is always applied in full. It returns the number of entries applied and the
// time actually spent.
func (d *Driver) ReadFor(budget time.Duration) (int, time.Duration) {
	start := time.Now()

	count := d.Read(func(*Stats, Source) bool {
		return time.Since(start) < budget
	})

	return count, time.Since(start)
}

// Finished reports whether Source.Begin has returned and every produced entry has been applied.
func (d *Driver) Finished() bool {
	if d.done == nil {
		return false
	}

	select {
	case <-d.done:
	default:
		return false
	}

	entry, ok := d.next()
	if ok {
		d.parked = &entry

		return false
	}

	return true
}

// Run drains the source in slices of tick until Finished, calling progress
// (if not nil) after each slice. If ctx is cancelled first, the source is
// asked to finish and ctx.Err() is returned; the tree stays consistent.
func (d *Driver) Run(ctx context.Context, tick time.Duration, progress func(*Stats)) error {
	if d.done == nil {
		return ErrNotStarted
	}

	if tick <= 0 {
		tick = DefaultTick
	}

	for !d.Finished() {
		select {
		case <-ctx.Done():
			d.Finish()

			return ctx.Err()
		default:
		}

		if count, _ := d.ReadFor(tick); count == 0 {
			select {
			case <-ctx.Done():
			case <-d.done:
			case <-time.After(time.Millisecond):
			}
		}

		if progress != nil {
			progress(d.stats)
		}
	}

	return nil
}

// next returns the parked entry if any, otherwise the next entry of the source.
func (d *Driver) next() (Entry, bool) {
	if d.parked != nil {
		entry := *d.parked
		d.parked = nil

		return entry, true
	}

	return d.source.NextEntry()
}

// apply pushes entry into the tree and enqueues its listing if it is a directory.
func (d *Driver) apply(entry Entry) {
	id := d.stats.Push(entry.Parent, entry.Info)
	if entry.IsDir() {
		d.source.Enqueue(id, entry.Path)
	}

	entry.Release()
}
