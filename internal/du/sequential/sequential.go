// Package sequential provides a single-goroutine du.Source.
//
// Directories are listed synchronously inside Enqueue and their entries are
// buffered on a stack, so visitation order is last-in first-out. Callers must
// not depend on that order.
package sequential

import (
	"github.com/idelchi/dutree/internal/du"
	"github.com/idelchi/dutree/internal/fsys"
)

// Source lists directories on the calling goroutine.
type Source struct {
	lister  fsys.Lister
	entries []du.Entry
	errors  []error
}

// New creates a Source listing through lister.
func New(lister fsys.Lister) *Source {
	return &Source{lister: lister}
}

// Begin is a no-op; listing happens in Enqueue.
func (s *Source) Begin() {}

// Finish is a no-op; there is no background work to stop.
func (s *Source) Finish() {}

// NextEntry pops the most recently buffered entry.
func (s *Source) NextEntry() (du.Entry, bool) {
	if len(s.entries) == 0 {
		return du.Entry{}, false
	}

	last := len(s.entries) - 1
	entry := s.entries[last]
	s.entries[last] = du.Entry{}
	s.entries = s.entries[:last]

	return entry, true
}

// Enqueue lists path immediately.
func (s *Source) Enqueue(parent du.NodeID, path string) {
	s.lister.ReadDir(parent, path,
		func(e du.Entry) { s.entries = append(s.entries, e) },
		func(err error) { s.errors = append(s.errors, err) },
	)
}

// Errors returns the errors collected so far.
func (s *Source) Errors() []error {
	return s.errors
}
