// Package parallel provides a worker-pool du.Source.
//
// Workers share a FIFO task queue and push every listed entry or error onto an
// unbounded outbox polled by the driver. Idle workers spin with
// runtime.Gosched rather than waiting on a condition variable.
//
// Termination rests on one ordering rule: every task is inserted into the
// queue before the unit of active work that produced it is released. Active
// work is a worker listing a directory, or a directory entry that the driver
// has not yet turned into a task. Hence, once the queue is empty and no work
// is active, no task can ever appear again and workers may exit.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/idelchi/dutree/internal/du"
	"github.com/idelchi/dutree/internal/fsys"
	"github.com/idelchi/dutree/internal/logging"
)

// Options configures a Source.
type Options struct {
	// Workers is the number of workers; zero or less uses the available CPUs.
	Workers int
	// Logger receives debug output; nil discards it.
	Logger logrus.FieldLogger
}

// task is a directory pending a listing.
type task struct {
	parent du.NodeID
	path   string
}

// Source lists directories on a pool of workers.
type Source struct {
	lister  fsys.Lister
	workers int
	log     logrus.FieldLogger

	running atomic.Bool
	stopped atomic.Bool
	active  atomic.Int64

	mu    sync.Mutex // Guards tasks
	tasks []task

	out    outbox
	errors []error
}

// New creates a Source listing through lister.
func New(lister fsys.Lister, opts Options) *Source {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Source{
		lister:  lister,
		workers: opts.Workers,
		log:     log,
	}
}

// Workers returns the number of workers Begin starts.
func (s *Source) Workers() int {
	if s.workers > 0 {
		return s.workers
	}

	if n := runtime.NumCPU(); n > 0 {
		return n
	}

	return 1
}

// Begin runs the worker pool and blocks until every worker has exited.
// It returns at once if Finish was called before.
func (s *Source) Begin() {
	workers := s.Workers()

	if s.stopped.Load() {
		s.log.Debug("finished before start")

		return
	}

	s.running.Store(true)

	var wg sync.WaitGroup

	for id := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			s.work(id)
		}()
	}

	wg.Wait()
	s.running.Store(false)

	s.log.WithField("workers", workers).Debug("worker pool stopped")
}

// Finish stops the source for good. Workers complete the listing they are in
// and exit on their next loop iteration; a later Begin returns immediately.
func (s *Source) Finish() {
	s.stopped.Store(true)
	s.running.Store(false)
}

// NextEntry polls the outbox without blocking. Errors found on the way are
// moved to the error list.
func (s *Source) NextEntry() (du.Entry, bool) {
	for {
		res, ok := s.out.poll()
		if !ok {
			return du.Entry{}, false
		}

		if res.err != nil {
			s.errors = append(s.errors, res.err)

			continue
		}

		return res.entry, true
	}
}

// Enqueue appends a task to the queue.
func (s *Source) Enqueue(parent du.NodeID, path string) {
	s.mu.Lock()
	s.tasks = append(s.tasks, task{parent: parent, path: path})
	s.mu.Unlock()
}

// Errors returns the errors received through NextEntry so far.
func (s *Source) Errors() []error {
	return s.errors
}

// Active returns the units of work currently in progress.
func (s *Source) Active() int64 {
	return s.active.Load()
}

// Buffered returns the number of results waiting in the outbox.
func (s *Source) Buffered() int {
	return s.out.size()
}

// Pending returns the number of queued tasks.
func (s *Source) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

// claim pops the oldest task and marks it active in one step. On an empty
// queue it reports whether any work is still active. Both checks happen under
// the queue lock, and producers insert a task before releasing the unit that
// covers it, so a worker never sees an empty queue and zero active work while
// a task is on its way.
func (s *Source) claim() (t task, ok, idle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return task{}, false, s.active.Load() == 0
	}

	t = s.tasks[0]
	s.tasks[0] = task{}
	s.tasks = s.tasks[1:]

	s.active.Add(1)

	return t, true, false
}

// work is the loop of a single worker.
func (s *Source) work(id int) {
	log := s.log.WithField("worker", id)
	log.Debug("worker started")

	listed := 0

	for s.running.Load() && !s.stopped.Load() {
		t, ok, idle := s.claim()
		if !ok {
			if idle {
				break
			}

			runtime.Gosched()

			continue
		}

		s.lister.ReadDir(t.parent, t.path, s.sendEntry, s.sendError)
		s.active.Add(-1)

		listed++
	}

	log.WithField("listed", listed).Debug("worker exited")
}

// sendEntry pushes entry to the outbox. A directory entry holds a unit of
// active work until the driver releases it after enqueuing its listing.
func (s *Source) sendEntry(entry du.Entry) {
	if entry.IsDir() {
		s.active.Add(1)
		entry = entry.OnRelease(s.release)
	}

	s.out.push(result{entry: entry})
}

func (s *Source) sendError(err error) {
	s.out.push(result{err: err})
}

func (s *Source) release() {
	s.active.Add(-1)
}
