package du

// Source produces discovered entries and accepts directories to list.
//
// NextEntry, Enqueue and Errors are called only from the goroutine that owns
// the Driver. Begin may block and is run on its own goroutine by the Driver.
type Source interface {
	// Begin starts source-specific execution and returns once the source has
	// no more work it can make progress on.
	Begin()
	// Finish asks the source to stop. It does not block and does not
	// interrupt a directory listing already in progress.
	Finish()
	// NextEntry returns the next produced entry without blocking.
	// A false result means nothing is ready right now, not that the traversal is complete.
	NextEntry() (Entry, bool)
	// Enqueue schedules path to be listed, with its entries inserted under parent.
	Enqueue(parent NodeID, path string)
	// Errors returns the filesystem errors collected so far, in the order they were observed.
	Errors() []error
}
