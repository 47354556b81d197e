package census

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/dutree/internal/du"
	"github.com/idelchi/dutree/internal/logging"
)

// Totals holds flat counts for a subtree, root directory included.
type Totals struct {
	// Size is the cumulative size of files and other entries in bytes.
	Size uint64 `json:"size" yaml:"size"`
	// Files is the number of regular files.
	Files uint64 `json:"files" yaml:"files"`
	// Dirs is the number of directories.
	Dirs uint64 `json:"dirs" yaml:"dirs"`
	// Other is the number of remaining entries.
	Other uint64 `json:"other" yaml:"other"`
	// Errors is the number of entries that could not be accessed.
	Errors uint64 `json:"errors" yaml:"errors"`
	// Elapsed is the time taken by the walk.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// FromInfo converts an arena aggregate into Totals for comparison.
func FromInfo(info du.Info) Totals {
	return Totals{
		Size:  info.Size,
		Files: uint64(info.Files),
		Dirs:  uint64(info.Dirs),
		Other: uint64(info.Other),
	}
}

// Diff describes the fields in which t and other disagree.
// Errors and Elapsed are ignored. It returns nil when the counts match.
func (t Totals) Diff(other Totals) []string {
	var diffs []string

	check := func(field string, a, b uint64) {
		if a != b {
			diffs = append(diffs, fmt.Sprintf("%s: %d != %d", field, a, b))
		}
	}

	check("size", t.Size, other.Size)
	check("files", t.Files, other.Files)
	check("dirs", t.Dirs, other.Dirs)
	check("other", t.Other, other.Other)

	return diffs
}

// collector aggregates counts from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu     sync.Mutex // Protect concurrent access
	totals Totals
}

// addError increments the error counter. This operation is protected by a mutex
// since fastwalk calls the callback from multiple goroutines concurrently.
func (c *collector) addError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals.Errors++
}

// add records an entry of the given kind. Directories contribute no bytes.
func (c *collector) add(kind du.Kind, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case du.KindDir:
		c.totals.Dirs++

		return
	case du.KindFile:
		c.totals.Files++
	default:
		c.totals.Other++
	}

	if size > 0 {
		c.totals.Size += uint64(size)
	}
}

// Run walks path with fastwalk and returns flat totals.
//
// Errors on individual entries are counted and skipped. The walk can be
// cancelled via ctx. A nil log discards debug output.
func Run(ctx context.Context, path string, log logrus.FieldLogger) (*Totals, error) {
	if log == nil {
		log = logging.Discard()
	}

	// validate path exists and is accessible
	if statInfo, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("accessing path %q: %w", path, err)
	} else if !statInfo.IsDir() {
		return nil, fmt.Errorf("path %q is not a directory", path)
	}

	collector := &collector{}

	// The root is counted here; the walk reports only what is below it.
	root := filepath.Clean(path)
	collector.add(du.KindDir, 0)

	start := time.Now()

	// Configure fastwalk
	conf := &fastwalk.Config{
		Follow: false, // Don't follow symlinks
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, path, func(entryPath string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithError(err).WithField("path", entryPath).Debug("census: error accessing path")
			collector.addError()

			return nil // Silently skip errors
		}

		// Check cancellation periodically
		select {
		case <-ctx.Done():
			return context.Canceled
		default:
		}

		if filepath.Clean(entryPath) == root {
			return nil
		}

		if d.IsDir() {
			collector.add(du.KindDir, 0)

			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			collector.addError()

			return nil //nolint:nilerr // Intentionally skip errors during walk
		}

		collector.add(du.KindFromMode(fileInfo.Mode()), fileInfo.Size())

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	collector.mu.Lock()
	totals := collector.totals
	collector.mu.Unlock()

	totals.Elapsed = time.Since(start)

	return &totals, nil
}
