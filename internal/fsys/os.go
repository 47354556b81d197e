package fsys

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/idelchi/dutree/internal/du"
)

// batchSize is the number of directory entries read per syscall batch.
const batchSize = 256

// OS lists directories of the host filesystem. Symlinks are not followed.
type OS struct{}

// ReadDir implements Lister.
func (OS) ReadDir(parent du.NodeID, path string, onEntry func(du.Entry), onError func(error)) {
	dir, err := os.Open(path)
	if err != nil {
		onError(err)

		return
	}
	defer dir.Close()

	for {
		items, err := dir.ReadDir(batchSize)

		for _, item := range items {
			describe(parent, filepath.Join(path, item.Name()), item.Info, onEntry, onError)
		}

		if errors.Is(err, io.EOF) {
			return
		}

		if err != nil {
			onError(err)

			return
		}
	}
}
