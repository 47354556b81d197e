package fsys

import (
	"fmt"
	"io/fs"

	"github.com/go-git/go-billy/v5"

	"github.com/idelchi/dutree/internal/du"
)

// Billy lists directories of a go-billy filesystem.
//
// Items are resolved with Lstat one by one, so symlinks are not followed and
// a failing item does not hide its siblings.
type Billy struct {
	fs billy.Filesystem
}

// NewBilly creates a Lister over fsys.
func NewBilly(fsys billy.Filesystem) *Billy {
	return &Billy{fs: fsys}
}

// ReadDir implements Lister.
func (b *Billy) ReadDir(parent du.NodeID, path string, onEntry func(du.Entry), onError func(error)) {
	infos, err := b.fs.ReadDir(path)
	if err != nil {
		onError(fmt.Errorf("billy: readdir %q: %w", path, err))

		return
	}

	for _, info := range infos {
		child := b.fs.Join(path, info.Name())

		describe(parent, child, func() (fs.FileInfo, error) { return b.fs.Lstat(child) }, onEntry, onError)
	}
}
