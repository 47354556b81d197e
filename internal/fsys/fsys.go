// Package fsys lists single directories into du entries.
//
// Lister is the only seam between traversal and the operating system. OS
// lists through the os package; Billy lists through any go-billy filesystem,
// which is how in-memory fixtures and fault injection reach the traversal.
package fsys

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/idelchi/dutree/internal/du"
)

// ErrInvalidName is reported for paths without a terminal component.
var ErrInvalidName = errors.New("invalid file name")

// Lister lists one directory.
//
// ReadDir calls onEntry for every item it could fully describe and onError
// for every failure. A directory that cannot be opened yields exactly one
// error and no entries; a failing item does not stop the remaining ones.
type Lister interface {
	ReadDir(parent du.NodeID, path string, onEntry func(du.Entry), onError func(error))
}

// Name returns the terminal component of path.
//
// Paths that clean to nothing nameable ("", "/", ".", "..", a bare volume)
// fail with ErrInvalidName wrapped in a *fs.PathError.
func Name(path string) (string, error) {
	cleaned := filepath.Clean(path)
	volume := filepath.VolumeName(cleaned)
	rest := cleaned[len(volume):]

	base := filepath.Base(rest)

	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", &fs.PathError{Op: "name", Path: path, Err: ErrInvalidName}
	}

	return base, nil
}

// entryFor describes a listed item. Directories contribute no bytes of their
// own; their size is whatever their contents add up to.
func entryFor(parent du.NodeID, path string, mode fs.FileMode, size int64) (du.Entry, error) {
	name, err := Name(path)
	if err != nil {
		return du.Entry{}, err
	}

	kind := du.KindFromMode(mode)

	var own uint64
	if kind != du.KindDir && size > 0 {
		own = uint64(size)
	}

	return du.NewEntry(parent, du.NewInfo(name, kind, own), path), nil
}

// describe resolves the metadata of one listed item and reports it. A failing
// stat or name is reported through onError alone.
func describe(
	parent du.NodeID,
	path string,
	stat func() (fs.FileInfo, error),
	onEntry func(du.Entry),
	onError func(error),
) {
	info, err := stat()
	if err != nil {
		onError(err)

		return
	}

	entry, err := entryFor(parent, path, info.Mode(), info.Size())
	if err != nil {
		onError(err)

		return
	}

	onEntry(entry)
}
