// Package testutil provides fixtures and assertions shared by traversal tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dutree/internal/du"
)

// Tree describes a fixture: keys are slash-separated relative paths, values
// are file sizes. A key ending in "/" is a directory and its value is ignored.
type Tree map[string]int

// Scenario is the fixture root/{a.txt (10 bytes), sub/{b.txt (5 bytes)}}.
func Scenario() Tree {
	return Tree{
		"a.txt":     10,
		"sub/":      0,
		"sub/b.txt": 5,
	}
}

// Wide returns a fixture with dirs directories of files files each, nested depth levels deep.
func Wide(dirs, files, depth int) Tree {
	tree := Tree{}

	var fill func(prefix string, level int)

	fill = func(prefix string, level int) {
		for f := range files {
			tree[fmt.Sprintf("%sf%d.bin", prefix, f)] = f + 1
		}

		if level == depth {
			return
		}

		for d := range dirs {
			dir := fmt.Sprintf("%sd%d/", prefix, d)
			tree[dir] = 0
			fill(dir, level+1)
		}
	}

	fill("", 0)

	return tree
}

// keys returns the fixture paths in creation order, parents first.
func (t Tree) keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// MemFS materialises tree under /root of an in-memory filesystem.
func MemFS(t *testing.T, tree Tree) (billy.Filesystem, string) {
	t.Helper()

	mem := memfs.New()
	root := "/root"

	require.NoError(t, mem.MkdirAll(root, 0o755))

	for _, key := range tree.keys() {
		path := mem.Join(root, key)

		if strings.HasSuffix(key, "/") {
			require.NoError(t, mem.MkdirAll(path, 0o755))

			continue
		}

		require.NoError(t, util.WriteFile(mem, path, make([]byte, tree[key]), 0o644))
	}

	return mem, root
}

// OSDir materialises tree in a fresh temporary directory.
func OSDir(t *testing.T, tree Tree) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "root")
	require.NoError(t, os.MkdirAll(root, 0o755))

	for _, key := range tree.keys() {
		path := filepath.Join(root, filepath.FromSlash(key))

		if strings.HasSuffix(key, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))

			continue
		}

		require.NoError(t, os.WriteFile(path, make([]byte, tree[key]), 0o644))
	}

	return root
}

// Faulty wraps a billy filesystem and fails ReadDir or Lstat for selected paths.
type Faulty struct {
	billy.Filesystem

	fail   map[string]error
	broken map[string]error
}

// NewFaulty wraps fsys; ReadDir of any path in denied fails with fs.ErrPermission.
func NewFaulty(fsys billy.Filesystem, denied ...string) *Faulty {
	fail := make(map[string]error, len(denied))
	for _, path := range denied {
		fail[path] = fs.ErrPermission
	}

	return &Faulty{Filesystem: fsys, fail: fail, broken: map[string]error{}}
}

// Break makes Lstat of every path in paths fail with fs.ErrPermission.
func (f *Faulty) Break(paths ...string) *Faulty {
	for _, path := range paths {
		f.broken[path] = fs.ErrPermission
	}

	return f
}

// ReadDir implements billy.Dir.
func (f *Faulty) ReadDir(path string) ([]os.FileInfo, error) {
	if err, ok := f.fail[path]; ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}

	return f.Filesystem.ReadDir(path)
}

// Lstat implements billy.Symlink.
func (f *Faulty) Lstat(path string) (os.FileInfo, error) {
	if err, ok := f.broken[path]; ok {
		return nil, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}

	return f.Filesystem.Lstat(path)
}

// Drain starts drv at path and runs it to completion, failing after timeout.
func Drain(t *testing.T, drv *du.Driver, path string, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	require.NoError(t, drv.Begin(path))
	require.NoError(t, drv.Run(ctx, time.Millisecond, nil))

	select {
	case <-drv.Done():
	case <-ctx.Done():
		t.Fatal("source did not stop")
	}
}

// CheckAggregates verifies that every node's aggregate equals its own leaf
// contribution plus the aggregates of its children.
func CheckAggregates(t *testing.T, stats *du.Stats) {
	t.Helper()

	for i := range stats.Len() {
		id := du.NodeID(i)
		node := stats.Node(id)
		info := node.Info()

		want := du.NewInfo(info.Name, info.Kind, 0)

		var size uint64

		for _, child := range node.Children() {
			require.Equal(t, id, stats.Node(child).ParentID(), "parent link of %d", child)

			c := stats.Node(child).Info()
			size += c.Size
			want.Files += c.Files
			want.Dirs += c.Dirs
			want.Other += c.Other
		}

		path := stats.Path(id)

		// Directories own no bytes, so their size is exactly the sum of their children.
		if info.Kind == du.KindDir {
			require.Equal(t, size, info.Size, "size of %q", path)
		}

		require.Equal(t, want.Files, info.Files, "files of %q", path)
		require.Equal(t, want.Dirs, info.Dirs, "dirs of %q", path)
		require.Equal(t, want.Other, info.Other, "other of %q", path)
	}
}

// Signature maps every node path to its aggregate, making trees built in
// different orders comparable.
func Signature(stats *du.Stats) map[string]du.Info {
	sig := make(map[string]du.Info, stats.Len())

	for i := range stats.Len() {
		id := du.NodeID(i)
		sig[filepath.ToSlash(stats.Path(id))] = stats.Node(id).Info()
	}

	return sig
}

// ErrorSet returns the sorted messages of errs.
func ErrorSet(errs []error) []string {
	set := make([]string, 0, len(errs))
	for _, err := range errs {
		set = append(set, err.Error())
	}

	slices.Sort(set)

	return set
}
