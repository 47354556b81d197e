package sequential_test

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dutree/internal/du"
	"github.com/idelchi/dutree/internal/du/sequential"
	"github.com/idelchi/dutree/internal/fsys"
	"github.com/idelchi/dutree/internal/testutil"
)

func TestEnqueueListsImmediately(t *testing.T) {
	t.Parallel()

	mem, root := testutil.MemFS(t, testutil.Scenario())
	src := sequential.New(fsys.NewBilly(mem))

	src.Enqueue(du.Root, root)

	var names []string

	for {
		entry, ok := src.NextEntry()
		if !ok {
			break
		}

		names = append(names, entry.Info.Name)
	}

	assert.ElementsMatch(t, []string{"a.txt", "sub"}, names)
	assert.Empty(t, src.Errors())
}

func TestNextEntryIsLastInFirstOut(t *testing.T) {
	t.Parallel()

	mem, root := testutil.MemFS(t, testutil.Tree{"one/": 0, "one/x.bin": 1, "two/": 0, "two/y.bin": 2})
	src := sequential.New(fsys.NewBilly(mem))

	src.Enqueue(du.Root, mem.Join(root, "one"))
	src.Enqueue(du.Root, mem.Join(root, "two"))

	first, ok := src.NextEntry()
	require.True(t, ok)
	assert.Equal(t, "y.bin", first.Info.Name, "entries of the latest listing come first")

	second, ok := src.NextEntry()
	require.True(t, ok)
	assert.Equal(t, "x.bin", second.Info.Name)

	_, ok = src.NextEntry()
	assert.False(t, ok)
}

func TestScenario(t *testing.T) {
	t.Parallel()

	for name, lister := range map[string]func(t *testing.T) (fsys.Lister, string){
		"os": func(t *testing.T) (fsys.Lister, string) {
			t.Helper()

			return fsys.OS{}, testutil.OSDir(t, testutil.Scenario())
		},
		"billy": func(t *testing.T) (fsys.Lister, string) {
			t.Helper()

			mem, root := testutil.MemFS(t, testutil.Scenario())

			return fsys.NewBilly(mem), root
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l, root := lister(t)
			drv := du.New(sequential.New(l))
			testutil.Drain(t, drv, root, 10*time.Second)

			stats := drv.Stats()
			assert.Equal(t, du.Info{Kind: du.KindDir, Size: 15, Files: 2, Dirs: 2}, stats.Head().Info())

			sig := testutil.Signature(stats)
			assert.Equal(t, du.Info{Name: "sub", Kind: du.KindDir, Size: 5, Files: 1, Dirs: 1}, sig["sub"])
			assert.Empty(t, drv.Errors())

			testutil.CheckAggregates(t, stats)
		})
	}
}

func TestEmptyRoot(t *testing.T) {
	t.Parallel()

	drv := du.New(sequential.New(fsys.OS{}))
	testutil.Drain(t, drv, testutil.OSDir(t, testutil.Tree{}), 10*time.Second)

	assert.Equal(t, du.Info{Kind: du.KindDir, Dirs: 1}, drv.Stats().Head().Info())
	assert.Empty(t, drv.Errors())
}

func TestUnreadableDirectory(t *testing.T) {
	t.Parallel()

	tree := testutil.Wide(3, 2, 1)
	tree["locked/"] = 0
	tree["locked/hidden.bin"] = 100

	mem, root := testutil.MemFS(t, tree)
	drv := du.New(sequential.New(fsys.NewBilly(testutil.NewFaulty(mem, "/root/locked"))))
	testutil.Drain(t, drv, root, 10*time.Second)

	head := drv.Stats().Head().Info()
	assert.Equal(t, uint32(2+3*2), head.Files, "readable siblings are fully aggregated")
	assert.Equal(t, uint32(1+3+1), head.Dirs, "locked itself is counted")
	assert.Equal(t, uint64(1+2+3*(1+2)), head.Size)

	require.Len(t, drv.Errors(), 1)
	require.ErrorIs(t, drv.Errors()[0], fs.ErrPermission)

	testutil.CheckAggregates(t, drv.Stats())
}

func TestUnreadableItem(t *testing.T) {
	t.Parallel()

	mem, root := testutil.MemFS(t, testutil.Scenario())
	drv := du.New(sequential.New(fsys.NewBilly(testutil.NewFaulty(mem).Break("/root/a.txt"))))
	testutil.Drain(t, drv, root, 10*time.Second)

	assert.Equal(t, du.Info{Kind: du.KindDir, Size: 5, Files: 1, Dirs: 2}, drv.Stats().Head().Info())
	require.Len(t, drv.Errors(), 1)
	require.ErrorIs(t, drv.Errors()[0], fs.ErrPermission)

	testutil.CheckAggregates(t, drv.Stats())
}

func TestUnreadableRoot(t *testing.T) {
	t.Parallel()

	mem, root := testutil.MemFS(t, testutil.Scenario())
	drv := du.New(sequential.New(fsys.NewBilly(testutil.NewFaulty(mem, root))))
	testutil.Drain(t, drv, root, 10*time.Second)

	assert.Equal(t, 1, drv.Stats().Len(), "tree is valid but empty")
	assert.Len(t, drv.Errors(), 1)
}
