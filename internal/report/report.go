// Package report turns an aggregated tree into a display model.
package report

import (
	"cmp"
	"path/filepath"
	"slices"
	"time"

	"github.com/idelchi/dutree/internal/census"
	"github.com/idelchi/dutree/internal/du"
)

// Options controls which part of the tree is reported.
type Options struct {
	// Root is the path the traversal started at; item paths are joined to it.
	Root string
	// Depth is the number of levels below the root to include (0=only the root totals).
	Depth int
	// Top is the number of largest children kept per directory (0=all).
	Top int
}

// Item is a reported node.
type Item struct {
	// Path is the node path, joined to Options.Root.
	Path string `json:"path" yaml:"path"`
	// Info is the aggregate of the node.
	Info du.Info `json:"info" yaml:"info"`
	// Children are the largest children, biggest first.
	Children []Item `json:"children,omitempty" yaml:"children,omitempty"`
}

// Report is the display model handed to formatters.
type Report struct {
	// Root is the reported tree.
	Root Item `json:"root" yaml:"root"`
	// Errors are the filesystem errors collected during traversal.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	// Entries is the number of nodes in the tree, root included.
	Entries int `json:"entries" yaml:"entries"`
	// Elapsed is the time taken by the traversal.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	// Strategy names the traversal source.
	Strategy string `json:"strategy" yaml:"strategy"`
	// Census holds the cross-check totals, if requested.
	Census *census.Totals `json:"census,omitempty" yaml:"census,omitempty"`
	// Mismatch lists the fields in which the census disagrees with the tree.
	Mismatch []string `json:"mismatch,omitempty" yaml:"mismatch,omitempty"`
}

// Build creates the report for stats.
func Build(stats *du.Stats, errs []error, opts Options) *Report {
	rep := &Report{
		Root:    build(stats, du.Root, opts),
		Entries: stats.Len(),
	}

	for _, err := range errs {
		rep.Errors = append(rep.Errors, err.Error())
	}

	return rep
}

// WithCensus attaches census totals and records any disagreement with the tree.
func (r *Report) WithCensus(totals *census.Totals) *Report {
	r.Census = totals
	r.Mismatch = census.FromInfo(r.Root.Info).Diff(*totals)

	return r
}

// Directories returns the paths of every reported directory, biggest first.
func (r *Report) Directories() []string {
	var items []Item

	var collect func(Item)

	collect = func(item Item) {
		if item.Info.Kind == du.KindDir {
			items = append(items, item)
		}

		for _, child := range item.Children {
			collect(child)
		}
	}

	collect(r.Root)

	slices.SortStableFunc(items, bySize)

	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.Path)
	}

	return paths
}

func build(stats *du.Stats, id du.NodeID, opts Options) Item {
	node := stats.Node(id)

	item := Item{
		Path: filepath.Join(opts.Root, stats.Path(id)),
		Info: node.Info(),
	}

	if item.Path == "" {
		item.Path = "."
	}

	if stats.Depth(id) >= opts.Depth {
		return item
	}

	ids := slices.Clone(node.Children())
	slices.SortFunc(ids, func(a, b du.NodeID) int {
		return byInfo(stats.Node(a).Info(), stats.Node(b).Info())
	})

	if opts.Top > 0 && len(ids) > opts.Top {
		ids = ids[:opts.Top]
	}

	children := make([]Item, 0, len(ids))
	for _, child := range ids {
		children = append(children, build(stats, child, opts))
	}

	item.Children = children

	return item
}

// bySize orders items by size descending, then by name.
func bySize(a, b Item) int {
	return byInfo(a.Info, b.Info)
}

func byInfo(a, b du.Info) int {
	if c := cmp.Compare(b.Size, a.Size); c != 0 {
		return c
	}

	return cmp.Compare(a.Name, b.Name)
}
