// Package census computes flat totals for a directory tree.
//
// It walks directory trees using fastwalk for parallel traversal and counts
// files, directories and other entries without building a tree. The result
// is used to cross-check the aggregates computed by package du.
package census
