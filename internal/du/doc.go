// Package du computes recursive disk usage for a filesystem subtree.
//
// Discovered entries are appended to an arena (Stats) whose nodes carry
// aggregates that are updated incrementally on every insertion. Entries are
// produced by a pluggable Source and applied by a Driver, which also feeds
// discovered directories back to the source.
package du
