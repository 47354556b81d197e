package du

import "io/fs"

// Kind classifies a filesystem entry.
type Kind uint8

const (
	// KindOther is anything that is neither a directory nor a regular file (symlinks, devices, sockets).
	KindOther Kind = iota
	// KindDir is a directory.
	KindDir
	// KindFile is a regular file.
	KindFile
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "other"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindFromMode derives the Kind from a file mode as reported by lstat.
func KindFromMode(mode fs.FileMode) Kind {
	switch {
	case mode.IsDir():
		return KindDir
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// Info is the aggregate carried by every node.
//
// For a freshly produced entry it describes the entry alone: Size is its own
// size and exactly one of Files, Dirs or Other is 1. Once pushed into Stats,
// the counters of every ancestor also include it.
//
// Counters are not checked for overflow; trees with more than 2^32 entries of
// one kind wrap around.
type Info struct {
	// Name is the terminal path component.
	Name string `json:"name" yaml:"name"`
	// Kind is the entry classification.
	Kind Kind `json:"kind" yaml:"kind"`
	// Size is the cumulative size in bytes.
	Size uint64 `json:"size" yaml:"size"`
	// Files counts regular files, including self.
	Files uint32 `json:"files" yaml:"files"`
	// Dirs counts directories, including self.
	Dirs uint32 `json:"dirs" yaml:"dirs"`
	// Other counts remaining entries, including self.
	Other uint32 `json:"other" yaml:"other"`
}

// NewInfo creates the leaf contribution of a single entry.
func NewInfo(name string, kind Kind, size uint64) Info {
	info := Info{Name: name, Kind: kind, Size: size}

	switch kind {
	case KindDir:
		info.Dirs = 1
	case KindFile:
		info.Files = 1
	default:
		info.Other = 1
	}

	return info
}

// Entries returns the total number of entries counted, including self.
func (i Info) Entries() uint64 {
	return uint64(i.Files) + uint64(i.Dirs) + uint64(i.Other)
}

// apply adds the size and counters of other into i.
func (i *Info) apply(other Info) {
	i.Size += other.Size
	i.Files += other.Files
	i.Dirs += other.Dirs
	i.Other += other.Other
}

// Entry is a discovered filesystem entry awaiting insertion into Stats.
type Entry struct {
	// Parent is the node the entry is inserted under.
	Parent NodeID
	// Info is the leaf contribution of the entry.
	Info Info
	// Path is the full path, used to list the entry if it is a directory.
	Path string

	release func()
}

// NewEntry creates an Entry.
func NewEntry(parent NodeID, info Info, path string) Entry {
	return Entry{Parent: parent, Info: info, Path: path}
}

// OnRelease returns a copy of e that calls fn when released.
// Sources use it to learn when the driver is done with an entry.
func (e Entry) OnRelease(fn func()) Entry {
	e.release = fn

	return e
}

// Release signals that the entry has been applied and its follow-up task, if
// any, has been enqueued. It is a no-op for entries without a release hook.
func (e Entry) Release() {
	if e.release != nil {
		e.release()
	}
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Info.Kind == KindDir
}
