package du

import (
	"path/filepath"
	"slices"
)

// NodeID is an arena-local handle to a Node in Stats.
//
// Ids are minted only by Stats.Push, so every id obtained from Stats is valid
// for it. Root is the only id that may be constructed by callers.
type NodeID int

// Root identifies the root node of every Stats.
const Root NodeID = 0

// Node is a single entry in the tree together with its aggregate.
type Node struct {
	info     Info
	parent   NodeID
	children []NodeID
}

// Info returns the aggregate of the node and all its descendants.
func (n *Node) Info() Info {
	return n.info
}

// ParentID returns the parent id. The root is its own parent.
func (n *Node) ParentID() NodeID {
	return n.parent
}

// Children returns child ids in insertion order. The slice must not be modified.
func (n *Node) Children() []NodeID {
	return n.children
}

// Stats is an append-only arena holding the aggregated tree.
//
// Nodes are never removed or reindexed. Push is not safe for concurrent use;
// the tree is mutated only by the goroutine that owns the Driver.
type Stats struct {
	nodes []Node
}

// NewStats creates an arena holding a single root directory with an empty name.
func NewStats() *Stats {
	return &Stats{
		nodes: []Node{{info: NewInfo("", KindDir, 0), parent: Root}},
	}
}

// Len returns the number of nodes, including the root.
func (s *Stats) Len() int {
	return len(s.nodes)
}

// Head returns the root node.
func (s *Stats) Head() *Node {
	return &s.nodes[Root]
}

// Node returns the node referenced by id.
func (s *Stats) Node(id NodeID) *Node {
	return &s.nodes[id]
}

// Parent returns the node referenced by id's parent link.
func (s *Stats) Parent(id NodeID) *Node {
	return &s.nodes[s.nodes[id].parent]
}

// Push inserts info as a new child of parent and adds it to the aggregate of
// parent and every ancestor up to and including the root.
func (s *Stats) Push(parent NodeID, info Info) NodeID {
	id := NodeID(len(s.nodes))
	s.nodes[parent].children = append(s.nodes[parent].children, id)

	p := parent
	for p != s.nodes[p].parent {
		s.nodes[p].info.apply(info)
		p = s.nodes[p].parent
	}

	s.nodes[p].info.apply(info)

	s.nodes = append(s.nodes, Node{info: info, parent: parent})

	return id
}

// Path returns the path of id relative to the root, joined from node names.
// The root itself yields an empty string.
func (s *Stats) Path(id NodeID) string {
	var names []string

	for id != Root {
		names = append(names, s.nodes[id].info.Name)
		id = s.nodes[id].parent
	}

	slices.Reverse(names)

	return filepath.Join(names...)
}

// Depth returns the number of links between id and the root.
func (s *Stats) Depth(id NodeID) int {
	depth := 0

	for id != Root {
		depth++
		id = s.nodes[id].parent
	}

	return depth
}
