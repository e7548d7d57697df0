package fs

import (
	"time"

	"github.com/arctir/vkernel/internal/memory"
)

// NodeID is a stable arena key. The tree is strictly tree-shaped; nodes
// never share ownership, so NodeID (not a reference-counted pointer) is
// what every operation traverses by, per the design note on cyclic
// back-references in spec.md §9.
type NodeID int64

// noParent marks the root's parent slot; the root is the only node with it.
const noParent NodeID = -1

// RootName is the fixed sentinel name of the tree's root directory.
const RootName = "/"

type kind int

const (
	kindFile kind = iota
	kindDir
)

// node is one entry in the tree's arena. File and directory fields share
// the struct rather than an interface hierarchy, mirroring how the rest of
// this codebase prefers a tagged representation over dynamic dispatch
// (see the scheduler's Algorithm type).
type node struct {
	id         NodeID
	kind       kind
	name       string
	parent     NodeID
	createdAt  time.Time
	modifiedAt time.Time

	// file fields
	token    memory.Token
	hasToken bool
	size     int

	// directory fields, insertion order preserved
	childDirs  []NodeID
	childFiles []NodeID
}

func (n *node) isDir() bool  { return n.kind == kindDir }
func (n *node) isFile() bool { return n.kind == kindFile }
