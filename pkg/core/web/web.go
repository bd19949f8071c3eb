package web

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDuplicateNode is raised by [Store.AddNode] when the ID is already in
	// use by an active or archived node.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrUnknownNode is raised when an operation names a node that is not
	// active (or, for [Store.RestoreNode], not archived).
	ErrUnknownNode = errors.New("unknown node")

	// ErrNotArchived is raised by [Store.RestoreNode] for a node that is not
	// in the archive.
	ErrNotArchived = errors.New("node is not archived")

	// ErrSelfLink is raised by [Store.AddLink] when source and target match.
	ErrSelfLink = errors.New("self-link")

	// ErrDuplicateLink is raised by [Store.AddLink] when the ordered pair is
	// already linked.
	ErrDuplicateLink = errors.New("duplicate link")

	// ErrBidirectionalLink is raised by [Store.AddLink] when the reverse link
	// already exists.
	ErrBidirectionalLink = errors.New("reverse link exists")

	// ErrUnknownLink is raised by [Store.RemoveLink] when the link is absent.
	ErrUnknownLink = errors.New("unknown link")
)

// State is the lifecycle state of a node.
type State int

const (
	// Active nodes take part in every query and solver.
	Active State = iota
	// Archived nodes are soft-deleted and only reachable through the archive.
	Archived
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Archived:
		return "archived"
	default:
		return "unknown"
	}
}

// Flags are node capabilities consulted by interactive front ends.
type Flags uint8

const (
	// CanBeSource marks nodes that may be the resource end of a new link.
	CanBeSource Flags = 1 << iota
	// CanBeTarget marks nodes that may be the consumer end of a new link.
	CanBeTarget
	// CanBeFocused marks nodes that may become the interaction focus.
	CanBeFocused

	// AllFlags grants every capability.
	AllFlags = CanBeSource | CanBeTarget | CanBeFocused
)

// Has reports whether every bit of f is set.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Node is a species in the interaction network.
//
// Pos is the layout output and is written by the engine. Focus is an
// alternate 3D position owned by interactive front ends; the core never
// reads it.
type Node struct {
	ID       int
	Pos      r2.Vec
	Focus    r3.Vec
	HasFocus bool
	Flags    Flags
	State    State
}

// Link is a directed feeding relation from Source (resource) to Target
// (consumer).
type Link struct {
	Source    int
	Target    int
	Removable bool
}

// Pair returns the ordered (source, target) key of the link.
func (l Link) Pair() Pair { return Pair{l.Source, l.Target} }

// Pair is an ordered (source, target) adjacency key.
type Pair struct {
	Source int
	Target int
}

// MutationKind identifies a structural change reported to subscribers.
type MutationKind int

const (
	NodeAdded MutationKind = iota
	NodeArchived
	NodeRestored
	NodeRemoved
	LinkAdded
	LinkRemoved
)

func (k MutationKind) String() string {
	switch k {
	case NodeAdded:
		return "node-added"
	case NodeArchived:
		return "node-archived"
	case NodeRestored:
		return "node-restored"
	case NodeRemoved:
		return "node-removed"
	case LinkAdded:
		return "link-added"
	case LinkRemoved:
		return "link-removed"
	default:
		return "unknown"
	}
}

// Mutation describes one successful structural change. Node is set for node
// mutations; Source and Target for link mutations. Touched lists every active
// node whose neighborhood changed.
type Mutation struct {
	Kind    MutationKind
	Node    int
	Source  int
	Target  int
	Version uint64
	Touched []int
}
