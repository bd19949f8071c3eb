package graph

import (
	"cmp"
	"encoding/json"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/foodweb/pkg/core/web"
	errs "github.com/matzehuels/foodweb/pkg/errors"
)

// Capability flag names.
const (
	FlagSource = "source"
	FlagTarget = "target"
	FlagFocus  = "focus"
	FlagNone   = "none"
)

// =============================================================================
// Graph - Food Web Serialization
// =============================================================================

// Graph is the canonical serialization format for a food web, including its
// archive. Round trips through [ToStore] and [FromStore] are lossless.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Links []Link `json:"links" bson:"links"`
}

// Node is a serialized species.
type Node struct {
	ID       int      `json:"id" bson:"id"`
	Label    string   `json:"label,omitempty" bson:"label,omitempty"`
	Pos      *Point   `json:"pos,omitempty" bson:"pos,omitempty"`
	Focus    *Point3  `json:"focus,omitempty" bson:"focus,omitempty"`
	Flags    []string `json:"flags,omitempty" bson:"flags,omitempty"`
	Archived bool     `json:"archived,omitempty" bson:"archived,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the decimal ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return strconv.Itoa(n.ID)
}

// Link is a serialized feeding link from resource (Source) to consumer
// (Target). Archived is set on output for links held in the archive and
// ignored on input, where it follows from the archived endpoints.
type Link struct {
	Source    int  `json:"source" bson:"source"`
	Target    int  `json:"target" bson:"target"`
	Removable bool `json:"removable,omitempty" bson:"removable,omitempty"`
	Archived  bool `json:"archived,omitempty" bson:"archived,omitempty"`
}

// Point is a 2D position.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Point3 is a 3D position.
type Point3 struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	Z float64 `json:"z" bson:"z"`
}

// Labels returns the non-empty node labels keyed by node ID.
func (g Graph) Labels() map[int]string {
	labels := make(map[int]string)
	for _, n := range g.Nodes {
		if n.Label != "" {
			labels[n.ID] = n.Label
		}
	}
	return labels
}

// =============================================================================
// Store ↔ Graph Conversion
// =============================================================================

// ToStore builds a live store from g. Archived nodes are added, linked and
// then archived, so their links land in the archive exactly as they would
// interactively. Invalid input yields a coded error from pkg/errors.
func ToStore(g Graph) (*web.Store, error) {
	s := web.NewStore()

	for _, n := range g.Nodes {
		if err := errs.ValidateNodeID(n.ID); err != nil {
			return nil, err
		}
		if err := errs.ValidateLabel(n.Label); err != nil {
			return nil, err
		}
		if s.HasNode(n.ID) {
			return nil, errs.New(errs.ErrCodeInvalidNode, "duplicate node %d", n.ID)
		}
		flags, err := ParseFlags(n.Flags)
		if err != nil {
			return nil, err
		}

		node := web.Node{ID: n.ID, Flags: flags}
		if n.Pos != nil {
			node.Pos = r2.Vec{X: n.Pos.X, Y: n.Pos.Y}
		}
		if n.Focus != nil {
			node.Focus = r3.Vec{X: n.Focus.X, Y: n.Focus.Y, Z: n.Focus.Z}
			node.HasFocus = true
		}
		s.AddNode(node)
	}

	for _, l := range g.Links {
		if err := s.CanAddLink(l.Source, l.Target); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidLink, err, "link %d->%d", l.Source, l.Target)
		}
		s.AddLink(web.Link{Source: l.Source, Target: l.Target, Removable: l.Removable})
	}

	for _, n := range g.Nodes {
		if n.Archived {
			s.ArchiveNode(n.ID)
		}
	}
	s.MarkClean()
	return s, nil
}

// FromStore serializes every active and archived node and link of s.
// labels supplies display labels by node ID and may be nil.
func FromStore(s *web.Store, labels map[int]string) Graph {
	nodes := append(s.Nodes(), s.ArchivedNodes()...)
	slices.SortFunc(nodes, func(a, b web.Node) int { return cmp.Compare(a.ID, b.ID) })

	out := Graph{
		Nodes: make([]Node, len(nodes)),
		Links: []Link{},
	}
	for i, n := range nodes {
		out.Nodes[i] = nodeFromStore(n, labels[n.ID])
	}

	for _, l := range s.Links() {
		out.Links = append(out.Links, Link{Source: l.Source, Target: l.Target, Removable: l.Removable})
	}
	for _, l := range s.ArchivedLinks() {
		out.Links = append(out.Links, Link{Source: l.Source, Target: l.Target, Removable: l.Removable, Archived: true})
	}
	slices.SortFunc(out.Links, func(a, b Link) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Target, b.Target))
	})
	return out
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func nodeFromStore(n web.Node, label string) Node {
	out := Node{
		ID:       n.ID,
		Label:    label,
		Pos:      &Point{X: n.Pos.X, Y: n.Pos.Y},
		Flags:    formatFlags(n.Flags),
		Archived: n.State == web.Archived,
	}
	if n.HasFocus {
		out.Focus = &Point3{X: n.Focus.X, Y: n.Focus.Y, Z: n.Focus.Z}
	}
	return out
}

// ParseFlags converts flag names to capabilities. A nil slice grants every
// capability; [FlagNone] grants none.
func ParseFlags(names []string) (web.Flags, error) {
	if names == nil {
		return web.AllFlags, nil
	}
	var flags web.Flags
	for _, name := range names {
		switch name {
		case FlagSource:
			flags |= web.CanBeSource
		case FlagTarget:
			flags |= web.CanBeTarget
		case FlagFocus:
			flags |= web.CanBeFocused
		case FlagNone:
		default:
			return 0, errs.New(errs.ErrCodeInvalidNode, "unknown flag %q", name)
		}
	}
	return flags, nil
}

func formatFlags(flags web.Flags) []string {
	if flags == web.AllFlags {
		return nil
	}
	if flags == 0 {
		return []string{FlagNone}
	}
	var names []string
	if flags.Has(web.CanBeSource) {
		names = append(names, FlagSource)
	}
	if flags.Has(web.CanBeTarget) {
		names = append(names, FlagTarget)
	}
	if flags.Has(web.CanBeFocused) {
		names = append(names, FlagFocus)
	}
	return names
}
