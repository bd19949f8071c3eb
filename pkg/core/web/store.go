package web

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

type set map[int]struct{}

// Store holds the active network and its archive.
//
// The zero value is not usable - use [NewStore]. Store is not safe for
// concurrent use.
type Store struct {
	nodes    map[int]*Node
	archived map[int]*Node

	links         map[Pair]*Link
	archivedLinks map[Pair]*Link

	out  map[int]set // source -> targets
	in   map[int]set // target -> sources
	nbrs map[int]set // symmetric view

	version uint64
	dirty   bool
	subs    []func(Mutation)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		nodes:         make(map[int]*Node),
		archived:      make(map[int]*Node),
		links:         make(map[Pair]*Link),
		archivedLinks: make(map[Pair]*Link),
		out:           make(map[int]set),
		in:            make(map[int]set),
		nbrs:          make(map[int]set),
	}
}

// Subscribe registers fn to be called synchronously after every successful
// structural mutation. Subscribers must not mutate the store.
func (s *Store) Subscribe(fn func(Mutation)) {
	if fn != nil {
		s.subs = append(s.subs, fn)
	}
}

// Version returns a counter incremented by every structural mutation.
func (s *Store) Version() uint64 { return s.version }

// Dirty reports whether the store changed since the last [Store.MarkClean].
func (s *Store) Dirty() bool { return s.dirty }

// MarkClean clears the dirty flag. The engine calls it when it captures a
// snapshot for recomputation.
func (s *Store) MarkClean() { s.dirty = false }

func (s *Store) commit(m Mutation) {
	s.version++
	s.dirty = true
	m.Version = s.version
	for _, fn := range s.subs {
		fn(m)
	}
}

// =============================================================================
// Node mutations
// =============================================================================

// AddNode inserts n as an active node. It panics with [ErrDuplicateNode] if
// the ID belongs to an active or archived node.
func (s *Store) AddNode(n Node) {
	if s.hasID(n.ID) {
		panic(fmt.Errorf("add node %d: %w", n.ID, ErrDuplicateNode))
	}
	n.State = Active
	node := &n
	s.nodes[n.ID] = node
	s.out[n.ID] = make(set)
	s.in[n.ID] = make(set)
	s.nbrs[n.ID] = make(set)
	s.commit(Mutation{Kind: NodeAdded, Node: n.ID, Touched: []int{n.ID}})
}

// ArchiveNode soft-deletes an active node. All incident links move to the
// archive and the node disappears from every neighbor set.
func (s *Store) ArchiveNode(id int) {
	node, ok := s.nodes[id]
	if !ok {
		panic(fmt.Errorf("archive node %d: %w", id, ErrUnknownNode))
	}

	touched := s.sortedNeighbors(id)
	for _, p := range s.incidentPairs(id) {
		s.archivedLinks[p] = s.links[p]
		s.unlink(p)
	}
	delete(s.out, id)
	delete(s.in, id)
	delete(s.nbrs, id)
	delete(s.nodes, id)

	node.State = Archived
	s.archived[id] = node
	s.commit(Mutation{Kind: NodeArchived, Node: id, Touched: touched})
}

// RestoreNode brings an archived node back. Archived links incident to it are
// reinstated when their other endpoint is active; links to nodes that are
// still archived stay in the archive.
func (s *Store) RestoreNode(id int) {
	node, ok := s.archived[id]
	if !ok {
		if _, active := s.nodes[id]; active {
			panic(fmt.Errorf("restore node %d: %w", id, ErrNotArchived))
		}
		panic(fmt.Errorf("restore node %d: %w", id, ErrUnknownNode))
	}

	delete(s.archived, id)
	node.State = Active
	s.nodes[id] = node
	s.out[id] = make(set)
	s.in[id] = make(set)
	s.nbrs[id] = make(set)

	for _, p := range sortedPairs(s.archivedLinks) {
		if p.Source != id && p.Target != id {
			continue
		}
		other := p.Target
		if other == id {
			other = p.Source
		}
		if _, active := s.nodes[other]; !active {
			continue
		}
		s.link(s.archivedLinks[p])
		delete(s.archivedLinks, p)
	}

	touched := append([]int{id}, s.sortedNeighbors(id)...)
	s.commit(Mutation{Kind: NodeRestored, Node: id, Touched: touched})
}

// RemoveNodePermanently destroys an active or archived node together with
// every active or archived link that references it. The ID becomes free.
func (s *Store) RemoveNodePermanently(id int) {
	if !s.hasID(id) {
		panic(fmt.Errorf("remove node %d: %w", id, ErrUnknownNode))
	}

	var touched []int
	if _, active := s.nodes[id]; active {
		touched = s.sortedNeighbors(id)
		for _, p := range s.incidentPairs(id) {
			s.unlink(p)
		}
		delete(s.out, id)
		delete(s.in, id)
		delete(s.nbrs, id)
		delete(s.nodes, id)
	}
	delete(s.archived, id)
	for p := range s.archivedLinks {
		if p.Source == id || p.Target == id {
			delete(s.archivedLinks, p)
		}
	}
	s.commit(Mutation{Kind: NodeRemoved, Node: id, Touched: touched})
}

// =============================================================================
// Link mutations
// =============================================================================

// AddLink inserts a directed link between two active nodes. It panics on
// unknown endpoints, self-links, duplicates and reverse duplicates.
func (s *Store) AddLink(l Link) {
	if err := s.checkAddLink(l.Source, l.Target); err != nil {
		panic(fmt.Errorf("add link %d->%d: %w", l.Source, l.Target, err))
	}
	s.link(&l)
	s.commit(Mutation{
		Kind:    LinkAdded,
		Source:  l.Source,
		Target:  l.Target,
		Touched: []int{l.Source, l.Target},
	})
}

// RemoveLink deletes the active link source->target. It panics with
// [ErrUnknownLink] if no such link exists.
func (s *Store) RemoveLink(source, target int) {
	p := Pair{source, target}
	if _, ok := s.links[p]; !ok {
		panic(fmt.Errorf("remove link %d->%d: %w", source, target, ErrUnknownLink))
	}
	s.unlink(p)
	s.commit(Mutation{
		Kind:    LinkRemoved,
		Source:  source,
		Target:  target,
		Touched: []int{source, target},
	})
}

func (s *Store) link(l *Link) {
	s.links[l.Pair()] = l
	s.out[l.Source][l.Target] = struct{}{}
	s.in[l.Target][l.Source] = struct{}{}
	s.nbrs[l.Source][l.Target] = struct{}{}
	s.nbrs[l.Target][l.Source] = struct{}{}
}

func (s *Store) unlink(p Pair) {
	delete(s.links, p)
	delete(s.out[p.Source], p.Target)
	delete(s.in[p.Target], p.Source)
	delete(s.nbrs[p.Source], p.Target)
	delete(s.nbrs[p.Target], p.Source)
}

// =============================================================================
// Guards
// =============================================================================

// HasNode reports whether id is an active node.
func (s *Store) HasNode(id int) bool {
	_, ok := s.nodes[id]
	return ok
}

// IsArchived reports whether id is an archived node.
func (s *Store) IsArchived(id int) bool {
	_, ok := s.archived[id]
	return ok
}

// HasLink reports whether the active link source->target exists.
func (s *Store) HasLink(source, target int) bool {
	_, ok := s.links[Pair{source, target}]
	return ok
}

// CanAddLink returns the error [Store.AddLink] would panic with, or nil.
func (s *Store) CanAddLink(source, target int) error {
	return s.checkAddLink(source, target)
}

// CanRemoveLink returns [ErrUnknownLink] if the link is absent, or nil.
// Whether a link is removable by a user is recorded in [Link.Removable] and
// left to the caller.
func (s *Store) CanRemoveLink(source, target int) error {
	if !s.HasLink(source, target) {
		return ErrUnknownLink
	}
	return nil
}

func (s *Store) checkAddLink(source, target int) error {
	if !s.HasNode(source) || !s.HasNode(target) {
		return ErrUnknownNode
	}
	if source == target {
		return ErrSelfLink
	}
	if s.HasLink(source, target) {
		return ErrDuplicateLink
	}
	if s.HasLink(target, source) {
		return ErrBidirectionalLink
	}
	return nil
}

func (s *Store) hasID(id int) bool {
	return s.HasNode(id) || s.IsArchived(id)
}

// =============================================================================
// Queries
// =============================================================================

// Node returns a copy of the active or archived node with the given ID.
func (s *Store) Node(id int) (Node, bool) {
	if n, ok := s.nodes[id]; ok {
		return *n, true
	}
	if n, ok := s.archived[id]; ok {
		return *n, true
	}
	return Node{}, false
}

// Nodes returns copies of all active nodes sorted by ID.
func (s *Store) Nodes() []Node {
	return sortedNodes(s.nodes)
}

// ArchivedNodes returns copies of all archived nodes sorted by ID.
func (s *Store) ArchivedNodes() []Node {
	return sortedNodes(s.archived)
}

// NodeCount returns the number of active nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// LinkCount returns the number of active links.
func (s *Store) LinkCount() int { return len(s.links) }

// Link returns the active link source->target.
func (s *Store) Link(source, target int) (Link, bool) {
	l, ok := s.links[Pair{source, target}]
	if !ok {
		return Link{}, false
	}
	return *l, true
}

// Links returns all active links sorted by (source, target).
func (s *Store) Links() []Link {
	return linkValues(s.links, sortedPairs(s.links))
}

// ArchivedLinks returns all archived links sorted by (source, target).
func (s *Store) ArchivedLinks() []Link {
	return linkValues(s.archivedLinks, sortedPairs(s.archivedLinks))
}

// IncidentLinks returns every active and archived link touching id, active
// links first, each group sorted by (source, target).
func (s *Store) IncidentLinks(id int) []Link {
	var out []Link
	for _, group := range []map[Pair]*Link{s.links, s.archivedLinks} {
		for _, p := range sortedPairs(group) {
			if p.Source == id || p.Target == id {
				out = append(out, *group[p])
			}
		}
	}
	return out
}

// OutNeighbors returns the sorted targets of links leaving id (consumers).
func (s *Store) OutNeighbors(id int) []int { return sortedSet(s.out[id]) }

// InNeighbors returns the sorted sources of links entering id (resources).
func (s *Store) InNeighbors(id int) []int { return sortedSet(s.in[id]) }

// Neighbors returns the sorted undirected neighbors of id.
func (s *Store) Neighbors(id int) []int { return s.sortedNeighbors(id) }

// SetPosition updates the stress position of an active node. It is not a
// structural mutation and does not mark the store dirty.
func (s *Store) SetPosition(id int, pos r2.Vec) {
	n, ok := s.nodes[id]
	if !ok {
		panic(fmt.Errorf("set position %d: %w", id, ErrUnknownNode))
	}
	n.Pos = pos
}

// SetFocus records the 3D focus position of an active node.
func (s *Store) SetFocus(id int, focus r3.Vec) {
	n, ok := s.nodes[id]
	if !ok {
		panic(fmt.Errorf("set focus %d: %w", id, ErrUnknownNode))
	}
	n.Focus = focus
	n.HasFocus = true
}

func (s *Store) sortedNeighbors(id int) []int { return sortedSet(s.nbrs[id]) }

func (s *Store) incidentPairs(id int) []Pair {
	var pairs []Pair
	for t := range s.out[id] {
		pairs = append(pairs, Pair{id, t})
	}
	for src := range s.in[id] {
		pairs = append(pairs, Pair{src, id})
	}
	return pairs
}

func sortedSet(m set) []int {
	if len(m) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(m))
}

func sortedNodes(m map[int]*Node) []Node {
	out := make([]Node, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		out = append(out, *m[id])
	}
	return out
}

func sortedPairs(m map[Pair]*Link) []Pair {
	return slices.SortedFunc(maps.Keys(m), comparePairs)
}

func comparePairs(a, b Pair) int {
	if c := cmp.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.Target, b.Target)
}

func linkValues(m map[Pair]*Link, pairs []Pair) []Link {
	out := make([]Link, len(pairs))
	for i, p := range pairs {
		out[i] = *m[p]
	}
	return out
}
