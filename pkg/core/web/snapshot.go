package web

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Snapshot is an immutable, index-addressed view of the active graph.
//
// Nodes are indexed 0..Len()-1 in ascending ID order. All adjacency lists
// hold indices and are sorted, so every traversal over a snapshot visits
// nodes in a deterministic order.
type Snapshot struct {
	Version uint64

	IDs   []int       // index -> node ID
	Index map[int]int // node ID -> index
	Pos   []r2.Vec    // stress positions at capture time

	Out        [][]int // index -> consumer indices
	In         [][]int // index -> resource indices
	Undirected [][]int // index -> neighbor indices
}

// Snapshot captures the active graph. The result shares no memory with the
// store.
func (s *Store) Snapshot() *Snapshot {
	ids := slices.Sorted(maps.Keys(s.nodes))
	snap := &Snapshot{
		Version:    s.version,
		IDs:        ids,
		Index:      make(map[int]int, len(ids)),
		Pos:        make([]r2.Vec, len(ids)),
		Out:        make([][]int, len(ids)),
		In:         make([][]int, len(ids)),
		Undirected: make([][]int, len(ids)),
	}
	for i, id := range ids {
		snap.Index[id] = i
		snap.Pos[i] = s.nodes[id].Pos
	}
	for i, id := range ids {
		snap.Out[i] = snap.indices(s.out[id])
		snap.In[i] = snap.indices(s.in[id])
		snap.Undirected[i] = snap.indices(s.nbrs[id])
	}
	return snap
}

// NewSnapshot builds a snapshot directly from node IDs and links. It is a
// convenience for solver tests and batch tools that never need a [Store].
// Links naming unknown IDs are ignored.
func NewSnapshot(ids []int, links []Link) *Snapshot {
	s := NewStore()
	for _, id := range ids {
		s.AddNode(Node{ID: id, Flags: AllFlags})
	}
	for _, l := range links {
		if s.CanAddLink(l.Source, l.Target) == nil {
			s.AddLink(l)
		}
	}
	return s.Snapshot()
}

func (snap *Snapshot) indices(m set) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, snap.Index[id])
	}
	slices.Sort(out)
	return out
}

// Len returns the number of nodes in the snapshot.
func (snap *Snapshot) Len() int { return len(snap.IDs) }

// LinkCount returns the number of directed links in the snapshot.
func (snap *Snapshot) LinkCount() int {
	n := 0
	for _, o := range snap.Out {
		n += len(o)
	}
	return n
}

// Adjacency returns the adjacency lists for the given traversal direction.
func (snap *Snapshot) Adjacency(dir Direction) [][]int {
	switch dir {
	case Forward:
		return snap.Out
	case Backward:
		return snap.In
	default:
		return snap.Undirected
	}
}

// Basal returns the indices of nodes without incoming links, in index order.
func (snap *Snapshot) Basal() []int {
	var out []int
	for i, in := range snap.In {
		if len(in) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Distances runs a breadth-first search from index src in the given
// direction. dist is reused if it has the right length.
func (snap *Snapshot) Distances(src int, dir Direction, dist []int) []int {
	return BFS(snap.Adjacency(dir), []int{src}, dist, nil)
}

// IDsOf maps a slice of indices to node IDs.
func (snap *Snapshot) IDsOf(indices []int) []int {
	if indices == nil {
		return nil
	}
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = snap.IDs[idx]
	}
	return out
}
