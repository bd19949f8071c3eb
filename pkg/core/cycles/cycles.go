// Package cycles finds the longest simple directed cycle of a network.
//
// # Algorithm
//
// [Finder.Longest] runs a Johnson-style circuit search that keeps only the
// longest cycle instead of enumerating them all. Start vertices are taken in
// snapshot index order. For each start v:
//
//  1. The strongly connected component of v is the intersection of the set
//     reachable forward from v and the set reachable backward from v, both
//     restricted to vertices not yet deleted. Singleton components are
//     skipped since self-links are forbidden.
//  2. A depth-first search from v inside that component keeps the current
//     path on a stack and a blocked set. Reaching v again closes a cycle: a
//     longer one replaces the best cycle and resets the tie count to one, an
//     equally long one increments the tie count. When a branch closes at
//     least one cycle its vertex is unblocked, together with every vertex
//     recorded as depending on it; dead-end branches stay blocked and are
//     recorded as dependents of their neighbors.
//  3. v is deleted from the working graph.
//
// Every elementary cycle is visited exactly once (from its lowest-index
// vertex), so the tie count is exact.
//
// # Performance
//
// The number of elementary cycles, and hence the running time, is
// exponential in the worst case. Callers on an interactive path must run the
// search in the background.
package cycles

import "github.com/matzehuels/foodweb/pkg/core/web"

// Result describes the longest simple cycle. A graph without cycles has
// Length 0, a nil Cycle and Ties 0.
type Result struct {
	Length int
	Cycle  []int // node IDs in traversal order, starting at the lowest ID
	Ties   int   // number of distinct cycles with the maximum length
}

// Finder searches for the longest cycle. It owns its scratch buffers and may
// be reused across snapshots, but not shared between goroutines.
type Finder struct {
	snap *web.Snapshot

	alive   []bool
	fwd     []bool
	bwd     []bool
	inSCC   []bool
	blocked []bool
	deps    []map[int]struct{}
	stack   []int
	start   int

	best []int
	ties int
}

// NewFinder creates a reusable finder.
func NewFinder() *Finder { return &Finder{} }

// Longest returns the longest simple directed cycle in snap.
func (f *Finder) Longest(snap *web.Snapshot) Result {
	f.reset(snap)
	n := snap.Len()

	for v := range n {
		if f.component(v) > 1 {
			f.start = v
			f.stack = f.stack[:0]
			f.circuit(v)
		}
		f.alive[v] = false
	}

	res := Result{Length: len(f.best), Ties: f.ties}
	if len(f.best) > 0 {
		res.Cycle = snap.IDsOf(f.best)
	}
	f.snap = nil
	return res
}

func (f *Finder) reset(snap *web.Snapshot) {
	n := snap.Len()
	f.snap = snap
	f.alive = resize(f.alive, n)
	f.fwd = resize(f.fwd, n)
	f.bwd = resize(f.bwd, n)
	f.inSCC = resize(f.inSCC, n)
	f.blocked = resize(f.blocked, n)
	for i := range f.alive {
		f.alive[i] = true
	}
	if cap(f.deps) < n {
		f.deps = make([]map[int]struct{}, n)
	}
	f.deps = f.deps[:n]
	f.best = nil
	f.ties = 0
}

// component marks the strongly connected component of v among live vertices
// in f.inSCC, clears blocking state for its members and returns its size.
func (f *Finder) component(v int) int {
	web.Reach(f.snap.Out, v, f.fwd, f.alive)
	web.Reach(f.snap.In, v, f.bwd, f.alive)

	size := 0
	for i := range f.inSCC {
		f.inSCC[i] = f.fwd[i] && f.bwd[i]
		if f.inSCC[i] {
			size++
			f.blocked[i] = false
			if f.deps[i] != nil {
				clear(f.deps[i])
			}
		}
	}
	return size
}

func (f *Finder) circuit(u int) bool {
	found := false
	f.stack = append(f.stack, u)
	f.blocked[u] = true

	for _, w := range f.snap.Out[u] {
		if !f.inSCC[w] {
			continue
		}
		if w == f.start {
			f.record()
			found = true
		} else if !f.blocked[w] && f.circuit(w) {
			found = true
		}
	}

	if found {
		f.unblock(u)
	} else {
		for _, w := range f.snap.Out[u] {
			if !f.inSCC[w] {
				continue
			}
			if f.deps[w] == nil {
				f.deps[w] = make(map[int]struct{})
			}
			f.deps[w][u] = struct{}{}
		}
	}

	f.stack = f.stack[:len(f.stack)-1]
	return found
}

func (f *Finder) unblock(u int) {
	f.blocked[u] = false
	for w := range f.deps[u] {
		delete(f.deps[u], w)
		if f.blocked[w] {
			f.unblock(w)
		}
	}
}

func (f *Finder) record() {
	switch l := len(f.stack); {
	case l > len(f.best):
		f.best = append(f.best[:0], f.stack...)
		f.ties = 1
	case l == len(f.best):
		f.ties++
	}
}

func resize(b []bool, n int) []bool {
	if cap(b) < n {
		return make([]bool, n)
	}
	return b[:n]
}
