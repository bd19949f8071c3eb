package layout

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/foodweb/pkg/core/web"
)

// Graph is the live view a [Refiner] reads from. [web.Store] satisfies it.
type Graph interface {
	HasNode(id int) bool
	Node(id int) (web.Node, bool)
	Neighbors(id int) []int
}

// Refiner improves a layout one node at a time between full solves.
//
// Touched nodes are served first, in the order they were touched. Every node
// ever touched is also kept in a round-robin queue, so all nodes are revisited
// when nothing urgent is pending. Nodes that have left the graph are dropped
// lazily when they come up.
type Refiner struct {
	urgent   []int
	isUrgent map[int]bool
	ring     []int
	inRing   map[int]bool
	rng      *rand.Rand

	dist  map[int]int
	queue []int
}

// NewRefiner creates a refiner whose coincident-point nudges are drawn from
// a generator seeded with seed.
func NewRefiner(seed uint64) *Refiner {
	return &Refiner{
		isUrgent: make(map[int]bool),
		inRing:   make(map[int]bool),
		rng:      rand.New(rand.NewPCG(seed, seed^0xdeadbeef)),
		dist:     make(map[int]int),
	}
}

// Touch marks nodes for priority refinement.
func (r *Refiner) Touch(ids ...int) {
	for _, id := range ids {
		if !r.isUrgent[id] {
			r.isUrgent[id] = true
			r.urgent = append(r.urgent, id)
		}
		r.enroll(id)
	}
}

// Pending returns the number of nodes waiting in the priority queue.
func (r *Refiner) Pending() int { return len(r.urgent) }

// Forget drops every queued node.
func (r *Refiner) Forget() {
	r.urgent = r.urgent[:0]
	r.ring = r.ring[:0]
	clear(r.isUrgent)
	clear(r.inRing)
}

func (r *Refiner) enroll(id int) {
	if !r.inRing[id] {
		r.inRing[id] = true
		r.ring = append(r.ring, id)
	}
}

// Next pops the next live node to refine. It returns false when no queued
// node remains in g.
func (r *Refiner) Next(g Graph) (int, bool) {
	for len(r.urgent) > 0 {
		id := r.urgent[0]
		r.urgent = r.urgent[1:]
		delete(r.isUrgent, id)
		if g.HasNode(id) {
			return id, true
		}
	}
	for len(r.ring) > 0 {
		id := r.ring[0]
		r.ring = r.ring[1:]
		if !g.HasNode(id) {
			delete(r.inRing, id)
			continue
		}
		r.ring = append(r.ring, id)
		return id, true
	}
	return 0, false
}

// Step refines the next queued node. It returns the node and its new
// position; ok is false when nothing could be refined, either because the
// queues are empty or the chosen node has no other node in its component.
func (r *Refiner) Step(g Graph) (id int, pos r2.Vec, ok bool) {
	id, ok = r.Next(g)
	if !ok {
		return 0, r2.Vec{}, false
	}
	pos, ok = r.Optimum(g, id)
	return id, pos, ok
}

// Optimum returns the position of id minimizing its stress contribution with
// every other node held fixed:
//
//	x_i = Σ_j w_ij (x_j + d_ij · (x_i − x_j)/‖x_i − x_j‖) / Σ_j w_ij
//
// over the nodes j of the same component, with w_ij = 1/d_ij².
func (r *Refiner) Optimum(g Graph, id int) (r2.Vec, bool) {
	self, ok := g.Node(id)
	if !ok {
		return r2.Vec{}, false
	}
	r.distances(g, id)

	var num r2.Vec
	den := 0.0
	for _, j := range r.queue[1:] {
		other, ok := g.Node(j)
		if !ok {
			continue
		}
		fd := float64(r.dist[j])
		w := 1 / (fd * fd)

		dir := r2.Sub(self.Pos, other.Pos)
		mag := r2.Norm(dir)
		if mag < 1e-12 {
			dir = randomUnit(r.rng, 1)
			mag = 1
		}
		target := r2.Add(other.Pos, r2.Scale(fd/mag, dir))
		num = r2.Add(num, r2.Scale(w, target))
		den += w
	}
	if den == 0 {
		return self.Pos, false
	}
	return r2.Scale(1/den, num), true
}

// distances fills r.dist with undirected hop counts from id and leaves the
// visit order in r.queue.
func (r *Refiner) distances(g Graph, id int) {
	clear(r.dist)
	r.dist[id] = 0
	r.queue = append(r.queue[:0], id)
	for head := 0; head < len(r.queue); head++ {
		u := r.queue[head]
		for _, w := range g.Neighbors(u) {
			if _, seen := r.dist[w]; seen {
				continue
			}
			r.dist[w] = r.dist[u] + 1
			r.queue = append(r.queue, w)
		}
	}
}
