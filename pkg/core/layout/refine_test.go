package layout

import (
	"math"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/foodweb/pkg/core/web"
)

func pathStore(pos ...r2.Vec) *web.Store {
	s := web.NewStore()
	for i, p := range pos {
		s.AddNode(web.Node{ID: i, Pos: p, Flags: web.AllFlags})
		if i > 0 {
			s.AddLink(web.Link{Source: i - 1, Target: i})
		}
	}
	return s
}

func TestOptimumMiddleOfPath(t *testing.T) {
	s := pathStore(r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 3}, r2.Vec{X: 2, Y: 0})
	got, ok := NewRefiner(1).Optimum(s, 1)
	if !ok {
		t.Fatal("Optimum reported no move")
	}

	want := r2.Vec{X: 1, Y: 3 / math.Sqrt(10)}
	if r2.Norm(r2.Sub(got, want)) > 1e-9 {
		t.Errorf("Optimum = %v, want %v", got, want)
	}
}

func TestOptimumFixedPoint(t *testing.T) {
	s := pathStore(r2.Vec{X: 0}, r2.Vec{X: 1}, r2.Vec{X: 2})
	for id := range 3 {
		got, _ := NewRefiner(1).Optimum(s, id)
		n, _ := s.Node(id)
		if r2.Norm(r2.Sub(got, n.Pos)) > 1e-9 {
			t.Errorf("node %d moved from %v to %v", id, n.Pos, got)
		}
	}
}

func TestOptimumCoincidentNodes(t *testing.T) {
	s := pathStore(r2.Vec{}, r2.Vec{})
	got, ok := NewRefiner(3).Optimum(s, 1)
	if !ok {
		t.Fatal("Optimum reported no move")
	}
	if math.IsNaN(got.X) || math.IsNaN(got.Y) {
		t.Fatalf("Optimum = %v", got)
	}
	if d := r2.Norm(got); math.Abs(d-1) > 1e-9 {
		t.Errorf("distance from neighbor = %v, want 1", d)
	}
}

func TestOptimumIsolated(t *testing.T) {
	s := web.NewStore()
	s.AddNode(web.Node{ID: 7, Pos: r2.Vec{X: 3, Y: 4}})
	if _, ok := NewRefiner(1).Optimum(s, 7); ok {
		t.Error("isolated node should not move")
	}
	if _, ok := NewRefiner(1).Optimum(s, 8); ok {
		t.Error("unknown node should not move")
	}
}

func TestRefinerOrder(t *testing.T) {
	s := pathStore(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 2}, r2.Vec{X: 3})
	r := NewRefiner(1)
	r.Touch(2, 0)
	r.Touch(3, 2)

	var got []int
	for range 7 {
		id, ok := r.Next(s)
		if !ok {
			t.Fatal("queue ran dry")
		}
		got = append(got, id)
	}
	// Urgent first in touch order, then round-robin over everything enrolled.
	want := []int{2, 0, 3, 2, 0, 3, 2}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
}

func TestRefinerDropsDeparted(t *testing.T) {
	s := pathStore(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: 2})
	r := NewRefiner(1)
	r.Touch(0, 1)
	s.ArchiveNode(0)

	for range 3 {
		id, ok := r.Next(s)
		if !ok || id != 1 {
			t.Fatalf("Next() = %d, %v, want 1", id, ok)
		}
	}

	s.ArchiveNode(1)
	if _, ok := r.Next(s); ok {
		t.Error("Next() should report an empty queue")
	}
}

func TestRefinerReducesStress(t *testing.T) {
	s := pathStore(
		r2.Vec{X: 0, Y: 0},
		r2.Vec{X: 4, Y: 4},
		r2.Vec{X: -3, Y: 1},
		r2.Vec{X: 2, Y: -5},
	)
	snap := s.Snapshot()
	solver := NewSolver(Options{})
	stress := func() float64 {
		pos := make([]r2.Vec, snap.Len())
		for i, id := range snap.IDs {
			n, _ := s.Node(id)
			pos[i] = n.Pos
		}
		return solver.Stress(snap, pos)
	}

	r := NewRefiner(1)
	r.Touch(0, 1, 2, 3)
	before := stress()
	for range 40 {
		id, pos, ok := r.Step(s)
		if ok {
			s.SetPosition(id, pos)
		}
	}
	if after := stress(); after >= before {
		t.Errorf("stress went from %.4f to %.4f", before, after)
	}
}
