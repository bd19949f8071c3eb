package trophic

import (
	"math"
	"slices"
	"testing"

	"github.com/matzehuels/foodweb/pkg/core/web"
)

func path(n int) *web.Snapshot {
	ids := make([]int, n)
	var links []web.Link
	for i := range n {
		ids[i] = i
		if i > 0 {
			links = append(links, web.Link{Source: i - 1, Target: i})
		}
	}
	return web.NewSnapshot(ids, links)
}

func TestSolvePath(t *testing.T) {
	for _, n := range []int{1, 2, 5, 12} {
		res := NewSolver(Options{}).Solve(path(n))

		if res.Degenerate {
			t.Fatalf("n=%d: path must not be degenerate", n)
		}
		if !res.Converged {
			t.Errorf("n=%d: not converged after %d iterations", n, res.Iterations)
		}
		if res.MaxHeight != n-1 {
			t.Errorf("n=%d: MaxHeight = %d, want %d", n, res.MaxHeight, n-1)
		}
		if !slices.Equal(res.Tallest, []int{n - 1}) {
			t.Errorf("n=%d: Tallest = %v, want [%d]", n, res.Tallest, n-1)
		}
		for i, l := range res.Levels {
			if l != float64(i+1) {
				t.Errorf("n=%d: level[%d] = %v, want %d", n, i, l, i+1)
			}
		}
		if res.Rescaled {
			t.Errorf("n=%d: path levels should not be rescaled", n)
		}
	}
}

func TestSolveThreeCycleIsDegenerate(t *testing.T) {
	snap := web.NewSnapshot([]int{0, 1, 2}, []web.Link{
		{Source: 0, Target: 1},
		{Source: 1, Target: 2},
		{Source: 2, Target: 0},
	})
	res := NewSolver(Options{MaxIterations: 50}).Solve(snap)

	if !res.Degenerate {
		t.Fatal("3-cycle without basal node must be degenerate")
	}
	if res.Converged {
		t.Error("3-cycle should not converge")
	}
	for i, l := range res.Levels {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			t.Errorf("level[%d] = %v, want finite", i, l)
		}
	}
}

func TestSolveUnreachableCycle(t *testing.T) {
	// Basal node 9 is isolated; 0,1,2 form a rootless cycle.
	snap := web.NewSnapshot([]int{0, 1, 2, 9}, []web.Link{
		{Source: 0, Target: 1},
		{Source: 1, Target: 2},
		{Source: 2, Target: 0},
	})
	res := NewSolver(Options{MaxIterations: 10}).Solve(snap)

	if !res.Degenerate {
		t.Error("nodes unreachable from basal set must flag degeneracy")
	}
	if res.Heights[0] != web.Unreachable || res.Heights[3] != 0 {
		t.Errorf("Heights = %v", res.Heights)
	}
}

func TestSolveRootedCycleRescales(t *testing.T) {
	// 0 -> 1 -> 2 -> 3 -> 1
	snap := web.NewSnapshot([]int{0, 1, 2, 3}, []web.Link{
		{Source: 0, Target: 1},
		{Source: 1, Target: 2},
		{Source: 2, Target: 3},
		{Source: 3, Target: 1},
	})
	res := NewSolver(Options{}).Solve(snap)

	if res.Degenerate || !res.Converged {
		t.Fatalf("Degenerate=%v Converged=%v", res.Degenerate, res.Converged)
	}
	if res.MaxHeight != 3 {
		t.Errorf("MaxHeight = %d, want 3", res.MaxHeight)
	}
	if !res.Rescaled {
		t.Fatal("levels [1 5 6 7] exceed MaxHeight+1 and should be rescaled")
	}
	want := []float64{1, 3, 3.5, 4}
	for i, l := range res.Levels {
		if math.Abs(l-want[i]) > 1e-6 {
			t.Errorf("level[%d] = %v, want %v", i, l, want[i])
		}
	}
}

func TestSolveTallestTies(t *testing.T) {
	// 0 -> 1, 0 -> 2, 3 isolated
	snap := web.NewSnapshot([]int{0, 1, 2, 3}, []web.Link{
		{Source: 0, Target: 1},
		{Source: 0, Target: 2},
	})
	res := NewSolver(Options{}).Solve(snap)

	if res.MaxHeight != 1 || !slices.Equal(res.Tallest, []int{1, 2}) {
		t.Errorf("MaxHeight=%d Tallest=%v, want 1 [1 2]", res.MaxHeight, res.Tallest)
	}
}

func TestSolveOmnivore(t *testing.T) {
	// 0 -> 1 -> 2 and 0 -> 2: level(2) = 1 + (1+2)/2
	snap := web.NewSnapshot([]int{0, 1, 2}, []web.Link{
		{Source: 0, Target: 1},
		{Source: 1, Target: 2},
		{Source: 0, Target: 2},
	})
	res := NewSolver(Options{}).Solve(snap)
	if res.MaxHeight != 1 {
		t.Errorf("MaxHeight = %d, want 1", res.MaxHeight)
	}
	// Raw levels [1 2 2.5] exceed MaxHeight+1 and are scaled by 1/1.5.
	if !res.Rescaled {
		t.Fatal("expected rescaling")
	}
	want := []float64{1, 1 + 1/1.5, 2}
	for i, l := range res.Levels {
		if math.Abs(l-want[i]) > 1e-12 {
			t.Errorf("level[%d] = %v, want %v", i, l, want[i])
		}
	}
}

func TestSolveEmpty(t *testing.T) {
	res := NewSolver(Options{}).Solve(web.NewSnapshot(nil, nil))
	if res.Degenerate || len(res.Levels) != 0 {
		t.Errorf("empty snapshot: %+v", res)
	}
}

func TestSolverReuse(t *testing.T) {
	s := NewSolver(Options{})
	a := s.Solve(path(6))
	s.Solve(path(3))
	if a.Levels[5] != 6 {
		t.Errorf("earlier result mutated by reuse: %v", a.Levels)
	}
}
