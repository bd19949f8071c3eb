// Package trophic assigns feeding-hierarchy levels to the nodes of a network.
//
// # Levels
//
// The continuous trophic level of node j with resource set R(j) (its
// incoming links) is
//
//	level(j) = 1 + (1/|R(j)|) · Σ_{i ∈ R(j)} level(i)
//
// Basal nodes (empty R(j)) are fixed at level 1. The system is solved by
// Gauss–Seidel iteration in snapshot order until the largest per-node change
// drops below [Options.Epsilon] or [Options.MaxIterations] sweeps have run.
//
// # Chain heights
//
// Integer chain heights come from a multi-source breadth-first search that
// starts at every basal node and follows links forward. A node's height is
// its hop distance from the nearest basal node.
//
// # Degeneracy
//
// When some node cannot be reached from any basal node (for example, every
// node lies on a cycle with no basal root) the linear system has no anchored
// solution. The result is flagged [Result.Degenerate]; the levels are still
// finite but must not be trusted. Degeneracy is a state, not an error.
//
// # Rescaling
//
// For a non-degenerate result whose maximum level exceeds MaxHeight+1, all
// levels are rescaled as 1 + (level-1)·MaxHeight/(maxLevel-1) so continuous
// and integer measures agree at the top of the hierarchy.
package trophic

import (
	"math"

	"github.com/matzehuels/foodweb/pkg/core/web"
)

const (
	// DefaultEpsilon is the default convergence threshold.
	DefaultEpsilon = 1e-9

	// DefaultMaxIterations is the default Gauss–Seidel sweep cap.
	DefaultMaxIterations = 1000
)

// Options configures a [Solver]. Zero fields take package defaults.
type Options struct {
	Epsilon       float64
	MaxIterations int
}

func (o Options) withDefaults() Options {
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// Result holds levels and chain heights indexed by snapshot index.
type Result struct {
	Levels  []float64
	Heights []int // web.Unreachable for nodes no basal node reaches

	// MaxHeight is the largest chain height; Tallest lists every node index
	// achieving it in index order.
	MaxHeight int
	Tallest   []int

	Degenerate bool
	Converged  bool
	Iterations int
	Rescaled   bool
}

// Solver computes trophic levels. Each Solver owns its scratch buffers; it
// may be reused across snapshots but not shared between goroutines.
type Solver struct {
	opts   Options
	levels []float64
	dist   []int
}

// NewSolver creates a solver with the given options.
func NewSolver(opts Options) *Solver {
	return &Solver{opts: opts.withDefaults()}
}

// Solve computes levels and chain heights for snap.
func (s *Solver) Solve(snap *web.Snapshot) Result {
	n := snap.Len()
	res := Result{}
	if n == 0 {
		res.Converged = true
		return res
	}

	res.Heights = s.heights(snap)
	reached := 0
	for i, h := range res.Heights {
		if h == web.Unreachable {
			continue
		}
		reached++
		switch {
		case h > res.MaxHeight:
			res.MaxHeight = h
			res.Tallest = append(res.Tallest[:0], i)
		case h == res.MaxHeight:
			res.Tallest = append(res.Tallest, i)
		}
	}
	res.Degenerate = reached < n

	res.Levels, res.Iterations, res.Converged = s.gaussSeidel(snap)

	if !res.Degenerate {
		res.Rescaled = rescale(res.Levels, res.MaxHeight)
	}
	return res
}

func (s *Solver) heights(snap *web.Snapshot) []int {
	s.dist = web.BFS(snap.Out, snap.Basal(), s.dist, nil)
	return append([]int(nil), s.dist...)
}

func (s *Solver) gaussSeidel(snap *web.Snapshot) ([]float64, int, bool) {
	n := snap.Len()
	if cap(s.levels) < n {
		s.levels = make([]float64, n)
	}
	levels := s.levels[:n]
	for i := range levels {
		levels[i] = 1
	}

	for iter := 1; iter <= s.opts.MaxIterations; iter++ {
		maxDelta := 0.0
		for j, resources := range snap.In {
			if len(resources) == 0 {
				continue
			}
			sum := 0.0
			for _, i := range resources {
				sum += levels[i]
			}
			next := 1 + sum/float64(len(resources))
			maxDelta = math.Max(maxDelta, math.Abs(next-levels[j]))
			levels[j] = next
		}
		if maxDelta < s.opts.Epsilon {
			return append([]float64(nil), levels...), iter, true
		}
	}
	return append([]float64(nil), levels...), s.opts.MaxIterations, false
}

func rescale(levels []float64, maxHeight int) bool {
	maxLevel := 1.0
	for _, l := range levels {
		maxLevel = math.Max(maxLevel, l)
	}
	if maxLevel <= float64(maxHeight)+1 || maxLevel <= 1 {
		return false
	}
	factor := float64(maxHeight) / (maxLevel - 1)
	for i, l := range levels {
		levels[i] = 1 + (l-1)*factor
	}
	return true
}
