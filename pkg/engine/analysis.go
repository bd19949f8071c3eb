package engine

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/foodweb/pkg/core/cycles"
	"github.com/matzehuels/foodweb/pkg/core/layout"
	"github.com/matzehuels/foodweb/pkg/core/trophic"
	"github.com/matzehuels/foodweb/pkg/core/web"
)

// ErrNaN is wrapped by the panic raised when a solver produced a non-finite
// value. It always indicates a bug.
var ErrNaN = errors.New("non-finite value")

// Analysis is the derived state of the network as of one store version. All
// node references are node IDs.
type Analysis struct {
	Version uint64
	Nodes   int
	Links   int

	// ComponentCount is the number of weakly connected components;
	// Components lists member IDs per component in first-seen order.
	ComponentCount int
	Components     [][]int
	ComponentOf    map[int]int

	// MaxChainHeight is the largest hop distance from a basal node; Tallest
	// lists every node at that height in ascending ID order.
	MaxChainHeight int
	Tallest        []int
	Levels         map[int]float64
	Heights        map[int]int // web.Unreachable if no basal node reaches it
	Degenerate     bool
	Converged      bool
	Iterations     int

	// MaxCycleLength is 0 when the network is acyclic.
	MaxCycleLength int
	CycleTies      int
	Cycle          []int

	Stress float64
}

// outcome is the raw output of a heavy run, still indexed by snapshot.
type outcome struct {
	snap    *web.Snapshot
	layout  layout.Result
	trophic trophic.Result
	cycles  cycles.Result
}

func (o outcome) analysis() Analysis {
	snap := o.snap
	a := Analysis{
		Version:        snap.Version,
		Nodes:          snap.Len(),
		Links:          snap.LinkCount(),
		ComponentCount: o.layout.Components.Count(),
		Components:     make([][]int, o.layout.Components.Count()),
		ComponentOf:    make(map[int]int, snap.Len()),
		MaxChainHeight: o.trophic.MaxHeight,
		Tallest:        snap.IDsOf(o.trophic.Tallest),
		Levels:         make(map[int]float64, snap.Len()),
		Heights:        make(map[int]int, snap.Len()),
		Degenerate:     o.trophic.Degenerate,
		Converged:      o.trophic.Converged,
		Iterations:     o.trophic.Iterations,
		MaxCycleLength: o.cycles.Length,
		CycleTies:      o.cycles.Ties,
		Cycle:          o.cycles.Cycle,
		Stress:         o.layout.Stress,
	}
	for c, members := range o.layout.Components.Members {
		a.Components[c] = snap.IDsOf(members)
	}
	for i, id := range snap.IDs {
		a.ComponentOf[id] = o.layout.Components.Of[i]
		a.Levels[id] = o.trophic.Levels[i]
		a.Heights[id] = o.trophic.Heights[i]
	}
	return a
}

// checkFinite panics with ErrNaN if any published float is NaN or infinite.
func (o outcome) checkFinite() {
	for i, id := range o.snap.IDs {
		if !finite(o.trophic.Levels[i]) {
			panic(fmt.Errorf("trophic level of node %d: %w", id, ErrNaN))
		}
		if !finiteVec(o.layout.Positions[i]) {
			panic(fmt.Errorf("position of node %d: %w", id, ErrNaN))
		}
	}
	if !finite(o.layout.Stress) {
		panic(fmt.Errorf("layout stress: %w", ErrNaN))
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func finiteVec(v r2.Vec) bool { return finite(v.X) && finite(v.Y) }
