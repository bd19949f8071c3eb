package layout

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/foodweb/pkg/core/components"
	"github.com/matzehuels/foodweb/pkg/core/web"
)

const (
	// DefaultEpochs is the default number of SGD epochs.
	DefaultEpochs = 30

	// DefaultEpsilon is the default final step size.
	DefaultEpsilon = 0.1

	// DefaultSeed is the default generator seed.
	DefaultSeed = uint64(42)

	// DefaultMargin is the default gap between components, in hops.
	DefaultMargin = 1.0

	// jitter is the size of the random nudge applied to coincident points.
	jitter = 1e-3
)

// Options configures a [Solver]. Zero fields take package defaults.
type Options struct {
	Epochs  int
	Epsilon float64
	Seed    uint64
	Margin  float64
}

func (o Options) withDefaults() Options {
	if o.Epochs <= 0 {
		o.Epochs = DefaultEpochs
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	return o
}

// Term is one pairwise distance constraint between node indices I < J.
type Term struct {
	I, J int
	D    float64
	W    float64
}

// Result is the output of a full solve, indexed by snapshot index.
type Result struct {
	Positions  []r2.Vec
	Stress     float64
	MaxDist    int
	Terms      int
	Components components.Result
}

// Solver runs full SGD layouts. It owns its scratch buffers and may be
// reused across snapshots, but not shared between goroutines.
type Solver struct {
	opts  Options
	terms []Term
	dist  []int
}

// NewSolver creates a solver with the given options.
func NewSolver(opts Options) *Solver {
	return &Solver{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (s *Solver) Options() Options { return s.opts }

// Solve lays out snap. prev holds the previous frame's positions by node ID;
// components are rotated to match it where nodes overlap. prev may be nil.
func (s *Solver) Solve(snap *web.Snapshot, prev map[int]r2.Vec) Result {
	n := snap.Len()
	rng := rand.New(rand.NewPCG(s.opts.Seed, s.opts.Seed^0xdeadbeef))

	dmax := s.buildTerms(snap)
	pos := initialPositions(n, dmax, rng)
	s.descend(pos, dmax, rng)

	res := Result{
		MaxDist:    dmax,
		Terms:      len(s.terms),
		Stress:     stressOf(pos, s.terms),
		Components: components.Analyze(snap),
	}
	for _, members := range res.Components.Members {
		align(pos, members, snap.IDs, prev)
	}
	separate(pos, res.Components.Members, s.opts.Margin)
	res.Positions = pos
	return res
}

// Stress evaluates the layout objective of positions against the graph
// distances of snap. Positions are indexed by snapshot index.
func (s *Solver) Stress(snap *web.Snapshot, pos []r2.Vec) float64 {
	s.buildTerms(snap)
	return stressOf(pos, s.terms)
}

func (s *Solver) buildTerms(snap *web.Snapshot) int {
	s.terms = s.terms[:0]
	dmax := 0
	for i := range snap.Len() {
		s.dist = snap.Distances(i, web.Undirected, s.dist)
		for j := i + 1; j < len(s.dist); j++ {
			d := s.dist[j]
			if d <= 0 {
				continue
			}
			fd := float64(d)
			s.terms = append(s.terms, Term{I: i, J: j, D: fd, W: 1 / (fd * fd)})
			dmax = max(dmax, d)
		}
	}
	return dmax
}

func initialPositions(n, dmax int, rng *rand.Rand) []r2.Vec {
	scale := math.Max(1, float64(dmax))
	pos := make([]r2.Vec, n)
	for i := range pos {
		pos[i] = r2.Vec{X: rng.Float64() * scale, Y: rng.Float64() * scale}
	}
	return pos
}

func (s *Solver) descend(pos []r2.Vec, dmax int, rng *rand.Rand) {
	if len(s.terms) == 0 {
		return
	}
	etaMax := float64(dmax * dmax)
	etaMin := s.opts.Epsilon
	lambda := 0.0
	if s.opts.Epochs > 1 && etaMax > etaMin {
		lambda = math.Log(etaMax/etaMin) / float64(s.opts.Epochs-1)
	}

	for epoch := range s.opts.Epochs {
		eta := etaMax * math.Exp(-lambda*float64(epoch))
		rng.Shuffle(len(s.terms), func(a, b int) {
			s.terms[a], s.terms[b] = s.terms[b], s.terms[a]
		})
		for _, t := range s.terms {
			step(pos, t, eta, rng)
		}
	}
}

func step(pos []r2.Vec, t Term, eta float64, rng *rand.Rand) {
	delta := r2.Sub(pos[t.I], pos[t.J])
	mag := r2.Norm(delta)
	if mag < 1e-12 {
		delta = randomUnit(rng, jitter)
		mag = r2.Norm(delta)
	}

	mu := math.Min(t.W*eta, 1)
	r := mu * (mag - t.D) / (2 * mag)
	m := r2.Scale(r, delta)
	pos[t.I] = r2.Sub(pos[t.I], m)
	pos[t.J] = r2.Add(pos[t.J], m)
}

func randomUnit(rng *rand.Rand, length float64) r2.Vec {
	a := rng.Float64() * 2 * math.Pi
	sin, cos := math.Sincos(a)
	return r2.Vec{X: length * cos, Y: length * sin}
}

func stressOf(pos []r2.Vec, terms []Term) float64 {
	stress := 0.0
	for _, t := range terms {
		diff := r2.Norm(r2.Sub(pos[t.I], pos[t.J])) - t.D
		stress += t.W * diff * diff
	}
	return stress
}
