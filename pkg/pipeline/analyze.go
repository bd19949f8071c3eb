package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/foodweb/pkg/engine"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/observability"
)

// Analyze builds a store from g and runs one synchronous engine pass.
func Analyze(ctx context.Context, g graph.Graph, opts Options) (graph.Analysis, error) {
	if err := opts.ValidateForAnalyze(); err != nil {
		return graph.Analysis{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnAnalyzeStart(ctx, opts.Input, len(g.Nodes))
	start := time.Now()

	a, err := analyze(ctx, g, opts)
	hooks.OnAnalyzeComplete(ctx, opts.Input, time.Since(start), err)
	return a, err
}

func analyze(ctx context.Context, g graph.Graph, opts Options) (graph.Analysis, error) {
	store, err := graph.ToStore(g)
	if err != nil {
		return graph.Analysis{}, err
	}
	e := engine.New(store, opts.EngineOptions())
	defer e.Close()

	if err := e.Wait(ctx); err != nil {
		return graph.Analysis{}, err
	}
	return graph.NewAnalysis(e.Analysis(), e.Positions()), nil
}

// WithPositions returns a copy of g whose active nodes carry the positions
// from a.
func WithPositions(g graph.Graph, a graph.Analysis) graph.Graph {
	out := graph.Graph{
		Nodes: make([]graph.Node, len(g.Nodes)),
		Links: g.Links,
	}
	for i, n := range g.Nodes {
		if m, ok := a.Metric(n.ID); ok && !n.Archived {
			n.Pos = &graph.Point{X: m.X, Y: m.Y}
		}
		out.Nodes[i] = n
	}
	return out
}
