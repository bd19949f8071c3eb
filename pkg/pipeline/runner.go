package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/foodweb/pkg/cache"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/httputil"
)

// Runner encapsulates pipeline execution with caching. The CLI and the API
// both use it so caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer means DefaultKeyer, a nil cache
// means NullCache (caching disabled) and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → analyze → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	if opts.Fetcher == nil {
		opts.Fetcher = httputil.NewFetcher(r.Cache)
	}
	g, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.LinkCount = len(g.Links)
	result.GraphHash = GraphHash(g)

	r.Logger.Info("loaded web",
		"nodes", result.Stats.NodeCount,
		"links", result.Stats.LinkCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Analyze
	analyzeStart := time.Now()
	a, hit, err := r.AnalyzeWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	result.Analysis = a
	result.Graph = WithPositions(g, a)
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	result.CacheInfo.AnalyzeHit = hit

	r.Logger.Info("analyzed web",
		"components", a.ComponentCount,
		"chain", a.MaxChainHeight,
		"cycle", a.MaxCycleLength,
		"stress", a.Stress,
		"cached", hit,
		"duration", result.Stats.AnalyzeTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Graph, a, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// AnalyzeWithCacheInfo analyzes g with caching and reports whether the
// result came from the cache.
func (r *Runner) AnalyzeWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (graph.Analysis, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForAnalyze(); err != nil {
		return graph.Analysis{}, false, err
	}
	key := r.Keyer.AnalysisKey(GraphHash(g), opts.AnalysisKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if a, err := graph.UnmarshalAnalysis(data); err == nil {
				return a, true, nil
			}
			r.Logger.Debug("discarding unreadable cached analysis", "key", key)
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
	}

	a, err := Analyze(ctx, g, opts)
	if err != nil {
		return graph.Analysis{}, false, err
	}

	if data, err := graph.MarshalAnalysis(a); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLAnalysis); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		}
	}
	return a, false, nil
}

// Analyze is a convenience wrapper that discards the cache hit info.
func (r *Runner) Analyze(ctx context.Context, g graph.Graph, opts Options) (graph.Analysis, error) {
	a, _, err := r.AnalyzeWithCacheInfo(ctx, g, opts)
	return a, err
}

// RenderWithCacheInfo renders every requested format, reusing cached
// artifacts when all of them are present.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g graph.Graph, a graph.Analysis, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	// Labels and link styles live in g, positions and levels in a.
	hash := artifactHash(g, a)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	rendered, err := Render(ctx, g, a, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		_ = r.Cache.Set(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g graph.Graph, a graph.Analysis, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, a, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// GraphHash returns the content hash of g's canonical JSON encoding.
func GraphHash(g graph.Graph) string {
	data, _ := graph.MarshalGraph(g)
	return cache.Hash(data)
}

func artifactHash(g graph.Graph, a graph.Analysis) string {
	gd, _ := graph.MarshalGraph(g)
	ad, _ := graph.MarshalAnalysis(a)
	return cache.Hash(append(gd, ad...))
}
