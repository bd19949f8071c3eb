// Package pipeline provides the load → analyze → render pipeline for foodweb.
//
// This package implements the complete batch pipeline used by the CLI and
// the HTTP API. Centralizing it keeps defaults, cache keys and logging
// identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a web from a JSON or edge-list file or URL (or take it in
//     memory)
//  2. Analyze: Run the engine synchronously to obtain the stress layout,
//     trophic levels, longest cycle and components
//  3. Render: Generate output in various formats (DOT, SVG, PNG, PDF, JSON)
//
// Analyze and Render are cached through a [cache.Cache]; keys cover the
// content hash of the input and every option that changes the output.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "reef.json",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, err := pipeline.Load(ctx, opts)
//	analysis, err := runner.Analyze(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, g, analysis, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/foodweb/pkg/cache"
	"github.com/matzehuels/foodweb/pkg/config"
	"github.com/matzehuels/foodweb/pkg/core/layout"
	"github.com/matzehuels/foodweb/pkg/core/trophic"
	"github.com/matzehuels/foodweb/pkg/engine"
	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/httputil"
	"github.com/matzehuels/foodweb/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// FormatJSON renders the analysis itself as JSON.
const FormatJSON = "json"

// DefaultScale is the default drawing size of one layout unit, in inches.
const DefaultScale = 1.0

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	render.FormatDOT: true,
	render.FormatSVG: true,
	render.FormatPNG: true,
	render.FormatPDF: true,
	FormatJSON:       true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline. It supports JSON
// serialization for API requests.
type Options struct {
	// Load options. Graph takes precedence over Input. Input may be a
	// path or an http(s) URL.
	Input   string            `json:"input,omitempty"`
	Graph   *graph.Graph      `json:"-"`
	Fetcher *httputil.Fetcher `json:"-"`

	// Analyze options. Zero values select the solver defaults.
	Seed           uint64  `json:"seed,omitempty"`
	Epochs         int     `json:"epochs,omitempty"`
	Epsilon        float64 `json:"epsilon,omitempty"`
	Margin         float64 `json:"margin,omitempty"`
	TrophicEpsilon float64 `json:"trophic_epsilon,omitempty"`
	MaxIterations  int     `json:"max_iterations,omitempty"`
	Refresh        bool    `json:"refresh,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Labels      bool     `json:"labels,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"`
	NoHighlight bool     `json:"no_highlight,omitempty"`

	// Logger receives progress events. Nil discards them.
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded web with positions from the analysis.
	Graph graph.Graph

	// GraphHash is the content hash of the input web.
	GraphHash string

	// Analysis is the derived state.
	Analysis graph.Analysis

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	LinkCount   int
	LoadTime    time.Duration
	AnalyzeTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each cached stage.
type CacheInfo struct {
	AnalyzeHit bool // analysis came from cache
	RenderHit  bool // every artifact came from cache
}

// FromConfig returns options seeded from the layout and trophic tables.
func FromConfig(cfg config.Config) Options {
	return Options{
		Seed:           cfg.Layout.Seed,
		Epochs:         cfg.Layout.Epochs,
		Epsilon:        cfg.Layout.Epsilon,
		Margin:         cfg.Layout.Margin,
		TrophicEpsilon: cfg.Trophic.Epsilon,
		MaxIterations:  cfg.Trophic.MaxIterations,
	}
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForAnalyze(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that there is something to load.
func (o *Options) ValidateForLoad() error {
	if o.Graph == nil && o.Input == "" {
		return errs.New(errs.ErrCodeInvalidInput, "input file or graph is required")
	}
	o.setLogger()
	return nil
}

// SetAnalyzeDefaults resolves zero values to the solver defaults so that
// cache keys are stable whether or not a default was spelled out.
func (o *Options) SetAnalyzeDefaults() {
	if o.Seed == 0 {
		o.Seed = layout.DefaultSeed
	}
	if o.Epochs == 0 {
		o.Epochs = layout.DefaultEpochs
	}
	if o.Epsilon == 0 {
		o.Epsilon = layout.DefaultEpsilon
	}
	if o.Margin == 0 {
		o.Margin = layout.DefaultMargin
	}
	if o.TrophicEpsilon == 0 {
		o.TrophicEpsilon = trophic.DefaultEpsilon
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = trophic.DefaultMaxIterations
	}
	o.setLogger()
}

// ValidateForAnalyze validates and sets defaults for analysis.
func (o *Options) ValidateForAnalyze() error {
	o.SetAnalyzeDefaults()
	switch {
	case o.Epochs < 0:
		return errs.New(errs.ErrCodeInvalidInput, "epochs must not be negative")
	case o.Epsilon < 0 || o.TrophicEpsilon < 0:
		return errs.New(errs.ErrCodeInvalidInput, "epsilon must not be negative")
	case o.Margin < 0:
		return errs.New(errs.ErrCodeInvalidInput, "margin must not be negative")
	case o.MaxIterations < 0:
		return errs.New(errs.ErrCodeInvalidInput, "max_iterations must not be negative")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "scale must be positive")
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// EngineOptions returns synchronous engine options for a batch run.
func (o *Options) EngineOptions() engine.Options {
	return engine.Options{
		Layout: layout.Options{
			Epochs:  o.Epochs,
			Epsilon: o.Epsilon,
			Seed:    o.Seed,
			Margin:  o.Margin,
		},
		Trophic: trophic.Options{
			Epsilon:       o.TrophicEpsilon,
			MaxIterations: o.MaxIterations,
		},
		Seed:   o.Seed,
		Logger: o.Logger,
	}
}

// AnalysisKeyOpts returns cache key options for analysis.
func (o *Options) AnalysisKeyOpts() cache.AnalysisKeyOpts {
	return cache.AnalysisKeyOpts{
		Seed:           o.Seed,
		Epochs:         o.Epochs,
		Epsilon:        o.Epsilon,
		Margin:         o.Margin,
		TrophicEpsilon: o.TrophicEpsilon,
		MaxIterations:  o.MaxIterations,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Scale:     o.Scale,
		Labels:    o.Labels,
		Highlight: !o.NoHighlight,
		Detailed:  o.Detailed,
	}
}
