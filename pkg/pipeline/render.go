package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/observability"
	"github.com/matzehuels/foodweb/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, g graph.Graph, a graph.Analysis, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := renderFormats(ctx, g, a, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderFormats(ctx context.Context, g graph.Graph, a graph.Analysis, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(g, &a, opts.NodelinkOptions())
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		if format == FormatJSON {
			data, err = graph.MarshalAnalysis(a)
		} else {
			data, err = nodelink.Render(ctx, dot, format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// NodelinkOptions returns the renderer options.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{
		Scale:       o.Scale,
		Labels:      o.Labels,
		Detailed:    o.Detailed,
		NoHighlight: o.NoHighlight,
	}
}
