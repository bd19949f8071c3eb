package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/url"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/httputil"
	fwio "github.com/matzehuels/foodweb/pkg/io"
)

// Load returns opts.Graph, or reads opts.Input as JSON or edge list. An
// http(s) input is downloaded with opts.Fetcher, or an uncached fetcher if
// that is nil.
func Load(ctx context.Context, opts Options) (graph.Graph, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return graph.Graph{}, err
	}
	if opts.Graph != nil {
		return *opts.Graph, nil
	}
	if httputil.IsURL(opts.Input) {
		return loadURL(ctx, opts)
	}

	g, err := fwio.Import(opts.Input)
	if errors.Is(err, fs.ErrNotExist) {
		return graph.Graph{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "input %s", opts.Input)
	}
	if err != nil {
		return graph.Graph{}, formatError(err, opts.Input)
	}
	return g, nil
}

func loadURL(ctx context.Context, opts Options) (graph.Graph, error) {
	f := opts.Fetcher
	if f == nil {
		f = httputil.NewFetcher(nil)
	}
	data, cached, err := f.Fetch(ctx, opts.Input)
	if err != nil {
		return graph.Graph{}, err
	}
	opts.Logger.Debug("fetched input", "url", opts.Input, "bytes", len(data), "cached", cached)

	u, _ := url.Parse(opts.Input)
	g, err := fwio.Decode(u.Path, bytes.NewReader(data))
	if err != nil {
		return graph.Graph{}, formatError(err, opts.Input)
	}
	return g, nil
}

func formatError(err error, input string) error {
	if errs.GetCode(err) != "" {
		return err
	}
	return errs.Wrap(errs.ErrCodeInvalidFormat, err, "read %s", input)
}
