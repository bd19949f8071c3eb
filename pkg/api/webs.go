package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/foodweb/pkg/errors"
	"github.com/matzehuels/foodweb/pkg/graph"
	"github.com/matzehuels/foodweb/pkg/pipeline"
)

type webList struct {
	Webs []string `json:"webs"`
}

// putRequest is the body of PUT /webs/{name}. A bare graph is accepted too.
type putRequest struct {
	graph.Graph
	Seed uint64 `json:"seed,omitempty"`
}

func (s *Server) listWebs(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, webList{Webs: names})
}

func (s *Server) getWeb(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) putWeb(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errs.ValidateWebName(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	var req putRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	// Reject anything the engine could not load.
	if _, err := graph.ToStore(req.Graph); err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if _, err := s.store.Get(r.Context(), name); errs.IsNotFound(err) {
		status = http.StatusCreated
	} else if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc := graph.Document{
		Name:      name,
		Graph:     req.Graph,
		Seed:      req.Seed,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(r.Context(), doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, doc)
}

func (s *Server) deleteWeb(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) analyzeWeb(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := s.store.Get(ctx, chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.analyzeOptions(r, doc.Seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, hit, err := s.runner.AnalyzeWithCacheInfo(ctx, doc.Graph, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc.Graph = pipeline.WithPositions(doc.Graph, a)
	doc.Analysis = &a
	doc.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, doc); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("X-Cache", cacheHeader(hit))
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) renderWeb(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := s.store.Get(ctx, chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.renderOptions(r, doc.Seed)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	g := doc.Graph
	var a graph.Analysis
	if doc.Analysis != nil {
		a = *doc.Analysis
	} else {
		if a, err = s.runner.Analyze(ctx, g, opts); err != nil {
			s.writeError(w, r, err)
			return
		}
		g = pipeline.WithPositions(g, a)
	}
	s.writeRender(w, r, g, a, opts)
}

func (s *Server) writeRender(w http.ResponseWriter, r *http.Request, g graph.Graph, a graph.Analysis, opts pipeline.Options) {
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), g, a, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]
	writeArtifact(w, format, artifacts[format], hit)
}

// analyzeOptions applies the seed and refresh query parameters over the
// server defaults. docSeed is used when no seed is given.
func (s *Server) analyzeOptions(r *http.Request, docSeed uint64) (pipeline.Options, error) {
	opts := s.defaults
	opts.Logger = nil
	if docSeed != 0 {
		opts.Seed = docSeed
	}
	seed, err := uintQuery(r, "seed")
	if err != nil {
		return opts, err
	}
	if seed != 0 {
		opts.Seed = seed
	}
	if opts.Refresh, err = boolQuery(r, "refresh"); err != nil {
		return opts, err
	}
	return opts, opts.ValidateForAnalyze()
}

// renderOptions reads format, scale, labels, detailed and highlight.
func (s *Server) renderOptions(r *http.Request, docSeed uint64) (pipeline.Options, error) {
	opts, err := s.analyzeOptions(r, docSeed)
	if err != nil {
		return opts, err
	}
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = "svg"
	}
	opts.Formats = []string{format}

	if raw := q.Get("scale"); raw != "" {
		if opts.Scale, err = strconv.ParseFloat(raw, 64); err != nil || opts.Scale <= 0 {
			return opts, errs.New(errs.ErrCodeInvalidInput, "invalid scale %q", raw)
		}
	}
	if opts.Labels, err = boolQuery(r, "labels"); err != nil {
		return opts, err
	}
	if opts.Detailed, err = boolQuery(r, "detailed"); err != nil {
		return opts, err
	}
	if q.Has("highlight") {
		highlight, err := boolQuery(r, "highlight")
		if err != nil {
			return opts, err
		}
		opts.NoHighlight = !highlight
	}
	return opts, opts.ValidateForRender()
}
