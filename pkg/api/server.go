package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/foodweb/pkg/buildinfo"
	"github.com/matzehuels/foodweb/pkg/observability"
	"github.com/matzehuels/foodweb/pkg/pipeline"
	"github.com/matzehuels/foodweb/pkg/session"
	"github.com/matzehuels/foodweb/pkg/store"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 8 << 20

	cleanupInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Config holds the collaborators of a [Server].
type Config struct {
	Store    store.Store
	Runner   *pipeline.Runner
	Sessions *session.Manager

	// Defaults seeds the analysis and render options of every request.
	Defaults pipeline.Options

	// Logger receives request and error logs. Nil discards them.
	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	store    store.Store
	runner   *pipeline.Runner
	sessions *session.Manager
	defaults pipeline.Options
	logger   *log.Logger
	router   chi.Router
}

// New builds a server and its routes. Store is required; a nil Runner gets
// an uncached one and a nil Sessions manager uses [session.DefaultTTL].
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("api: store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	runner := cfg.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewManager(session.DefaultTTL, cfg.Defaults.EngineOptions())
	}

	s := &Server{
		store:    cfg.Store,
		runner:   runner,
		sessions: sessions,
		defaults: cfg.Defaults,
		logger:   logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/health", s.health)

	r.Route("/webs", func(r chi.Router) {
		r.Get("/", s.listWebs)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.getWeb)
			r.Put("/", s.putWeb)
			r.Delete("/", s.deleteWeb)
			r.Post("/analyze", s.analyzeWeb)
			r.Get("/render", s.renderWeb)
		})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.openSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.closeSession)
			r.Post("/tick", s.tickSession)
			r.Post("/save", s.saveSession)
			r.Get("/render", s.renderSession)
			r.Post("/nodes", s.addNode)
			r.Delete("/nodes/{node}", s.removeNode)
			r.Post("/nodes/{node}/restore", s.restoreNode)
			r.Post("/links", s.addLink)
			r.Delete("/links/{source}/{target}", s.removeLink)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes every session. Expired sessions are swept in the
// background while serving.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, cleanupInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.sessions.Shutdown()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.sessions.Shutdown()
	s.logger.Info("stopped")
	return err
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"sessions": len(s.sessions.IDs()),
	})
}

// observe reports each request to the registered HTTP hooks.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, path, status, time.Since(start))
	})
}
