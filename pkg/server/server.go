// Package server exposes topogram builds over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/graph/{package}  ?depth= &recommends= &suggests= &suite= &component= &arch= &format=csv|json|dot|svg &refresh=
//	GET  /v1/rank             ?top= &suite= &component= &arch= &format=json|csv
//	POST /v1/parse            ?filename= &repair=  (raw body or multipart "file")
//	GET  /v1/stats            pipeline, cache, mirror and import counters
//
// Errors are JSON objects {"error": CODE, "message": text} with the HTTP
// status derived from the error code.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/topogram/topokit/pkg/buildinfo"
	"github.com/topogram/topokit/pkg/integrations/debian"
	"github.com/topogram/topokit/pkg/observability"
	"github.com/topogram/topokit/pkg/pipeline"
	"github.com/topogram/topokit/pkg/topogram"
)

// DefaultMaxUpload bounds POST /v1/parse bodies.
const DefaultMaxUpload = 32 << 20

// Options configures a Server.
type Options struct {
	// Dist supplies index coordinates a request leaves out.
	Dist     debian.Dist
	MaxDepth int
	// Timeout bounds each request, including index downloads.
	Timeout   time.Duration
	MaxUpload int64
	// Limits caps parsed uploads.
	Limits topogram.Limits
	// Counters, when set, is served at /v1/stats.
	Counters *observability.Counters
}

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
}

// New creates a server backed by runner.
func New(runner *pipeline.Runner, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	opts.Dist = opts.Dist.WithDefaults()
	return &Server{runner: runner, opts: opts, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.opts.Timeout > 0 {
		r.Use(middleware.Timeout(s.opts.Timeout))
	}

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/graph/{package}", s.graph)
		r.Get("/rank", s.rank)
		r.Post("/parse", s.parse)
		if s.opts.Counters != nil {
			r.Get("/stats", s.stats)
		}
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Counters.Snapshot())
}
