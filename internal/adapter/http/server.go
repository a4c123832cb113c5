package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
	"github.com/couchcryptid/river-gauge-etl/internal/pipeline"
)

// BatchRunner analyzes uploaded station files and optionally delivers the reports.
// *pipeline.Pipeline satisfies it.
type BatchRunner interface {
	Analyze(ctx context.Context, inputs []domain.StationInput, opts domain.Options) (*pipeline.Result, error)
	DeliverTo(ctx context.Context, reports []domain.StationReport, loaders []pipeline.Loader) error
}

// Options configures the analysis endpoint.
type Options struct {
	Defaults       domain.Options
	MaxUploadBytes int64
	// Publishers receive uploads analyzed with publish=true. File sinks that
	// hold batch output do not belong here.
	Publishers []pipeline.Loader
}

// Server exposes health, readiness, metrics, and the analysis upload endpoint.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/analyses routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, runner BatchRunner, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h := newAnalysisHandler(runner, opts, metrics, logger)
	r.Post("/v1/analyses", h.ServeHTTP)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
