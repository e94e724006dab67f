package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/floorly/catalog-enricher/internal/config"
	"github.com/floorly/catalog-enricher/internal/jobs"
)

// PendingCounter reports how many outbox events still await relay.
type PendingCounter interface {
	GetPendingCount(ctx context.Context) (int64, error)
}

// Server exposes the job API and operational endpoints.
type Server struct {
	httpServer *http.Server
	manager    *jobs.Manager
	pending    PendingCounter
	vendorIDs  []string
	registry   *prometheus.Registry
	logger     *slog.Logger
}

type Params struct {
	Config    config.ServerConfig
	Manager   *jobs.Manager
	Pending   PendingCounter
	VendorIDs []string
	Registry  *prometheus.Registry
	Logger    *slog.Logger
}

func NewServer(p Params) *Server {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		manager:   p.Manager,
		pending:   p.Pending,
		vendorIDs: p.VendorIDs,
		registry:  p.Registry,
		logger:    logger.With("component", "api"),
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(p.Config.Host, p.Config.Port),
		Handler:      s.routes(),
		ReadTimeout:  p.Config.ReadTimeout,
		WriteTimeout: p.Config.WriteTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/vendors", s.handleListVendors)
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Get("/outbox/stats", s.handleOutboxStats)
	})

	return r
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}
