// Package server provides the HTTP API for fastcos.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/fastcos/internal/config"
	"github.com/hyperjump/fastcos/internal/search"
	"github.com/hyperjump/fastcos/internal/storage"
)

// Server is the HTTP server for the fastcos API.
type Server struct {
	engine   *search.Engine
	storage  storage.Storage
	config   *config.ServerConfig
	settings *config.Config
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves the collectors of g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithSettings exposes the effective configuration on the status endpoint.
func WithSettings(cfg *config.Config) Option {
	return func(s *Server) {
		s.settings = cfg
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	storage storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		storage: storage,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
		r.Route("/segments", func(r chi.Router) {
			r.Post("/", s.handleCreateSegment)
			r.Get("/", s.handleListSegments)
			r.Get("/{id}", s.handleGetSegment)
			r.Delete("/{id}", s.handleDeleteSegment)
			r.Get("/{id}/documents/{doc}", s.handleGetDocument)
		})
	})
	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
