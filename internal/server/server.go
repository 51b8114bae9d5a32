// Package server provides the HTTP API for gunggeum.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/config"
	"github.com/hyperjump/gunggeum/internal/metrics"
	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/internal/ratelimit"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

// Service answers searches and follow-up questions.
type Service interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchOutcome, error)
	Answer(ctx context.Context, req models.QuestionRequest) (*models.QuestionResponse, error)
}

// Server is the HTTP server for the gunggeum API.
type Server struct {
	service  Service
	metrics  *metrics.Metrics
	burst    *ratelimit.BurstLimiter
	config   config.ServerConfig
	logs     config.LogsConfig
	location *time.Location
	logger   *zap.Logger
	server   *http.Server
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithMetrics exposes m on /metrics and records burst denials in it.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithBurstLimiter applies b to /search.
func WithBurstLimiter(b *ratelimit.BurstLimiter) Option {
	return func(s *Server) { s.burst = b }
}

// WithLogs enables the operator log endpoint. loc decides the current day.
func WithLogs(cfg config.LogsConfig, loc *time.Location) Option {
	return func(s *Server) {
		s.logs = cfg
		if loc != nil {
			s.location = loc
		}
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(service Service, cfg config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		service:  service,
		config:   cfg,
		location: time.UTC,
		logger:   utils.OrNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Group(func(r chi.Router) {
		if s.burst != nil {
			r.Use(s.burst.Middleware(callerID, s.handleBurstLimited))
		}
		r.Post("/search", s.handleSearch)
	})
	r.Post("/question", s.handleQuestion)
	r.Get("/logs/{kind}/{date}", s.handleLogs)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
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
