// Package server exposes the REST API over the graph client: node and
// relationship CRUD, filtered queries, traversals, and the operational
// endpoints (health, readiness, metrics).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/perimeterlabs/graphgate/internal/metrics"
)

// Config holds configuration for the HTTP server.
type Config struct {
	Bind           string
	Port           int
	RequestTimeout time.Duration
}

// Server is the HTTP server for the v1 graph API.
// It is safe for concurrent use.
type Server struct {
	mu     sync.RWMutex
	config Config
	graph  Graph
	logger *slog.Logger
	router *chi.Mux
	server *http.Server
}

// New creates a new HTTP server around the given graph client.
func New(graph Graph, logger *slog.Logger, config Config) *Server {
	s := &Server{
		config: config,
		graph:  graph,
		logger: logger,
		router: chi.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(s.instrument)
	s.router.Use(s.withTimeout)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/geid/{geid}", s.handleGetNodeByGeid)
			r.Post("/geid/query", s.handleQueryNodesByGeids)
			r.Put("/batch/{property}", s.handleBulkUpdateNodes)

			// The first segment is a node id here, not a label; chi
			// requires one wildcard name per segment position.
			r.Put("/{label}/labels", s.handleChangeLabels)

			r.Post("/{label}", s.handleCreateNode)
			r.Post("/{label}/batch", s.handleBulkCreateNodes)
			r.Get("/{label}/node/{id}", s.handleGetNode)
			r.Put("/{label}/node/{id}", s.handleUpdateNode)
			r.Delete("/{label}/node/{id}", s.handleDeleteNode)
			r.Post("/{label}/query", s.handleQueryNodes)
			r.Post("/{label}/query/count", s.handleCountNodes)
			r.Get("/{label}/properties", s.handleGetPropertyOptions)
		})

		r.Route("/relations", func(r chi.Router) {
			r.Get("/", s.handleGetRelationship)
			r.Delete("/", s.handleDeleteRelationship)
			r.Post("/query", s.handleQueryRelationships)
			r.Post("/query/count", s.handleCountRelationships)
			r.Post("/query/multi", s.handleQueryRelatedMultiLabel)
			r.Get("/connected/{geid}", s.handleGetConnectedNodes)

			r.Post("/{type}", s.handleCreateRelationship)
			r.Put("/{type}", s.handleUpdateRelationship)
			r.Get("/{type}/node/{id}", s.handleGetNodesAlongRelation)
			r.Get("/{type}/node/{id}/none", s.handleGetNodesOutsideRelation)
		})
	})
}

// Handler returns the HTTP handler for testing purposes.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

// instrument assigns a request id and records structured logs and
// Prometheus metrics for every request.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start)

		route := chi.RouteContext(r.Context()).RoutePattern()
		metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), duration)

		s.logger.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID)
	})
}

// withTimeout propagates the configured deadline into every store call.
func (s *Server) withTimeout(next http.Handler) http.Handler {
	if s.config.RequestTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleHealthz handles the liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReadyz handles the readiness probe. Ready means the graph store
// answers a connectivity check.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.graph.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Start starts the HTTP server and blocks until it's stopped.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	server := s.server
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error; %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server; %w", err)
	}

	return nil
}
