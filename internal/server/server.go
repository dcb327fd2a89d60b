// Package server provides the HTTP API for Hirogeru.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/hirogeru/internal/config"
	"github.com/hyperjump/hirogeru/internal/expansion"
	"github.com/hyperjump/hirogeru/internal/retrieval"
	"github.com/hyperjump/hirogeru/internal/storage"
)

// Server is the HTTP server for the Hirogeru API.
type Server struct {
	expander  *expansion.Expander
	retriever retrieval.Retriever
	storage   storage.Storage
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	expander *expansion.Expander,
	retriever retrieval.Retriever,
	store storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		expander:  expander,
		retriever: retriever,
		storage:   store,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/expand", s.handleExpand)
	r.Post("/api/v1/materials", s.handleCreateMaterial)
	r.Get("/api/v1/materials/{id}", s.handleGetMaterial)
	r.Delete("/api/v1/materials/{id}", s.handleDeleteMaterial)
	r.Post("/api/v1/corpus/rebuild", s.handleRebuildCorpus)
	r.Get("/api/v1/corpus", s.handleCorpusStats)
	r.Get("/api/v1/config", s.handleGetConfig)
	r.Put("/api/v1/config", s.handleUpdateConfig)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
