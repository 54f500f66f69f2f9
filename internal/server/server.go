// Package server exposes the context store over a local HTTP API, for
// dashboards and editor integrations that cannot speak MCP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cliplin/cliplin/internal/contextstore"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server is the local context API server.
type Server struct {
	cfg         Config
	store       contextstore.ContextStore
	projectRoot string
	router      chi.Router
	httpServer  *http.Server
}

// New creates a server around the given store.
func New(cfg Config, store contextstore.ContextStore, projectRoot string) *Server {
	s := &Server{
		cfg:         cfg,
		store:       store,
		projectRoot: projectRoot,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/collections", func(r chi.Router) {
		r.Get("/", s.handleListCollections)
		r.Post("/", s.handleCreateCollection)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleCollectionInfo)
			r.Patch("/", s.handleModifyCollection)
			r.Delete("/", s.handleDeleteCollection)
			r.Post("/fork", s.handleForkCollection)
			r.Get("/peek", s.handlePeek)
			r.Post("/query", s.handleQuery)

			r.Get("/documents", s.handleGetDocuments)
			r.Post("/documents", s.handleAddDocuments)
			r.Put("/documents", s.handleUpdateDocuments)
			r.Delete("/documents", s.handleDeleteDocuments)
			r.Get("/documents/{id}/html", s.handleDocumentHTML)
		})
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port and blocks until the
// server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
