// Package server wires the HTTP routes around the engine.
package server

import (
	"net/http"

	"github.com/rumor-ml/ledgerecon/internal/engine"
	"github.com/rumor-ml/ledgerecon/internal/handlers"
	"github.com/rumor-ml/ledgerecon/internal/middleware"
)

// Server is the reconciliation API server.
type Server struct {
	mux *http.ServeMux
}

// New creates a server around an engine.
func New(e *engine.Engine) *Server {
	s := &Server{mux: http.NewServeMux()}
	s.setupRoutes(e)
	return s
}

func (s *Server) setupRoutes(e *engine.Engine) {
	// Health check (no owner required)
	s.mux.HandleFunc("GET /health", handlers.HealthCheck)

	api := handlers.NewAPIHandler(e)
	withOwner := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireOwner(h)
	}

	s.mux.Handle("POST /api/statements/preview", withOwner(api.Preview))
	s.mux.Handle("POST /api/statements/import", withOwner(api.Import))
	s.mux.Handle("POST /api/rules", withOwner(api.CreateRule))
	s.mux.Handle("GET /api/rules", withOwner(api.ListRules))
	s.mux.Handle("PATCH /api/rules/{id}", withOwner(api.UpdateRule))
	s.mux.Handle("POST /api/rules/reorder", withOwner(api.Reorder))
	s.mux.Handle("GET /api/categories/resolve", withOwner(api.ResolveCategory))
}

// Handler returns the HTTP handler with common middleware applied.
func (s *Server) Handler() http.Handler {
	return middleware.CORS(s.mux)
}
