package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/restday/internal/engine"
	"github.com/claude/restday/internal/snapshot"
	"github.com/claude/restday/internal/storage"
)

// PassLog persists report passes and lists recent ones. *storage.DB
// implements it.
type PassLog interface {
	engine.PassRecorder
	QueryPassLogs(ctx context.Context, limit int) ([]storage.PassLog, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	eng     *engine.Engine
	backend snapshot.Backend
	passes  PassLog
	log     *slog.Logger
	apiKey  string
	router  chi.Router
	now     func() time.Time
}

// New creates a new Server with all routes configured.
func New(eng *engine.Engine, backend snapshot.Backend, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		eng:     eng,
		backend: backend,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
		now:     time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Ingest endpoint (API key required)
	s.router.Route("/api/v1/entries", func(r chi.Router) {
		r.With(APIKeyAuth(s.apiKey, s.log)).Post("/", s.handleAppendEntry)
		r.Get("/", s.handleListEntries)
	})

	// Validation API (no auth, tsnet handles access)
	s.router.Get("/api/v1/validate", s.handleValidateOne)
	s.router.Post("/api/v1/validate", s.handleValidatePlanned)
	s.router.Get("/api/v1/alternatives", s.handleAlternatives)
	s.router.Get("/api/v1/report", s.handleReport)
	s.router.Get("/api/v1/muscles", s.handleMuscles)
	s.router.Get("/api/v1/exercises/muscle", s.handleMuscleForExercise)
	s.router.Get("/api/v1/passes", s.handlePasses)
}

// SetPassLog enables pass recording and the /api/v1/passes endpoint.
func (s *Server) SetPassLog(p PassLog) {
	s.passes = p
}

// MountMCP serves an MCP streamable HTTP handler at /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
