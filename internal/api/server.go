package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/job-board/internal/core"
	"github.com/baxromumarov/job-board/internal/source"
	"github.com/baxromumarov/job-board/internal/store"
)

// Aggregator runs one fresh aggregation per call.
type Aggregator interface {
	Run(ctx context.Context) core.Result
}

// RunLister reads the run log. It is nil when no database is configured.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
}

type Server struct {
	router     *chi.Mux
	aggregator Aggregator
	registry   *source.Registry
	runs       RunLister
}

func NewServer(aggregator Aggregator, registry *source.Registry, runs RunLister) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		aggregator: aggregator,
		registry:   registry,
		runs:       runs,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/jobs", s.handleListJobs)
		r.Get("/sources", s.handleListSources)
		r.Get("/stats", s.handleStats)
		r.Get("/runs", s.handleListRuns)
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
