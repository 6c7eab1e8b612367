package api

import (
	"net/http"
	"strconv"

	"github.com/baxromumarov/job-board/internal/observability"
	"github.com/baxromumarov/job-board/internal/scraper"
	"github.com/baxromumarov/job-board/internal/source"
)

// handleListJobs aggregates on every request. Source failures never turn
// into an error status; the worst case is an empty array.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	res := s.aggregator.Run(r.Context())

	jobs := res.Postings
	if jobs == nil {
		jobs = []scraper.JobPosting{}
	}
	respondJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := s.registry.Entries()
	if sources == nil {
		sources = []source.Descriptor{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"items": sources,
		"total": len(sources),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, observability.Snapshot())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondError(w, http.StatusNotFound, "Run log is not configured")
		return
	}

	limit := parseLimit(r, 20)
	runs, err := s.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch runs: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"items": runs,
		"limit": limit,
	})
}

func parseLimit(r *http.Request, defaultLimit int) int {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return limit
}
