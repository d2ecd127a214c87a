// Package httpapi exposes the trigger API: a run endpoint that fires a
// probe pass on demand and a results endpoint serving the latest pass.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/httpapi/middleware"
	"github.com/Miller-Media/lambda-watchtower/internal/runner"
)

type Server struct {
	Logger *zap.Logger
	Runner *runner.Runner
	Keys   []string

	mu      sync.RWMutex
	last    []domain.ProbeResult
	lastRun time.Time
}

func NewServer(l *zap.Logger, r *runner.Runner, keys []string) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Runner: r, Keys: keys}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireKey(s.Keys))
		r.Use(middleware.RateLimit(60, 10))
		r.Post("/api/run", s.handleRun)
		r.Get("/api/results", s.handleResults)
	})

	return r
}

type runResponse struct {
	RanAt   time.Time            `json:"ran_at"`
	Results []domain.ProbeResult `json:"results"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runner.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	results, err := s.Runner.Run(r.Context(), req)
	if errors.Is(err, runner.ErrNoTargets) {
		http.Error(w, "no targets supplied", http.StatusBadRequest)
		return
	}

	ranAt := time.Now().UTC()
	s.mu.Lock()
	s.last, s.lastRun = results, ranAt
	s.mu.Unlock()

	if err != nil {
		// Probes finished; delivery did not. The pass is still cached.
		s.Logger.Error("run_ship_failed", zap.Error(err))
		http.Error(w, "metrics delivery failed", http.StatusBadGateway)
		return
	}

	s.Logger.Info("run_done", zap.Int("targets", len(results)))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(runResponse{RanAt: ranAt, Results: results})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last, ranAt := s.last, s.lastRun
	s.mu.RUnlock()

	if last == nil {
		http.Error(w, "no run yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(runResponse{RanAt: ranAt, Results: last})
}
