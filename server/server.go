// Package server exposes the simulator over a JSON HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inference-sim/schedsim/sim/history"
)

// Config groups the limits applied to API-submitted simulations.
type Config struct {
	Horizon         int64 // tick cap per simulation (0 = unlimited)
	CheckInvariants bool  // run per-tick invariant checks
	MaxBodyBytes    int64 // request body cap for workload uploads
}

// DefaultConfig returns the limits used by `schedsim serve`.
func DefaultConfig() Config {
	return Config{Horizon: 100000, CheckInvariants: true, MaxBodyBytes: 1 << 20}
}

// Server is the schedsim REST API server.
type Server struct {
	router    chi.Router
	config    Config
	store     *history.Store // optional; runs are not recorded when nil
	startTime time.Time
}

// New creates a Server with all routes registered. st may be nil.
func New(cfg Config, st *history.Store) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		store:     st,
		startTime: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/policies", s.handlePolicies)
		r.Post("/simulations", s.handleSimulate)
		r.Get("/simulations", s.handleListSimulations)
		r.Get("/simulations/{id}", s.handleGetSimulation)
	})
}
