package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/inference-sim/schedsim/sim"
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Store     string `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	store := "disabled"
	if s.store != nil {
		store = "sqlite"
	}
	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Store:     store,
	})
}

type policyInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
}

func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	names := sim.PolicyNames()
	out := make([]policyInfo, 0, len(names))
	for _, name := range names {
		out = append(out, policyInfo{
			Name:        name,
			Description: sim.PolicyDescriptions[name],
			Aliases:     sim.PolicyAliases(name),
		})
	}
	respondOK(w, reqID, out)
}
