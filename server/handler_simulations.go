package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/schedsim/sim"
	"github.com/inference-sim/schedsim/sim/history"
	"github.com/inference-sim/schedsim/sim/trace"
	"github.com/inference-sim/schedsim/sim/workload"
)

const defaultListLimit = 20

type processResult struct {
	PID          int   `json:"pid"`
	Priority     int   `json:"priority"`
	Lifespan     int   `json:"lifespan"`
	ForkTick     int64 `json:"fork_tick"`
	FirstRunTick int64 `json:"first_run_tick"`
	ExitTick     int64 `json:"exit_tick"`
	Turnaround   int64 `json:"turnaround"`
	Response     int64 `json:"response"`
	Waiting      int64 `json:"waiting"`
}

type metricsResult struct {
	TotalTicks      int64           `json:"total_ticks"`
	IdleTicks       int64           `json:"idle_ticks"`
	BlockedTicks    int64           `json:"blocked_ticks"`
	ContextSwitches int64           `json:"context_switches"`
	Preemptions     int64           `json:"preemptions"`
	Utilization     float64         `json:"utilization"`
	Processes       []processResult `json:"processes"`
}

type simulationResponse struct {
	RunID     string         `json:"run_id,omitempty"`
	Policy    string         `json:"policy"`
	Workload  string         `json:"workload"`
	Ticks     int64          `json:"ticks"`
	Truncated bool           `json:"truncated"`
	Stuck     []int          `json:"stuck"`
	Trace     []trace.Record `json:"trace"`
	RunOrder  []int          `json:"run_order"`
	Metrics   metricsResult  `json:"metrics"`
}

// handleSimulate runs the workload in the request body. The body is a process
// script unless the content type names YAML.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	q := r.URL.Query()

	policyName := q.Get("policy")
	if !sim.IsValidPolicy(policyName) {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation,
			fmt.Sprintf("unknown policy %q; valid policies: %s", policyName, strings.Join(sim.PolicyNames(), ", ")))
		return
	}

	horizon := s.config.Horizon
	if v := q.Get("horizon"); v != "" {
		h, err := strconv.ParseInt(v, 10, 64)
		if err != nil || h < 0 {
			respondError(w, reqID, http.StatusBadRequest, ErrValidation, "horizon must be a non-negative integer")
			return
		}
		if s.config.Horizon == 0 || (h > 0 && h < s.config.Horizon) {
			horizon = h
		}
	}

	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}
	var (
		spec *workload.WorkloadSpec
		err  error
	)
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		spec, err = workload.ParseWorkloadSpec(r.Body)
	} else {
		spec, err = workload.ParseScript(r.Body)
	}
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "invalid workload: "+err.Error())
		return
	}
	if name := q.Get("name"); name != "" {
		spec.Name = name
	}

	simulator, err := sim.NewSimulator(sim.Config{
		Horizon:         horizon,
		CheckInvariants: s.config.CheckInvariants,
	}, sim.NewPolicy(policyName), spec.NewProcesses())
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, err.Error())
		return
	}
	res, err := simulator.Run()
	if err != nil {
		if errors.Is(err, sim.ErrInvariantViolation) {
			respondError(w, reqID, http.StatusUnprocessableEntity, ErrInvariant, err.Error())
			return
		}
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
		return
	}

	resp := newSimulationResponse(spec.Name, res)
	if s.store != nil {
		run := history.NewRun(spec.Name, res)
		if err := s.store.SaveRun(r.Context(), run); err != nil {
			respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
			return
		}
		resp.RunID = run.ID
	}
	logrus.WithFields(logrus.Fields{
		"request_id": reqID,
		"policy":     res.Policy,
		"ticks":      res.Ticks,
	}).Debug("simulation complete")
	respondOK(w, reqID, resp)
}

func newSimulationResponse(name string, res *sim.Result) simulationResponse {
	m := res.Metrics
	procs := make([]processResult, 0, len(m.Processes))
	for _, pm := range m.SortedProcesses() {
		procs = append(procs, processResult{
			PID:          pm.PID,
			Priority:     pm.Priority,
			Lifespan:     pm.Lifespan,
			ForkTick:     pm.ForkTick,
			FirstRunTick: pm.FirstRunTick,
			ExitTick:     pm.ExitTick,
			Turnaround:   pm.Turnaround(),
			Response:     pm.Response(),
			Waiting:      pm.Waiting(),
		})
	}
	stuck := res.Stuck
	if stuck == nil {
		stuck = []int{}
	}
	return simulationResponse{
		Policy:    res.Policy,
		Workload:  name,
		Ticks:     res.Ticks,
		Truncated: res.Truncated,
		Stuck:     stuck,
		Trace:     res.Trace.Records,
		RunOrder:  trace.Summarize(res.Trace).RunOrder,
		Metrics: metricsResult{
			TotalTicks:      m.TotalTicks,
			IdleTicks:       m.IdleTicks,
			BlockedTicks:    m.BlockedTicks,
			ContextSwitches: m.ContextSwitches,
			Preemptions:     m.Preemptions,
			Utilization:     m.Utilization(),
			Processes:       procs,
		},
	}
}

func (s *Server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, reqID, http.StatusBadRequest, ErrValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if s.store == nil {
		respondOK(w, reqID, []*history.Run{})
		return
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}
	respondOK(w, reqID, runs)
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if s.store == nil {
		respondError(w, reqID, http.StatusNotFound, ErrNotFound, fmt.Sprintf("run %q not found", id))
		return
	}
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		respondError(w, reqID, http.StatusNotFound, ErrNotFound, fmt.Sprintf("run %q not found", id))
		return
	}
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, err.Error())
		return
	}
	respondOK(w, reqID, run)
}
