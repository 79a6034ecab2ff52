// Package history records completed simulation runs in a SQLite database so
// that policies can be compared across runs.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/inference-sim/schedsim/sim"
)

// ErrNotFound is returned by GetRun for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Run is the stored summary of one simulation.
type Run struct {
	ID              string       `json:"id"`
	Policy          string       `json:"policy"`
	Workload        string       `json:"workload"`
	TraceDigest     string       `json:"trace_digest"` // hex sha256 of the text trace
	TotalTicks      int64        `json:"total_ticks"`
	IdleTicks       int64        `json:"idle_ticks"`
	BlockedTicks    int64        `json:"blocked_ticks"`
	ContextSwitches int64        `json:"context_switches"`
	Stuck           int          `json:"stuck"`
	Truncated       bool         `json:"truncated"`
	CreatedAt       time.Time    `json:"created_at"`
	Processes       []ProcessRow `json:"processes,omitempty"`
}

// ProcessRow is the stored outcome of one process of a run.
type ProcessRow struct {
	PID          int   `json:"pid"`
	Priority     int   `json:"priority"`
	Lifespan     int   `json:"lifespan"`
	ForkTick     int64 `json:"fork_tick"`
	FirstRunTick int64 `json:"first_run_tick"`
	ExitTick     int64 `json:"exit_tick"`
	RunTicks     int64 `json:"run_ticks"`
	BlockedTicks int64 `json:"blocked_ticks"`
}

// NewRun summarizes a simulation result under a fresh run id.
func NewRun(workload string, res *sim.Result) *Run {
	digest := sha256.Sum256([]byte(res.Trace.Text()))
	run := &Run{
		ID:              uuid.NewString(),
		Policy:          res.Policy,
		Workload:        workload,
		TraceDigest:     hex.EncodeToString(digest[:]),
		TotalTicks:      res.Metrics.TotalTicks,
		IdleTicks:       res.Metrics.IdleTicks,
		BlockedTicks:    res.Metrics.BlockedTicks,
		ContextSwitches: res.Metrics.ContextSwitches,
		Stuck:           len(res.Stuck),
		Truncated:       res.Truncated,
		CreatedAt:       time.Now().UTC(),
	}
	for _, pm := range res.Metrics.SortedProcesses() {
		run.Processes = append(run.Processes, ProcessRow{
			PID:          pm.PID,
			Priority:     pm.Priority,
			Lifespan:     pm.Lifespan,
			ForkTick:     pm.ForkTick,
			FirstRunTick: pm.FirstRunTick,
			ExitTick:     pm.ExitTick,
			RunTicks:     pm.RunTicks,
			BlockedTicks: pm.BlockedTicks,
		})
	}
	return run
}
