// Tracks simulation-wide and per-process scheduling metrics such as
// turnaround, response and waiting times.

package sim

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
)

// ProcessMetrics records the lifecycle ticks of a single process.
// FirstRunTick and ExitTick are -1 until the event happens.
type ProcessMetrics struct {
	PID          int
	Lifespan     int
	Priority     int   // baseline priority
	ForkTick     int64 // tick of admission to the ready queue
	FirstRunTick int64 // first tick the process executed
	ExitTick     int64 // tick the process was retired
	RunTicks     int64 // ticks executed
	BlockedTicks int64 // ticks lost to failed acquisitions
}

// Turnaround is the number of ticks from fork to exit, or -1 if the process never exited.
func (pm *ProcessMetrics) Turnaround() int64 {
	if pm.ExitTick < 0 {
		return -1
	}
	return pm.ExitTick - pm.ForkTick
}

// Response is the number of ticks from fork to first execution, or -1 if the process never ran.
func (pm *ProcessMetrics) Response() int64 {
	if pm.FirstRunTick < 0 {
		return -1
	}
	return pm.FirstRunTick - pm.ForkTick
}

// Waiting is the number of ticks between fork and exit the process did not execute,
// or -1 if the process never exited.
func (pm *ProcessMetrics) Waiting() int64 {
	if pm.ExitTick < 0 {
		return -1
	}
	return pm.Turnaround() - pm.RunTicks
}

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	TotalTicks      int64 // clock value at the end of the run
	IdleTicks       int64 // ticks with nothing to run
	BlockedTicks    int64 // ticks lost to failed acquisitions
	ContextSwitches int64 // dispatches of a process other than the previous one
	Preemptions     int64 // forced handoffs on fork

	Processes map[int]*ProcessMetrics // pid -> metrics
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Processes: make(map[int]*ProcessMetrics)}
}

func (m *Metrics) forked(p *Process, clock int64) {
	m.Processes[p.PID] = &ProcessMetrics{
		PID:          p.PID,
		Lifespan:     p.Lifespan,
		Priority:     p.BasePriority,
		ForkTick:     clock,
		FirstRunTick: -1,
		ExitTick:     -1,
	}
}

func (m *Metrics) ran(p *Process, clock int64) {
	pm := m.Processes[p.PID]
	if pm.FirstRunTick < 0 {
		pm.FirstRunTick = clock
	}
	pm.RunTicks++
}

func (m *Metrics) blocked(p *Process) {
	m.BlockedTicks++
	m.Processes[p.PID].BlockedTicks++
}

func (m *Metrics) exited(p *Process, clock int64) {
	m.Processes[p.PID].ExitTick = clock
}

// SortedProcesses returns the per-process metrics ordered by pid.
func (m *Metrics) SortedProcesses() []*ProcessMetrics {
	pids := make([]int, 0, len(m.Processes))
	for pid := range m.Processes {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	out := make([]*ProcessMetrics, len(pids))
	for i, pid := range pids {
		out[i] = m.Processes[pid]
	}
	return out
}

// Utilization is the fraction of ticks spent executing a process.
func (m *Metrics) Utilization() float64 {
	if m.TotalTicks == 0 {
		return 0
	}
	return float64(m.TotalTicks-m.IdleTicks-m.BlockedTicks) / float64(m.TotalTicks)
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(w io.Writer) {
	var turnaround, response, waiting []int64
	for _, pm := range m.SortedProcesses() {
		if pm.ExitTick >= 0 {
			turnaround = append(turnaround, pm.Turnaround())
			waiting = append(waiting, pm.Waiting())
		}
		if pm.FirstRunTick >= 0 {
			response = append(response, pm.Response())
		}
	}
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Total Ticks          : %d\n", m.TotalTicks)
	fmt.Fprintf(w, "Idle Ticks           : %d\n", m.IdleTicks)
	fmt.Fprintf(w, "Blocked Ticks        : %d\n", m.BlockedTicks)
	fmt.Fprintf(w, "Context Switches     : %d\n", m.ContextSwitches)
	fmt.Fprintf(w, "Utilization          : %.2f%%\n", 100*m.Utilization())
	if len(turnaround) > 0 {
		fmt.Fprintf(w, "Average Turnaround   : %.2f ticks\n", CalculateMean(turnaround))
		fmt.Fprintf(w, "P90 Turnaround       : %.2f ticks\n", CalculatePercentile(sorted(turnaround), 90))
		fmt.Fprintf(w, "Average Waiting      : %.2f ticks\n", CalculateMean(waiting))
	}
	if len(response) > 0 {
		fmt.Fprintf(w, "Average Response     : %.2f ticks\n", CalculateMean(response))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "pid\tprio\tfork\tfirst run\texit\trun\tblocked\tturnaround\twaiting\t")
	for _, pm := range m.SortedProcesses() {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			pm.PID, pm.Priority, pm.ForkTick, pm.FirstRunTick, pm.ExitTick,
			pm.RunTicks, pm.BlockedTicks, pm.Turnaround(), pm.Waiting())
	}
	_ = tw.Flush()
}

func sorted[T IntOrFloat64](data []T) []T {
	out := slices.Clone(data)
	slices.Sort(out)
	return out
}
