package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/schedsim/sim/trace"
)

// Result is the outcome of a completed Run.
type Result struct {
	Policy    string
	Ticks     int64 // clock value when the run ended
	Trace     *trace.SimulationTrace
	Metrics   *Metrics
	Truncated bool  // the horizon was reached before the workload drained
	Stuck     []int // pids that never exited, in workload order
}

// Simulator is the core object that holds simulation time, the process
// queues, the resource pool and the active policy.
// A Simulator runs once and is not safe for concurrent use.
type Simulator struct {
	Clock     int64
	Current   *Process // process selected for the last tick, nil when idle
	ReadyQ    *ProcessQueue
	ForkQ     *ProcessQueue
	Resources ResourceTable
	Trace     *trace.SimulationTrace
	Metrics   *Metrics

	config    Config
	policy    Policy
	processes []*Process // workload order
	lastRun   *Process   // last dispatched process, for context-switch accounting
	truncated bool
}

// NewSimulator creates a Simulator for the given processes. Processes are held
// in the fork queue, in the given order, until the clock reaches their start tick.
func NewSimulator(cfg Config, policy Policy, processes []*Process) (*Simulator, error) {
	if policy == nil {
		return nil, errors.New("policy must not be nil")
	}
	if cfg.Horizon < 0 {
		return nil, fmt.Errorf("horizon must be >= 0, got %d", cfg.Horizon)
	}
	sim := &Simulator{
		ReadyQ:    NewProcessQueue("ready"),
		ForkQ:     NewProcessQueue("fork"),
		Resources: newResourceTable(),
		Trace:     trace.NewSimulationTrace(),
		Metrics:   NewMetrics(),
		config:    cfg,
		policy:    policy,
	}
	seen := make(map[int]bool, len(processes))
	for i, p := range processes {
		if err := validateProcess(p); err != nil {
			return nil, fmt.Errorf("process #%d: %w", i, err)
		}
		if seen[p.PID] {
			return nil, fmt.Errorf("duplicate pid %d", p.PID)
		}
		seen[p.PID] = true
		sim.ForkQ.Enqueue(p)
		sim.processes = append(sim.processes, p)
	}
	return sim, nil
}

func validateProcess(p *Process) error {
	switch {
	case p == nil:
		return errors.New("process must not be nil")
	case p.PID < 0:
		return fmt.Errorf("pid must be >= 0, got %d", p.PID)
	case p.Lifespan < 1:
		return fmt.Errorf("pid %d: lifespan must be >= 1, got %d", p.PID, p.Lifespan)
	case p.StartTick < 0:
		return fmt.Errorf("pid %d: start must be >= 0, got %d", p.PID, p.StartTick)
	case p.Status != StatusReady || p.Age != 0 || p.queue != nil || len(p.Held) > 0:
		return fmt.Errorf("pid %d: process already ran", p.PID)
	}
	for _, r := range p.Pending {
		if !IsValidResource(r.ResourceID) {
			return fmt.Errorf("pid %d: resource %d out of range [0, %d)", p.PID, r.ResourceID, NumResources)
		}
		if r.At < 0 || r.Duration < 1 || r.At+r.Duration > p.Lifespan {
			return fmt.Errorf("pid %d: acquire %d at %d for %d does not fit lifespan %d",
				p.PID, r.ResourceID, r.At, r.Duration, p.Lifespan)
		}
	}
	return nil
}

// Policy returns the active policy.
func (sim *Simulator) Policy() Policy {
	return sim.policy
}

// Processes returns every process of the workload in workload order.
func (sim *Simulator) Processes() []*Process {
	return sim.processes
}

// Run drives the tick loop until no process is ready or waiting to be forked,
// or until the horizon is reached. It returns an error wrapping
// ErrInvariantViolation when the policy or the engine breaks an invariant.
func (sim *Simulator) Run() (*Result, error) {
	if err := sim.policy.Initialize(sim); err != nil {
		return nil, fmt.Errorf("initializing policy %s: %w", sim.policy.Name(), err)
	}
	logrus.Infof("[tick %07d] Simulation started: %s, %d processes", sim.Clock, sim.policy.Name(), len(sim.processes))

	for {
		if sim.config.Horizon > 0 && sim.Clock >= sim.config.Horizon {
			sim.truncated = true
			logrus.Warnf("[tick %07d] Horizon reached with %d ready and %d unforked processes",
				sim.Clock, sim.ReadyQ.Len(), sim.ForkQ.Len())
			break
		}
		halted, err := sim.Step()
		if err != nil {
			return nil, err
		}
		if halted {
			break
		}
		if sim.config.CheckInvariants {
			if err := sim.CheckInvariants(); err != nil {
				return nil, err
			}
		}
		if logrus.IsLevelEnabled(logrus.TraceLevel) {
			logrus.Tracef("[tick %07d] %s", sim.Clock, sim.Snapshot())
		}
	}
	sim.policy.Finalize(sim)

	res := &Result{
		Policy:    sim.policy.Name(),
		Ticks:     sim.Clock,
		Trace:     sim.Trace,
		Metrics:   sim.Metrics,
		Truncated: sim.truncated,
	}
	sim.Metrics.TotalTicks = sim.Clock
	if !sim.truncated {
		for _, p := range sim.processes {
			if p.Status != StatusExited {
				res.Stuck = append(res.Stuck, p.PID)
			}
		}
		if len(res.Stuck) > 0 {
			logrus.Warnf("[tick %07d] Simulation ended with blocked processes %v: resource deadlock", sim.Clock, res.Stuck)
		}
	}
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
	return res, nil
}

// Step executes a single tick. It reports halted=true when there is nothing
// left to run; the clock is not advanced in that case.
func (sim *Simulator) Step() (halted bool, err error) {
	sim.admit()

	prev := sim.Current
	next := sim.policy.Schedule(sim)
	sim.Current = next

	if prev != nil && prev != next && prev.Status == StatusRunning {
		prev.Status = StatusReady
	}
	if prev != nil && prev.Finished() && prev.Status != StatusExited {
		if err := sim.retire(prev); err != nil {
			return false, err
		}
	}

	if next == nil {
		if sim.ReadyQ.Len() == 0 && sim.ForkQ.Len() == 0 {
			return true, nil
		}
		if sim.ForkQ.Len() == 0 {
			return false, invariantf(sim.Clock, "policy %s selected nothing with ready processes %s",
				sim.policy.Name(), sim.ReadyQ)
		}
		sim.Trace.RecordIdle(sim.Clock)
		sim.Metrics.IdleTicks++
		sim.Clock++
		return false, nil
	}

	if err := sim.execute(next); err != nil {
		return false, err
	}
	sim.Clock++
	return false, nil
}

// admit moves every process whose start tick has come from the fork queue to
// the ready queue.
func (sim *Simulator) admit() {
	for _, p := range slices.Clone(sim.ForkQ.Items()) {
		if p.StartTick > sim.Clock {
			continue
		}
		p.Status = StatusReady
		sim.ReadyQ.Enqueue(p)
		sim.Trace.RecordFork(sim.Clock, p.PID)
		sim.Metrics.forked(p, sim.Clock)
		logrus.Debugf("[tick %07d] Forked pid %d", sim.Clock, p.PID)
		sim.policy.Forked(sim, p)
	}
}

func (sim *Simulator) execute(p *Process) error {
	switch {
	case p.Status == StatusExited:
		return invariantf(sim.Clock, "policy %s selected exited pid %d", sim.policy.Name(), p.PID)
	case p.Status == StatusWaiting:
		return invariantf(sim.Clock, "policy %s selected waiting pid %d", sim.policy.Name(), p.PID)
	case p.queue != nil:
		return invariantf(sim.Clock, "selected pid %d is still in %s queue", p.PID, p.queue.Name())
	}
	p.Status = StatusRunning
	if sim.lastRun != nil && sim.lastRun != p {
		sim.Metrics.ContextSwitches++
	}
	sim.lastRun = p

	for i := 0; i < len(p.Pending); {
		req := p.Pending[i]
		if req.At != p.Age {
			i++
			continue
		}
		arbiter := sim.policy.Arbiter()
		if arbiter == nil {
			return invariantf(sim.Clock, "policy %s has no arbiter for the acquisition of resource %d by pid %d",
				sim.policy.Name(), req.ResourceID, p.PID)
		}
		if !arbiter.Acquire(sim, p, req.ResourceID) {
			sim.Trace.RecordBlock(sim.Clock, p.PID)
			sim.Metrics.blocked(p)
			logrus.WithFields(logrus.Fields{"pid": p.PID, "resource": req.ResourceID}).
				Debugf("[tick %07d] Blocked", sim.Clock)
			return nil
		}
		p.Pending = slices.Delete(p.Pending, i, i+1)
		p.Held = append(p.Held, req)
		sim.Trace.RecordAcquire(sim.Clock, p.PID, req.ResourceID)
	}

	sim.Trace.RecordRun(sim.Clock, p.PID)
	sim.Metrics.ran(p, sim.Clock)
	p.Age++

	var expired []*ResourceRequest
	held := p.Held[:0]
	for _, h := range p.Held {
		h.Duration--
		if h.Duration == 0 {
			expired = append(expired, h)
		} else {
			held = append(held, h)
		}
	}
	p.Held = held
	for _, h := range expired {
		if err := sim.policy.Arbiter().Release(sim, p, h.ResourceID); err != nil {
			return err
		}
		sim.Trace.RecordRelease(sim.Clock, p.PID, h.ResourceID)
	}
	return nil
}

func (sim *Simulator) retire(p *Process) error {
	if len(p.Held) > 0 || len(p.Pending) > 0 {
		return invariantf(sim.Clock, "pid %d exits with %d held and %d pending resources", p.PID, len(p.Held), len(p.Pending))
	}
	if p.queue != nil {
		return invariantf(sim.Clock, "pid %d exits while in %s queue", p.PID, p.queue.Name())
	}
	for _, r := range sim.Resources {
		if r.Owner == p {
			return invariantf(sim.Clock, "pid %d exits owning resource %d", p.PID, r.ID)
		}
	}
	p.Status = StatusExited
	sim.policy.Exiting(sim, p)
	sim.Trace.RecordExit(sim.Clock, p.PID)
	sim.Metrics.exited(p, sim.Clock)
	logrus.Debugf("[tick %07d] Exited pid %d", sim.Clock, p.PID)
	return nil
}

// Requeue appends p to the ready queue as a Ready process.
func (sim *Simulator) Requeue(p *Process) {
	p.Status = StatusReady
	sim.ReadyQ.Enqueue(p)
}

// Preempt hands the processor to the ready process p. The current process,
// if any, goes back to the tail of the ready queue.
func (sim *Simulator) Preempt(p *Process) {
	cur := sim.Current
	sim.ReadyQ.Remove(p)
	if cur != nil && cur.Status == StatusRunning {
		sim.Requeue(cur)
	}
	p.Status = StatusRunning
	sim.Current = p
	sim.Metrics.Preemptions++
}

// take removes p from the ready queue and returns it. Returns nil for nil.
func (sim *Simulator) take(p *Process) *Process {
	if p != nil {
		sim.ReadyQ.Remove(p)
	}
	return p
}

// block parks p on the wait queue of r.
func (sim *Simulator) block(p *Process, r *Resource) {
	p.Status = StatusWaiting
	r.Waiters.Enqueue(p)
}

// wake moves a waiter back to the ready queue.
func (sim *Simulator) wake(p *Process) error {
	if p.Status != StatusWaiting {
		return invariantf(sim.Clock, "waking pid %d in state %s", p.PID, p.Status)
	}
	sim.Requeue(p)
	logrus.Debugf("[tick %07d] Woke pid %d", sim.Clock, p.PID)
	return nil
}

// disown clears the owner of r, which must be p.
func (sim *Simulator) disown(p *Process, r *Resource) error {
	if r.Owner != p {
		owner := -1
		if r.Owner != nil {
			owner = r.Owner.PID
		}
		return invariantf(sim.Clock, "pid %d releases resource %d owned by pid %d", p.PID, r.ID, owner)
	}
	r.Owner = nil
	return nil
}
