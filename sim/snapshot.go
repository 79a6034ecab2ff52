package sim

import (
	"fmt"
	"strings"
)

// ResourceState is the observable state of an owned or contended resource.
type ResourceState struct {
	ID      int
	Owner   int // -1 when free
	Waiters []int
}

// Snapshot is a point-in-time view of the scheduler state.
type Snapshot struct {
	Clock     int64
	Current   string // Process.String() of the current process, empty when idle
	Ready     []string
	Resources []ResourceState // only resources that are owned or have waiters
}

// Snapshot captures the current, ready and resource state.
func (sim *Simulator) Snapshot() Snapshot {
	snap := Snapshot{Clock: sim.Clock}
	if sim.Current != nil {
		snap.Current = sim.Current.String()
	}
	for _, p := range sim.ReadyQ.Items() {
		snap.Ready = append(snap.Ready, p.String())
	}
	for _, r := range sim.Resources {
		if r.Free() && r.Waiters.Len() == 0 {
			continue
		}
		owner := -1
		if r.Owner != nil {
			owner = r.Owner.PID
		}
		snap.Resources = append(snap.Resources, ResourceState{ID: r.ID, Owner: owner, Waiters: r.Waiters.PIDs()})
	}
	return snap
}

func (sn Snapshot) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "current: %q ready: [%s]", sn.Current, strings.Join(sn.Ready, ", "))
	for _, r := range sn.Resources {
		fmt.Fprintf(&sb, " r%d: owner %d waiters %v", r.ID, r.Owner, r.Waiters)
	}
	return sb.String()
}

// CheckInvariants verifies the structural invariants of the scheduler state:
//   - every queued process is linked to the queue holding it, exactly once
//   - ready-queue members are Ready and wait-queue members are Waiting
//   - the current process, when Running, is not queued
//   - a Ready process is either current or queued
//   - resource owners hold the resource and every held resource is owned by its holder
//
// It returns an error wrapping ErrInvariantViolation for the first violation found.
func (sim *Simulator) CheckInvariants() error {
	seen := make(map[*Process]string)
	checkQueue := func(q *ProcessQueue, status ProcessStatus) error {
		for _, p := range q.Items() {
			if prev, dup := seen[p]; dup {
				return invariantf(sim.Clock, "pid %d is in both %s and %s queues", p.PID, prev, q.Name())
			}
			seen[p] = q.Name()
			if p.queue != q {
				return invariantf(sim.Clock, "pid %d listed in %s queue but linked elsewhere", p.PID, q.Name())
			}
			if status != "" && p.Status != status {
				return invariantf(sim.Clock, "pid %d in %s queue is %s", p.PID, q.Name(), p.Status)
			}
		}
		return nil
	}
	if err := checkQueue(sim.ForkQ, ""); err != nil {
		return err
	}
	if err := checkQueue(sim.ReadyQ, StatusReady); err != nil {
		return err
	}
	for _, r := range sim.Resources {
		if err := checkQueue(r.Waiters, StatusWaiting); err != nil {
			return err
		}
		if r.Owner != nil && !r.Owner.Holds(r.ID) {
			return invariantf(sim.Clock, "resource %d owned by pid %d which does not hold it", r.ID, r.Owner.PID)
		}
	}

	if cur := sim.Current; cur != nil && cur.Status == StatusRunning && cur.queue != nil {
		return invariantf(sim.Clock, "running pid %d is in %s queue", cur.PID, cur.queue.Name())
	}
	for _, p := range sim.processes {
		if p.Status == StatusReady && p.queue == nil && p != sim.Current {
			return invariantf(sim.Clock, "ready pid %d is not queued", p.PID)
		}
		if p.Status == StatusWaiting && p.queue == nil {
			return invariantf(sim.Clock, "waiting pid %d is not queued", p.PID)
		}
		for _, h := range p.Held {
			if sim.Resources[h.ResourceID].Owner != p {
				return invariantf(sim.Clock, "pid %d holds resource %d without owning it", p.PID, h.ResourceID)
			}
		}
	}
	return nil
}
