package sim

import "github.com/sirupsen/logrus"

// PriorityPolicy runs the highest-priority ready process. The current process
// keeps the processor until a ready process has a strictly higher priority, or
// until a resource protocol has just restored its baseline priority and a
// ready process is at least as important. Larger values are more important.
//
// The same rule backs the "prio", "pcp" and "pip" policies; they differ only
// in their arbiter.
type PriorityPolicy struct {
	basePolicy
}

func (pp *PriorityPolicy) Forked(s *Simulator, p *Process) {
	cur := s.Current
	if !continuing(cur) || p.Priority <= cur.Priority {
		return
	}
	logrus.Debugf("[tick %07d] pid %d (prio %d) preempts pid %d (prio %d)",
		s.Clock, p.PID, p.Priority, cur.PID, cur.Priority)
	s.Preempt(p)
}

func (pp *PriorityPolicy) Schedule(s *Simulator) *Process {
	cur := s.Current
	best := highestPriority(s.ReadyQ.Items())
	if !continuing(cur) {
		return s.take(best)
	}
	reverted := cur.PriorityReverted
	cur.PriorityReverted = false
	if best == nil {
		return cur
	}
	if best.Priority > cur.Priority || (reverted && best.Priority >= cur.Priority) {
		s.Requeue(cur)
		return s.take(best)
	}
	return cur
}

// AgingPolicy is PriorityPolicy with aging: before each selection the current
// process falls back to its baseline priority and every ready process gains
// one level, so waiting processes eventually overtake the current one.
// Resources are arbitrated first come, first served, like the default policy;
// NewPolicy gives aging the FCFSArbiter so a workload with acquisitions still runs.
type AgingPolicy struct {
	PriorityPolicy
}

func (ap *AgingPolicy) Schedule(s *Simulator) *Process {
	if cur := s.Current; cur != nil && cur.Status != StatusExited {
		cur.Priority = cur.BasePriority
	}
	for _, p := range s.ReadyQ.Items() {
		p.Priority++
	}
	return ap.PriorityPolicy.Schedule(s)
}

// highestPriority returns the first process with the largest priority, or nil
// if procs is empty.
func highestPriority(procs []*Process) *Process {
	var best *Process
	for _, p := range procs {
		if best == nil || p.Priority > best.Priority {
			best = p
		}
	}
	return best
}
