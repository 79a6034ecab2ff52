package sim

import "github.com/sirupsen/logrus"

// FIFOPolicy runs processes to completion in ready-queue order.
// This is the default policy.
type FIFOPolicy struct {
	basePolicy
}

func (f *FIFOPolicy) Schedule(s *Simulator) *Process {
	if continuing(s.Current) {
		return s.Current
	}
	return s.ReadyQ.Dequeue()
}

// SJFPolicy runs the ready process with the smallest lifespan to completion.
// Warning: SJF can starve long processes under sustained load.
type SJFPolicy struct {
	basePolicy
}

func (j *SJFPolicy) Schedule(s *Simulator) *Process {
	if continuing(s.Current) {
		return s.Current
	}
	return s.take(shortest(s.ReadyQ.Items(), func(p *Process) int { return p.Lifespan }))
}

// SRTFPolicy selects the ready process with the smallest remaining time and
// lets a newly forked process preempt the current one when its lifespan is
// shorter than what the current process has left.
type SRTFPolicy struct {
	basePolicy
}

func (r *SRTFPolicy) Forked(s *Simulator, p *Process) {
	cur := s.Current
	if !continuing(cur) || p.Lifespan >= cur.Remaining() {
		return
	}
	logrus.Debugf("[tick %07d] pid %d (lifespan %d) preempts pid %d (%d remaining)",
		s.Clock, p.PID, p.Lifespan, cur.PID, cur.Remaining())
	s.Preempt(p)
}

func (r *SRTFPolicy) Schedule(s *Simulator) *Process {
	if continuing(s.Current) {
		return s.Current
	}
	return s.take(shortest(s.ReadyQ.Items(), (*Process).Remaining))
}

// RoundRobinPolicy time-slices the processor with a quantum of one tick.
type RoundRobinPolicy struct {
	basePolicy
}

func (rr *RoundRobinPolicy) Schedule(s *Simulator) *Process {
	if continuing(s.Current) {
		s.Requeue(s.Current)
	}
	return s.ReadyQ.Dequeue()
}

// shortest returns the first process with the smallest key, or nil if procs is empty.
func shortest(procs []*Process, key func(*Process) int) *Process {
	var best *Process
	for _, p := range procs {
		if best == nil || key(p) < key(best) {
			best = p
		}
	}
	return best
}
