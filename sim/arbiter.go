package sim

import (
	"github.com/sirupsen/logrus"
)

// Arbiter decides the outcome of resource acquisitions and releases for the
// running process.
//
// Acquire returns true when p becomes the owner. Otherwise p is marked
// Waiting and queued on the resource, and the engine treats the tick as blocked.
// Release must only be called by the owner; it frees the resource and wakes at
// most one waiter.
type Arbiter interface {
	Acquire(s *Simulator, p *Process, resourceID int) bool
	Release(s *Simulator, p *Process, resourceID int) error
}

// FCFSArbiter serves resources in request order without considering priority.
type FCFSArbiter struct{}

func (FCFSArbiter) Acquire(s *Simulator, p *Process, resourceID int) bool {
	r := s.Resources[resourceID]
	if r.Free() {
		r.Owner = p
		return true
	}
	s.block(p, r)
	return false
}

func (FCFSArbiter) Release(s *Simulator, p *Process, resourceID int) error {
	r := s.Resources[resourceID]
	if err := s.disown(p, r); err != nil {
		return err
	}
	if waiter := r.Waiters.Peek(); waiter != nil {
		return s.wake(waiter)
	}
	return nil
}

// PriorityArbiter grants free resources in request order and wakes the
// highest-priority waiter on release. Priorities are never boosted.
type PriorityArbiter struct{}

func (PriorityArbiter) Acquire(s *Simulator, p *Process, resourceID int) bool {
	return FCFSArbiter{}.Acquire(s, p, resourceID)
}

func (PriorityArbiter) Release(s *Simulator, p *Process, resourceID int) error {
	return releaseByPriority(s, p, resourceID)
}

// CeilingArbiter implements the priority ceiling protocol: the owner runs at
// MaxPriority while it holds the resource and the highest-priority waiter is
// woken on release.
type CeilingArbiter struct{}

func (CeilingArbiter) Acquire(s *Simulator, p *Process, resourceID int) bool {
	r := s.Resources[resourceID]
	if r.Free() {
		r.Owner = p
		elevate(p, MaxPriority)
		return true
	}
	s.block(p, r)
	return false
}

func (CeilingArbiter) Release(s *Simulator, p *Process, resourceID int) error {
	return releaseByPriority(s, p, resourceID)
}

// InheritanceArbiter implements the priority inheritance protocol: a blocked
// requester lends its priority to the owner until the owner releases.
type InheritanceArbiter struct{}

func (InheritanceArbiter) Acquire(s *Simulator, p *Process, resourceID int) bool {
	r := s.Resources[resourceID]
	if r.Free() {
		r.Owner = p
		return true
	}
	s.block(p, r)
	if p.Priority > r.Owner.Priority {
		elevate(r.Owner, p.Priority)
	}
	return false
}

func (InheritanceArbiter) Release(s *Simulator, p *Process, resourceID int) error {
	return releaseByPriority(s, p, resourceID)
}

// releaseByPriority restores the releaser to its baseline priority and wakes
// the highest-priority waiter.
func releaseByPriority(s *Simulator, p *Process, resourceID int) error {
	r := s.Resources[resourceID]
	if err := s.disown(p, r); err != nil {
		return err
	}
	if p.Elevated {
		logrus.WithFields(logrus.Fields{"pid": p.PID, "from": p.Priority, "to": p.BasePriority}).
			Debugf("[tick %07d] priority restored", s.Clock)
		p.Priority = p.BasePriority
		p.Elevated = false
		p.PriorityReverted = true
	}
	if waiter := highestPriority(r.Waiters.Items()); waiter != nil {
		return s.wake(waiter)
	}
	return nil
}

func elevate(p *Process, prio int) {
	if p.Priority >= prio {
		return
	}
	logrus.WithFields(logrus.Fields{"pid": p.PID, "from": p.Priority, "to": prio}).Debug("priority elevated")
	p.Priority = prio
	p.Elevated = true
}
