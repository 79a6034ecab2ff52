// Defines the Process struct that models a synthetic process in the simulation.
// Tracks lifecycle status, age, priority and the resource schedule of the process.

package sim

import (
	"fmt"
)

// ProcessStatus represents the lifecycle state of a process.
type ProcessStatus string

const (
	StatusReady   ProcessStatus = "ready"
	StatusRunning ProcessStatus = "running"
	StatusWaiting ProcessStatus = "waiting"
	StatusExited  ProcessStatus = "exited"
)

// Short returns the three-letter status tag used in status dumps.
func (s ProcessStatus) Short() string {
	switch s {
	case StatusReady:
		return "RDY"
	case StatusRunning:
		return "RUN"
	case StatusWaiting:
		return "WAT"
	case StatusExited:
		return "EXT"
	}
	return "???"
}

// ResourceRequest schedules the acquisition of a resource at a given age.
// While pending, Duration is the number of ticks to hold after acquisition;
// once held it counts down the remaining ticks until release.
type ResourceRequest struct {
	ResourceID int // Resource to acquire
	At         int // Process age at which the acquisition is attempted
	Duration   int // Ticks to hold the resource
}

// Process models a single process lifecycle in the simulation.
// Each process has:
// - a lifespan in ticks; it exits once Age reaches Lifespan
// - an effective and a baseline priority (larger is more important)
// - a resource schedule (Pending) and the resources it currently holds (Held)
type Process struct {
	PID    int           // Unique, caller-assigned process id
	Status ProcessStatus // ready, running, waiting, exited

	Age       int   // Number of ticks the process has been executed
	Lifespan  int   // Ticks required before the process exits
	StartTick int64 // Tick at which the process is forked

	Priority     int // Currently effective priority
	BasePriority int // Priority restored by aging and priority protocols

	// Elevated is set while a priority protocol holds Priority above BasePriority.
	Elevated bool
	// PriorityReverted is set when a protocol restored BasePriority. The priority
	// schedule rule consumes it on the next selection.
	PriorityReverted bool

	Pending []*ResourceRequest // Acquisitions not yet satisfied, in request order
	Held    []*ResourceRequest // Acquired resources with their remaining hold time

	queue *ProcessQueue // Queue currently holding the process, nil if none
}

// NewProcess creates a process in the ready state with both priorities set to prio.
func NewProcess(pid, lifespan, prio int, start int64, requests ...ResourceRequest) *Process {
	p := &Process{
		PID:          pid,
		Status:       StatusReady,
		Lifespan:     lifespan,
		StartTick:    start,
		Priority:     prio,
		BasePriority: prio,
	}
	for _, r := range requests {
		p.Pending = append(p.Pending, &r)
	}
	return p
}

// Remaining returns the number of ticks the process still has to run.
func (p *Process) Remaining() int {
	return p.Lifespan - p.Age
}

// Finished reports whether the process has run for its whole lifespan.
func (p *Process) Finished() bool {
	return p.Age >= p.Lifespan
}

// Queue returns the queue currently holding the process, or nil.
func (p *Process) Queue() *ProcessQueue {
	return p.queue
}

// Holds reports whether the process currently holds the resource.
func (p *Process) Holds(resourceID int) bool {
	for _, r := range p.Held {
		if r.ResourceID == resourceID {
			return true
		}
	}
	return false
}

// This method returns a human-readable string representation of a Process.
func (p *Process) String() string {
	return fmt.Sprintf("%2d (%s): %d + %d/%d at %d", p.PID, p.Status.Short(), p.StartTick, p.Age, p.Lifespan, p.Priority)
}
