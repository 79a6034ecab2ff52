// Implements the ProcessQueue used for the ready queue, the fork queue and the
// resource wait queues.

package sim

import (
	"fmt"
	"strings"
)

// ProcessQueue is an ordered queue of processes.
// A process belongs to at most one ProcessQueue at a time: Enqueue detaches
// the process from the queue currently holding it before appending it.
type ProcessQueue struct {
	name  string
	queue []*Process
}

// NewProcessQueue creates an empty queue. The name appears in logs and dumps.
func NewProcessQueue(name string) *ProcessQueue {
	return &ProcessQueue{name: name}
}

// Name returns the queue name.
func (pq *ProcessQueue) Name() string {
	return pq.name
}

// Enqueue appends p to the back of the queue, moving it out of any other queue.
func (pq *ProcessQueue) Enqueue(p *Process) {
	if p == nil {
		panic("Enqueue: process must not be nil")
	}
	if p.queue != nil {
		p.queue.Remove(p)
	}
	pq.queue = append(pq.queue, p)
	p.queue = pq
}

// Remove detaches p from the queue. It reports whether p was a member.
func (pq *ProcessQueue) Remove(p *Process) bool {
	if p.queue != pq {
		return false
	}
	for i, q := range pq.queue {
		if q == p {
			pq.queue = append(pq.queue[:i], pq.queue[i+1:]...)
			p.queue = nil
			return true
		}
	}
	panic(fmt.Sprintf("Remove: process %d claims membership of %s but is not linked", p.PID, pq.name))
}

// Dequeue removes and returns the process at the front of the queue.
// Returns nil if the queue is empty.
func (pq *ProcessQueue) Dequeue() *Process {
	if len(pq.queue) == 0 {
		return nil
	}
	p := pq.queue[0]
	pq.queue = pq.queue[1:]
	p.queue = nil
	return p
}

// Peek returns the process at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (pq *ProcessQueue) Peek() *Process {
	if len(pq.queue) == 0 {
		return nil
	}
	return pq.queue[0]
}

// Len returns the number of processes in the queue.
func (pq *ProcessQueue) Len() int {
	return len(pq.queue)
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers MUST NOT
// append to or reslice it. Use Enqueue/Remove to change membership.
func (pq *ProcessQueue) Items() []*Process {
	return pq.queue
}

// Contains reports whether p is queued here.
func (pq *ProcessQueue) Contains(p *Process) bool {
	return p.queue == pq
}

// PIDs returns the process ids in queue order.
func (pq *ProcessQueue) PIDs() []int {
	pids := make([]int, len(pq.queue))
	for i, p := range pq.queue {
		pids[i] = p.PID
	}
	return pids
}

func (pq *ProcessQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, p := range pq.queue {
		sb.WriteString(fmt.Sprint(p.PID))
		if i < len(pq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
