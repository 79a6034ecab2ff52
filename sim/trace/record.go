// Package trace provides scheduling-trace recording for the simulator.
// This package has no dependencies on sim/ and only stores pure data types.
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// EventKind identifies what happened at a tick.
type EventKind string

const (
	EventFork    EventKind = "fork"    // process admitted to the ready queue
	EventExit    EventKind = "exit"    // process retired
	EventBlock   EventKind = "block"   // acquisition failed, the tick is lost
	EventRun     EventKind = "run"     // process executed one tick
	EventAcquire EventKind = "acquire" // resource acquired
	EventRelease EventKind = "release" // resource released
	EventIdle    EventKind = "idle"    // nothing to run
)

// Record is a single trace event.
// Resource is only meaningful for acquire and release events; PID is -1 for idle ticks.
type Record struct {
	Tick     int64     `json:"tick"`
	PID      int       `json:"pid"`
	Kind     EventKind `json:"kind"`
	Resource int       `json:"resource"`
}

// Event returns the short event mark printed in text traces.
func (r Record) Event() string {
	switch r.Kind {
	case EventFork:
		return "N"
	case EventExit:
		return "X"
	case EventBlock:
		return "="
	case EventRun:
		return strconv.Itoa(r.PID)
	case EventAcquire:
		return fmt.Sprintf("+%d", r.Resource)
	case EventRelease:
		return fmt.Sprintf("-%d", r.Resource)
	case EventIdle:
		return "idle"
	}
	return "?"
}

// Line renders the record as one text trace line. Process events are
// indented by four spaces per pid so that each process gets its own column.
func (r Record) Line() string {
	if r.Kind == EventIdle {
		return fmt.Sprintf("%3d: idle", r.Tick)
	}
	return fmt.Sprintf("%3d: %s%s", r.Tick, strings.Repeat("    ", max(r.PID, 0)), r.Event())
}
