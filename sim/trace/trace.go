package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// SimulationTrace collects the events of a simulation run in emission order.
type SimulationTrace struct {
	Records []Record
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace() *SimulationTrace {
	return &SimulationTrace{Records: make([]Record, 0)}
}

// Add appends a record.
func (st *SimulationTrace) Add(record Record) {
	st.Records = append(st.Records, record)
}

func (st *SimulationTrace) RecordFork(tick int64, pid int) {
	st.Add(Record{Tick: tick, PID: pid, Kind: EventFork})
}

func (st *SimulationTrace) RecordExit(tick int64, pid int) {
	st.Add(Record{Tick: tick, PID: pid, Kind: EventExit})
}

func (st *SimulationTrace) RecordBlock(tick int64, pid int) {
	st.Add(Record{Tick: tick, PID: pid, Kind: EventBlock})
}

func (st *SimulationTrace) RecordRun(tick int64, pid int) {
	st.Add(Record{Tick: tick, PID: pid, Kind: EventRun})
}

func (st *SimulationTrace) RecordAcquire(tick int64, pid, resourceID int) {
	st.Add(Record{Tick: tick, PID: pid, Kind: EventAcquire, Resource: resourceID})
}

func (st *SimulationTrace) RecordRelease(tick int64, pid, resourceID int) {
	st.Add(Record{Tick: tick, PID: pid, Kind: EventRelease, Resource: resourceID})
}

func (st *SimulationTrace) RecordIdle(tick int64) {
	st.Add(Record{Tick: tick, PID: -1, Kind: EventIdle})
}

// WriteText writes one line per record.
func (st *SimulationTrace) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, r := range st.Records {
		if _, err := fmt.Fprintln(bw, r.Line()); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	return bw.Flush()
}

// Text returns the text rendering of the trace.
func (st *SimulationTrace) Text() string {
	var sb strings.Builder
	_ = st.WriteText(&sb)
	return sb.String()
}

// WriteJSON writes the records as an indented JSON array.
func (st *SimulationTrace) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st.Records); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return nil
}
