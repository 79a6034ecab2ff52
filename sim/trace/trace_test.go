package trace

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Line_IndentsByPID(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{"fork pid 0", Record{Tick: 0, PID: 0, Kind: EventFork}, "  0: N"},
		{"run pid 2", Record{Tick: 7, PID: 2, Kind: EventRun}, "  7:         2"},
		{"exit pid 1", Record{Tick: 12, PID: 1, Kind: EventExit}, " 12:     X"},
		{"block", Record{Tick: 3, PID: 1, Kind: EventBlock}, "  3:     ="},
		{"acquire", Record{Tick: 4, PID: 0, Kind: EventAcquire, Resource: 3}, "  4: +3"},
		{"release", Record{Tick: 5, PID: 1, Kind: EventRelease, Resource: 15}, "  5:     -15"},
		{"idle", Record{Tick: 100, PID: -1, Kind: EventIdle}, "100: idle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Line())
		})
	}
}

func TestSimulationTrace_Text_OneLinePerRecord(t *testing.T) {
	// GIVEN a single process that forks, runs twice and exits
	st := NewSimulationTrace()
	st.RecordFork(0, 0)
	st.RecordRun(0, 0)
	st.RecordRun(1, 0)
	st.RecordExit(2, 0)

	// WHEN rendered as text
	got := st.Text()

	// THEN each event is on its own line in emission order
	assert.Equal(t, "  0: N\n  0: 0\n  1: 0\n  2: X\n", got)
}

func TestSimulationTrace_WriteJSON_EmitsRecordsArray(t *testing.T) {
	// GIVEN a trace with an acquire and an idle tick
	st := NewSimulationTrace()
	st.RecordAcquire(1, 2, 5)
	st.RecordIdle(2)

	// WHEN encoded as JSON
	var buf bytes.Buffer
	require.NoError(t, st.WriteJSON(&buf))

	// THEN decoding yields the same records
	var got []Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, st.Records, got)
	assert.Contains(t, buf.String(), `"kind": "acquire"`)
}

func TestSimulationTrace_Empty_RendersNothing(t *testing.T) {
	st := NewSimulationTrace()
	assert.Empty(t, st.Text())

	var buf bytes.Buffer
	require.NoError(t, st.WriteJSON(&buf))
	assert.Equal(t, "[]\n", buf.String())
}
