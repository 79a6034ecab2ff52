package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedsim/sim"
	"github.com/inference-sim/schedsim/sim/trace"
)

func TestSimulate_UnknownPolicy(t *testing.T) {
	_, err := simulate(pairSpec(), "lottery", sim.Config{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown policy "lottery"`)
	assert.Contains(t, err.Error(), "fifo, sjf")
}

func TestSimulate_AliasRunsCanonicalPolicy(t *testing.T) {
	res, err := simulate(pairSpec(), "r", sim.Config{CheckInvariants: true})

	require.NoError(t, err)
	assert.Equal(t, "rr", res.Policy)
	assert.Equal(t, []int{0, 1, 0, 1}, trace.Summarize(res.Trace).RunOrder)
}

func TestSimulate_InvalidWorkloadRejectedBySimulator(t *testing.T) {
	spec := pairSpec()
	spec.Processes[1].Lifespan = 0

	_, err := simulate(spec, "fifo", sim.Config{})

	assert.Error(t, err)
	assert.False(t, errors.Is(err, sim.ErrInvariantViolation))
}

func TestWriteRun_Text(t *testing.T) {
	// GIVEN a completed FIFO run
	res, err := simulate(pairSpec(), "fifo", sim.Config{})
	require.NoError(t, err)

	// WHEN rendered in text mode
	var buf bytes.Buffer
	require.NoError(t, writeRun(&buf, runOptions{format: "text"}, pairSpec(), res))
	out := buf.String()

	// THEN banner, legend, briefing, trace and summary appear in order
	banner := strings.Index(out, "Simulating First-In First-Out scheduler")
	briefing := strings.Index(out, "- Process 1: Forked at tick 0 and run for 2 ticks with initial priority 3")
	traceAt := strings.Index(out, res.Trace.Text())
	summary := strings.Index(out, "=== Simulation Metrics ===")
	assert.True(t, banner >= 0 && banner < briefing && briefing < traceAt && traceAt < summary, out)
	assert.Contains(t, out, "  +n: Acquire resource n")
	assert.NotContains(t, out, "Deadlock")
}

func TestWriteRun_QuietPrintsOnlyTrace(t *testing.T) {
	res, err := simulate(pairSpec(), "sjf", sim.Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeRun(&buf, runOptions{format: "text", quiet: true}, pairSpec(), res))

	assert.Equal(t, res.Trace.Text(), buf.String())
}

func TestWriteRun_JSON(t *testing.T) {
	res, err := simulate(pairSpec(), "fifo", sim.Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeRun(&buf, runOptions{format: "json"}, pairSpec(), res))

	var records []trace.Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	assert.Equal(t, res.Trace.Records, records)
}

func TestWriteRun_ReportsTruncationAndDeadlock(t *testing.T) {
	res, err := simulate(pairSpec(), "fifo", sim.Config{Horizon: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeRun(&buf, runOptions{format: "text"}, pairSpec(), res))
	assert.Contains(t, buf.String(), "Horizon reached at tick 1")

	res.Truncated = false
	res.Stuck = []int{1}
	buf.Reset()
	require.NoError(t, writeRun(&buf, runOptions{format: "text"}, pairSpec(), res))
	assert.Contains(t, buf.String(), "Deadlock: processes [1] never finished")
}

func TestRecordRun_ThenListHistory(t *testing.T) {
	// GIVEN two runs recorded in a fresh database
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "history.db")
	for _, policy := range []string{"fifo", "rr"} {
		res, err := simulate(pairSpec(), policy, sim.Config{})
		require.NoError(t, err)
		_, err = recordRun(ctx, db, "pair", res)
		require.NoError(t, err)
	}

	// WHEN the history is listed
	st, err := openHistory(ctx, db)
	require.NoError(t, err)
	defer st.Close()
	var buf bytes.Buffer
	require.NoError(t, writeHistory(ctx, &buf, st, 0))

	// THEN both runs appear under the table header
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, buf.String(), "fifo")
	assert.Contains(t, buf.String(), "rr")
}

func TestWriteHistory_Empty(t *testing.T) {
	ctx := context.Background()
	st, err := openHistory(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer st.Close()

	var buf bytes.Buffer
	require.NoError(t, writeHistory(ctx, &buf, st, 5))

	assert.Equal(t, "No runs recorded\n", buf.String())
}
