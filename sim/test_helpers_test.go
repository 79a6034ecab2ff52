package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedsim/sim/trace"
)

// runPolicy runs the processes under the named policy with per-tick
// invariant checks enabled and fails the test on any error.
func runPolicy(t *testing.T, policy string, procs ...*Process) *Result {
	t.Helper()
	s, err := NewSimulator(Config{CheckInvariants: true}, NewPolicy(policy), procs)
	require.NoError(t, err)
	res, err := s.Run()
	require.NoError(t, err)
	return res
}

func runOrder(res *Result) []int {
	return trace.Summarize(res.Trace).RunOrder
}

// eventTicks returns pid → tick of the first event of the given kind.
func eventTicks(res *Result, kind trace.EventKind) map[int]int64 {
	ticks := make(map[int]int64)
	for _, r := range res.Trace.Records {
		if _, ok := ticks[r.PID]; r.Kind == kind && !ok {
			ticks[r.PID] = r.Tick
		}
	}
	return ticks
}

// hold builds an acquire request of resource rid at age at for duration ticks.
func hold(rid, at, duration int) ResourceRequest {
	return ResourceRequest{ResourceID: rid, At: at, Duration: duration}
}
