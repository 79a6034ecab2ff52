package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedsim/sim/trace"
)

func TestNewSimulator_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		procs   []*Process
		wantErr string
	}{
		{"nil policy", nil, nil, "policy must not be nil"},
		{"nil process", NewPolicy("fifo"), []*Process{nil}, "process must not be nil"},
		{"duplicate pid", NewPolicy("fifo"), []*Process{NewProcess(1, 1, 0, 0), NewProcess(1, 2, 0, 0)}, "duplicate pid 1"},
		{"negative pid", NewPolicy("fifo"), []*Process{NewProcess(-1, 1, 0, 0)}, "pid must be >= 0"},
		{"zero lifespan", NewPolicy("fifo"), []*Process{NewProcess(0, 0, 0, 0)}, "lifespan must be >= 1"},
		{"negative start", NewPolicy("fifo"), []*Process{NewProcess(0, 1, 0, -1)}, "start must be >= 0"},
		{"resource out of range", NewPolicy("fifo"), []*Process{NewProcess(0, 3, 0, 0, hold(NumResources, 0, 1))}, "out of range"},
		{"hold past lifespan", NewPolicy("fifo"), []*Process{NewProcess(0, 3, 0, 0, hold(0, 2, 2))}, "does not fit lifespan"},
		{"zero duration", NewPolicy("fifo"), []*Process{NewProcess(0, 3, 0, 0, hold(0, 0, 0))}, "does not fit lifespan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimulator(Config{}, tt.policy, tt.procs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSimulator_NegativeHorizon_Error(t *testing.T) {
	_, err := NewSimulator(Config{Horizon: -1}, NewPolicy("fifo"), nil)
	assert.Error(t, err)
}

func TestSimulator_EmptyWorkload_HaltsAtTickZero(t *testing.T) {
	res := runPolicy(t, "fifo")

	assert.Zero(t, res.Ticks)
	assert.Empty(t, res.Trace.Records)
	assert.Empty(t, res.Stuck)
}

func TestSimulator_IdleUntilFirstFork(t *testing.T) {
	// GIVEN a single process forked at tick 2
	res := runPolicy(t, "fifo", NewProcess(0, 1, 0, 2))

	// THEN the processor idles for two ticks
	assert.Equal(t, "  0: idle\n  1: idle\n  2: N\n  2: 0\n  3: X\n", res.Trace.Text())
	assert.Equal(t, int64(2), res.Metrics.IdleTicks)
}

func TestSimulator_AcquireAndReleaseEvents(t *testing.T) {
	// GIVEN pid 1 acquiring resource 4 at age 1 for 2 ticks
	res := runPolicy(t, "fifo", NewProcess(1, 4, 0, 0, hold(4, 1, 2)))

	// THEN acquisition precedes the run mark and release follows it
	want := "" +
		"  0:     N\n" +
		"  0:     1\n" +
		"  1:     +4\n" +
		"  1:     1\n" +
		"  2:     1\n" +
		"  2:     -4\n" +
		"  3:     1\n" +
		"  4:     X\n"
	assert.Equal(t, want, res.Trace.Text())
}

func TestSimulator_TwoAcquisitionsSameAge(t *testing.T) {
	res := runPolicy(t, "fifo", NewProcess(0, 2, 0, 0, hold(3, 0, 1), hold(1, 0, 2)))

	assert.Equal(t, "  0: N\n  0: +3\n  0: +1\n  0: 0\n  0: -3\n  1: 0\n  1: -1\n  2: X\n", res.Trace.Text())
}

func TestSimulator_BlockedTickDoesNotAge(t *testing.T) {
	// GIVEN P0 holding resource 0 for 3 ticks and P1 requesting it at once under RR
	p0 := NewProcess(0, 3, 0, 0, hold(0, 0, 3))
	p1 := NewProcess(1, 2, 0, 0, hold(0, 0, 1))
	res := runPolicy(t, "rr", p0, p1)

	// THEN P1 blocks once, P0 runs alone until it releases, then P1 acquires
	want := "" +
		"  0: N\n" +
		"  0:     N\n" +
		"  0: +0\n" +
		"  0: 0\n" +
		"  1:     =\n" +
		"  2: 0\n" +
		"  3: 0\n" +
		"  3: -0\n" +
		"  4: X\n" +
		"  4:     +0\n" +
		"  4:     1\n" +
		"  4:     -0\n" +
		"  5:     1\n" +
		"  6:     X\n"
	assert.Equal(t, want, res.Trace.Text())
	assert.Equal(t, int64(1), res.Metrics.BlockedTicks)
	assert.Equal(t, int64(1), res.Metrics.Processes[1].BlockedTicks)
}

func TestSimulator_Deadlock_ReportsStuckProcesses(t *testing.T) {
	// GIVEN two processes acquiring two resources in opposite order
	res := runPolicy(t, "rr",
		NewProcess(0, 3, 0, 0, hold(0, 0, 3), hold(1, 1, 2)),
		NewProcess(1, 3, 0, 0, hold(1, 0, 3), hold(0, 1, 2)),
	)

	// THEN both end up waiting and the run stops with them reported
	assert.Equal(t, []int{0, 1}, res.Stuck)
	assert.Equal(t, int64(4), res.Ticks)
	assert.Equal(t, 2, trace.Summarize(res.Trace).Blocks)
	assert.False(t, res.Truncated)
}

func TestSimulator_Horizon_Truncates(t *testing.T) {
	s, err := NewSimulator(Config{Horizon: 3}, NewPolicy("fifo"), []*Process{NewProcess(0, 10, 0, 0)})
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)

	assert.True(t, res.Truncated)
	assert.Equal(t, int64(3), res.Ticks)
	assert.Equal(t, []int{0, 0, 0}, runOrder(res))
	assert.Empty(t, res.Stuck, "truncated runs do not report deadlocks")
}

func TestSimulator_MissingArbiter_IsInvariantViolation(t *testing.T) {
	// GIVEN a policy without a resource protocol and a process that acquires
	bare := &FIFOPolicy{basePolicy: basePolicy{name: "bare"}}
	s, err := NewSimulator(Config{}, bare, []*Process{NewProcess(0, 2, 0, 0, hold(0, 1, 1))})
	require.NoError(t, err)

	// WHEN the acquisition falls due
	_, err = s.Run()

	// THEN the run fails
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "no arbiter")
}

func TestSimulator_MissingArbiter_NoRequests_Runs(t *testing.T) {
	bare := &FIFOPolicy{basePolicy: basePolicy{name: "bare"}}
	s, err := NewSimulator(Config{}, bare, []*Process{NewProcess(0, 2, 0, 0)})
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, runOrder(res))
}

// lostPolicy drops the current process instead of requeueing it.
type lostPolicy struct {
	RoundRobinPolicy
}

func (l *lostPolicy) Schedule(s *Simulator) *Process {
	return s.ReadyQ.Dequeue()
}

func TestSimulator_CheckInvariants_DetectsLostProcess(t *testing.T) {
	pol := &lostPolicy{RoundRobinPolicy{basePolicy{name: "lost", arbiter: FCFSArbiter{}}}}
	s, err := NewSimulator(Config{CheckInvariants: true}, pol,
		[]*Process{NewProcess(0, 3, 0, 0), NewProcess(1, 3, 0, 0)})
	require.NoError(t, err)

	_, err = s.Run()

	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "ready pid 0 is not queued")
}

func TestSimulator_CheckInvariants_DetectsCorruptState(t *testing.T) {
	s := newEmptySimulator(t)
	p := NewProcess(0, 3, 0, 0)
	s.processes = append(s.processes, p)
	s.ReadyQ.Enqueue(p)
	require.NoError(t, s.CheckInvariants())

	// WHEN a queued ready process is marked waiting
	p.Status = StatusWaiting
	assert.ErrorIs(t, s.CheckInvariants(), ErrInvariantViolation)

	// WHEN a resource owner does not hold it
	p.Status = StatusReady
	s.Resources[5].Owner = p
	err := s.CheckInvariants()
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "resource 5")
}

func TestSimulator_Retire_HoldingResource_IsInvariantViolation(t *testing.T) {
	s := newEmptySimulator(t)
	p := NewProcess(0, 1, 0, 0)
	p.Age = 1
	p.Held = append(p.Held, &ResourceRequest{ResourceID: 0, Duration: 1})

	err := s.retire(p)

	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.NotEqual(t, StatusExited, p.Status)
}

func TestSimulator_Retire_Queued_IsInvariantViolation(t *testing.T) {
	s := newEmptySimulator(t)
	p := NewProcess(0, 1, 0, 0)
	p.Age = 1
	s.ReadyQ.Enqueue(p)

	assert.ErrorIs(t, s.retire(p), ErrInvariantViolation)
}

func TestSimulator_ReplayIsDeterministic(t *testing.T) {
	build := func() []*Process {
		return []*Process{
			NewProcess(0, 6, 1, 0, hold(0, 1, 3)),
			NewProcess(1, 4, 3, 2, hold(0, 0, 2)),
			NewProcess(2, 3, 2, 2, hold(1, 0, 3)),
			NewProcess(3, 2, 5, 9),
		}
	}
	for _, name := range PolicyNames() {
		t.Run(name, func(t *testing.T) {
			first := runPolicy(t, name, build()...)
			second := runPolicy(t, name, build()...)

			assert.Equal(t, first.Trace.Text(), second.Trace.Text())
			assert.Empty(t, first.Stuck)
		})
	}
}

func TestSimulator_Snapshot(t *testing.T) {
	a := NewProcess(0, 3, 1, 0, hold(2, 0, 2))
	b := NewProcess(1, 3, 1, 0, hold(2, 0, 1))
	s, err := NewSimulator(Config{}, NewPolicy("rr"), []*Process{a, b})
	require.NoError(t, err)

	// WHEN a holds resource 2 and b has blocked on it
	for i := 0; i < 2; i++ {
		_, err := s.Step()
		require.NoError(t, err)
	}
	snap := s.Snapshot()

	assert.Equal(t, int64(2), snap.Clock)
	assert.Equal(t, " 1 (WAT): 0 + 0/3 at 1", snap.Current)
	assert.Equal(t, []string{" 0 (RDY): 0 + 1/3 at 1"}, snap.Ready)
	assert.Equal(t, []ResourceState{{ID: 2, Owner: 0, Waiters: []int{1}}}, snap.Resources)
	assert.Contains(t, snap.String(), "r2: owner 0 waiters [1]")
}
