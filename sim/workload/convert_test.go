package workload

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteScript_ParsesBack(t *testing.T) {
	// GIVEN a parsed YAML workload
	spec, err := ParseWorkloadSpec(strings.NewReader(pcpYAML))
	require.NoError(t, err)

	// WHEN written as a script and parsed again
	var buf bytes.Buffer
	require.NoError(t, WriteScript(&buf, spec))
	back, err := ParseScript(&buf)

	// THEN the processes are unchanged
	require.NoError(t, err)
	assert.Equal(t, spec.Processes, back.Processes)
}

func TestWriteScript_Layout(t *testing.T) {
	spec := &WorkloadSpec{Name: "tiny", Processes: []ProcessSpec{
		{PID: 0, Lifespan: 2, Priority: 3, Start: 1, Acquire: []AcquireSpec{{Resource: 4, At: 0, Duration: 1}}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteScript(&buf, spec))

	assert.Equal(t, "# tiny\n\nprocess 0\n\tlifespan 2\n\tprio 3\n\tstart 1\n\tacquire 4 0 1\nend\n", buf.String())
}

func TestWriteYAML_ParsesBackStrictly(t *testing.T) {
	spec, err := ParseScript(strings.NewReader(pcpScript))
	require.NoError(t, err)
	spec.Name = "pcp-demo"

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, spec))
	back, err := ParseWorkloadSpec(&buf)

	require.NoError(t, err)
	assert.Equal(t, spec, back)
}

func TestWriteBriefing(t *testing.T) {
	spec := &WorkloadSpec{Processes: []ProcessSpec{
		{PID: 0, Lifespan: 1, Priority: 2},
		{PID: 1, Lifespan: 4, Start: 3, Acquire: []AcquireSpec{{Resource: 7, At: 1, Duration: 2}}},
	}}

	var buf bytes.Buffer
	WriteBriefing(&buf, spec)

	want := "- Process 0: Forked at tick 0 and run for 1 tick with initial priority 2\n" +
		"- Process 1: Forked at tick 3 and run for 4 ticks with initial priority 0\n" +
		"    Acquire resource 7 at 1 for 2\n"
	assert.Equal(t, want, buf.String())
}
