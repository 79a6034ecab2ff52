package cmd

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedsim/sim/workload"
)

// pairSpec is two processes of lifespan 2 forked together.
func pairSpec() *workload.WorkloadSpec {
	return &workload.WorkloadSpec{
		Version: workload.SpecVersion,
		Name:    "pair",
		Processes: []workload.ProcessSpec{
			{PID: 0, Lifespan: 2},
			{PID: 1, Lifespan: 2, Priority: 3},
		},
	}
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "diff", "convert", "generate", "history", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestSetLogLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	require.NoError(t, setLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	assert.Error(t, setLogLevel("chatty"))
}
