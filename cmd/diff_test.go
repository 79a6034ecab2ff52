package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/schedsim/sim"
)

func TestTraceDiff_DifferentPolicies(t *testing.T) {
	// GIVEN two equal-length processes
	// WHEN FIFO is compared against round-robin
	patch, err := traceDiff(pairSpec(), "fifo", "r", sim.Config{}, 0)

	// THEN the unified diff names both policies and shows the interleaving
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(patch, "--- fifo\n+++ rr\n"), patch)
	assert.Contains(t, patch, "@@")
	assert.Contains(t, patch, "\n+  1:     1\n")
}

func TestWriteTraceDiff_AppendsStat(t *testing.T) {
	var buf bytes.Buffer
	same, err := writeTraceDiff(&buf, pairSpec(), "fifo", "rr", sim.Config{}, 3)

	require.NoError(t, err)
	assert.False(t, same)
	assert.Contains(t, buf.String(), "--- fifo\n")
	assert.Regexp(t, `# [1-9][0-9]* hunk\(s\): \d+ added, \d+ deleted, \d+ changed trace lines\n$`, buf.String())
}

func TestDiffStat_CountsChanges(t *testing.T) {
	patch, err := traceDiff(pairSpec(), "fifo", "rr", sim.Config{}, 1)
	require.NoError(t, err)

	stat, err := diffStat(patch)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, stat.Hunks, 1)
	assert.Positive(t, stat.Added+stat.Deleted+stat.Changed)
}

func TestTraceDiff_SameTraceIsEmpty(t *testing.T) {
	// GIVEN a workload where SJF and FIFO agree
	patch, err := traceDiff(pairSpec(), "fifo", "sjf", sim.Config{}, 3)

	require.NoError(t, err)
	assert.Empty(t, patch)

	var buf bytes.Buffer
	same, err := writeTraceDiff(&buf, pairSpec(), "fifo", "sjf", sim.Config{}, 3)
	require.NoError(t, err)
	assert.True(t, same)
	assert.Empty(t, buf.String())
}

func TestTraceDiff_UnknownPolicy(t *testing.T) {
	_, err := traceDiff(pairSpec(), "fifo", "lottery", sim.Config{}, 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy lottery")
}
