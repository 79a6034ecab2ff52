// Package testutil provides shared test infrastructure for the simulator.
// It holds the golden trace dataset types and assertion helpers used across
// the sim test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldentraces.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one workload script simulated under one policy.
type GoldenTestCase struct {
	Name    string        `json:"name"`
	Policy  string        `json:"policy"`
	Script  []string      `json:"script"` // process script, one line per entry
	Trace   []string      `json:"trace"`  // expected text trace, one line per entry
	Metrics GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected metrics of a golden test case.
type GoldenMetrics struct {
	// Exact match metrics
	TotalTicks      int64 `json:"total_ticks"`
	ContextSwitches int64 `json:"context_switches"`
	BlockedTicks    int64 `json:"blocked_ticks"`
	Stuck           []int `json:"stuck"`

	// Derived from the tick counts
	Utilization float64 `json:"utilization"`
}

// ScriptText joins the script lines into a loadable process script.
func (tc GoldenTestCase) ScriptText() string {
	return strings.Join(tc.Script, "\n") + "\n"
}

// TraceText joins the expected trace lines the way SimulationTrace.Text renders them.
func (tc GoldenTestCase) TraceText() string {
	if len(tc.Trace) == 0 {
		return ""
	}
	return strings.Join(tc.Trace, "\n") + "\n"
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldentraces.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
