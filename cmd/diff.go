package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	sgdiff "github.com/sourcegraph/go-diff/diff"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedsim/sim"
	"github.com/inference-sim/schedsim/sim/workload"
)

var (
	diffPolicy  string
	diffAgainst string
	diffHorizon int64
	diffContext int
)

var diffCmd = &cobra.Command{
	Use:   "diff <workload>",
	Short: "Compare the traces of two policies on the same workload",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := workload.Load(args[0])
		if err != nil {
			logrus.Fatalf("Unable to load workload: %v", err)
		}
		same, err := writeTraceDiff(os.Stdout, spec, diffPolicy, diffAgainst, sim.Config{Horizon: diffHorizon}, diffContext)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if same {
			fmt.Println("Traces are identical")
		}
	},
}

// traceDiff runs spec under both policies and returns the unified diff of the
// text traces, empty when they match.
func traceDiff(spec *workload.WorkloadSpec, a, b string, cfg sim.Config, contextLines int) (string, error) {
	if contextLines <= 0 {
		contextLines = 3
	}
	resA, err := simulate(spec, a, cfg)
	if err != nil {
		return "", fmt.Errorf("policy %s: %w", a, err)
	}
	resB, err := simulate(spec, b, cfg)
	if err != nil {
		return "", fmt.Errorf("policy %s: %w", b, err)
	}
	textA, textB := resA.Trace.Text(), resB.Trace.Text()
	if textA == textB {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(textA),
		B:        difflib.SplitLines(textB),
		FromFile: resA.Policy,
		ToFile:   resB.Policy,
		Context:  contextLines,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// DiffStat counts the changes of a trace diff.
type DiffStat struct {
	Hunks   int
	Added   int
	Deleted int
	Changed int
}

// diffStat parses a unified trace diff back into change counts.
func diffStat(patch string) (DiffStat, error) {
	fd, err := sgdiff.ParseFileDiff([]byte(patch))
	if err != nil {
		return DiffStat{}, fmt.Errorf("parse trace diff: %w", err)
	}
	st := fd.Stat()
	return DiffStat{
		Hunks:   len(fd.Hunks),
		Added:   int(st.Added),
		Deleted: int(st.Deleted),
		Changed: int(st.Changed),
	}, nil
}

func writeTraceDiff(w io.Writer, spec *workload.WorkloadSpec, a, b string, cfg sim.Config, contextLines int) (same bool, err error) {
	patch, err := traceDiff(spec, a, b, cfg, contextLines)
	if err != nil {
		return false, err
	}
	if patch == "" {
		return true, nil
	}
	stat, err := diffStat(patch)
	if err != nil {
		return false, err
	}
	if _, err := io.WriteString(w, patch); err != nil {
		return false, err
	}
	_, err = fmt.Fprintf(w, "# %d hunk(s): %d added, %d deleted, %d changed trace lines\n",
		stat.Hunks, stat.Added, stat.Deleted, stat.Changed)
	return false, err
}

func init() {
	diffCmd.Flags().StringVarP(&diffPolicy, "policy", "p", "fifo", "First policy")
	diffCmd.Flags().StringVar(&diffAgainst, "against", "rr", "Second policy")
	diffCmd.Flags().Int64Var(&diffHorizon, "horizon", 0, "Stop each run after this many ticks (0 = unlimited)")
	diffCmd.Flags().IntVar(&diffContext, "context", 3, "Lines of context around each change")

	rootCmd.AddCommand(diffCmd)
}
