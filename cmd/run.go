package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedsim/sim"
	"github.com/inference-sim/schedsim/sim/history"
	"github.com/inference-sim/schedsim/sim/workload"
)

// runOptions collects the `schedsim run` settings after flags and profile are merged.
type runOptions struct {
	policy          string // Policy name or single-letter alias
	quiet           bool   // Suppress banner, briefing and summary
	format          string // Trace format: text or json
	horizon         int64  // Tick cap, 0 for unlimited
	checkInvariants bool   // Verify queue and resource invariants every tick
	db              string // History database path, empty to skip recording
	log             string // Log level
	profile         string // Run profile path
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <workload>",
	Short: "Simulate a workload under one scheduling policy",
	Long: "Simulate a process script (or a .yaml workload) under one scheduling policy. " +
		"The trace and summary are written to stdout; logs go to stderr.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOpts
		if opts.profile != "" {
			profile, err := LoadRunProfile(opts.profile)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			opts.log = logLevel
			profile.apply(cmd, &opts)
			if err := setLogLevel(opts.log); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		if opts.format != "text" && opts.format != "json" {
			logrus.Fatalf("Invalid --format %q: must be text or json", opts.format)
		}

		spec, err := workload.Load(args[0])
		if err != nil {
			logrus.Fatalf("Unable to load workload: %v", err)
		}
		startTime := time.Now()
		res, err := simulate(spec, opts.policy, sim.Config{Horizon: opts.horizon, CheckInvariants: opts.checkInvariants})
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulated %d ticks in %s", res.Ticks, time.Since(startTime))

		if err := writeRun(os.Stdout, opts, spec, res); err != nil {
			logrus.Fatalf("Writing output: %v", err)
		}
		if opts.db != "" {
			run, err := recordRun(cmd.Context(), opts.db, spec.Name, res)
			if err != nil {
				logrus.Fatalf("Recording run: %v", err)
			}
			logrus.Infof("Recorded run %s in %s", run.ID, opts.db)
		}
	},
}

// simulate runs the workload under the named policy.
func simulate(spec *workload.WorkloadSpec, policy string, cfg sim.Config) (*sim.Result, error) {
	if !sim.IsValidPolicy(policy) {
		return nil, fmt.Errorf("unknown policy %q; valid policies: %s", policy, strings.Join(sim.PolicyNames(), ", "))
	}
	s, err := sim.NewSimulator(cfg, sim.NewPolicy(policy), spec.NewProcesses())
	if err != nil {
		return nil, err
	}
	return s.Run()
}

// writeBanner prints the policy being simulated and the trace legend.
func writeBanner(w io.Writer, policy string) {
	fmt.Fprintf(w, "Simulating %s scheduler\n", sim.PolicyDescriptions[policy])
	fmt.Fprintln(w)
	fmt.Fprintln(w, "****************************************************")
	fmt.Fprintln(w, "   N: Forked")
	fmt.Fprintln(w, "   X: Finished")
	fmt.Fprintln(w, "   =: Blocked")
	fmt.Fprintln(w, "  +n: Acquire resource n")
	fmt.Fprintln(w, "  -n: Release resource n")
	fmt.Fprintln(w)
}

// writeRun renders a completed run: banner, briefing, trace and summary in
// text mode, the trace records only in json mode.
func writeRun(w io.Writer, opts runOptions, spec *workload.WorkloadSpec, res *sim.Result) error {
	if opts.format == "json" {
		return res.Trace.WriteJSON(w)
	}
	if !opts.quiet {
		writeBanner(w, res.Policy)
		workload.WriteBriefing(w, spec)
		fmt.Fprintln(w)
	}
	if err := res.Trace.WriteText(w); err != nil {
		return err
	}
	if opts.quiet {
		return nil
	}
	fmt.Fprintln(w)
	if res.Truncated {
		fmt.Fprintf(w, "Horizon reached at tick %d before the workload finished\n", res.Ticks)
	}
	if len(res.Stuck) > 0 {
		fmt.Fprintf(w, "Deadlock: processes %v never finished\n", res.Stuck)
	}
	res.Metrics.Print(w)
	return nil
}

// recordRun stores the run in the history database at path.
func recordRun(ctx context.Context, path, name string, res *sim.Result) (*history.Run, error) {
	st, err := openHistory(ctx, path)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	run := history.NewRun(name, res)
	if err := st.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func openHistory(ctx context.Context, path string) (*history.Store, error) {
	st, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return st, nil
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.policy, "policy", "p", "fifo", "Scheduling policy: "+strings.Join(sim.PolicyNames(), ", ")+" (single-letter aliases accepted)")
	runCmd.Flags().BoolVarP(&runOpts.quiet, "quiet", "q", false, "Print only the trace")
	runCmd.Flags().StringVar(&runOpts.format, "format", "text", "Trace format: text or json")
	runCmd.Flags().Int64Var(&runOpts.horizon, "horizon", 0, "Stop after this many ticks (0 = run until the workload drains)")
	runCmd.Flags().BoolVar(&runOpts.checkInvariants, "check-invariants", false, "Verify queue and resource invariants after every tick")
	runCmd.Flags().StringVar(&runOpts.db, "db", "", "Record the run in this SQLite history database")
	runCmd.Flags().StringVar(&runOpts.profile, "config", "", "YAML run profile with defaults for these flags")

	rootCmd.AddCommand(runCmd)
}
