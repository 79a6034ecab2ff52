package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedsim/sim/history"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List simulation runs recorded with --db",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openHistory(cmd.Context(), historyDB)
		if err != nil {
			logrus.Fatalf("Opening history: %v", err)
		}
		defer st.Close()
		if err := writeHistory(cmd.Context(), os.Stdout, st, historyLimit); err != nil {
			logrus.Fatalf("Listing runs: %v", err)
		}
	},
}

func writeHistory(ctx context.Context, w io.Writer, st *history.Store, limit int) error {
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPOLICY\tWORKLOAD\tTICKS\tIDLE\tBLOCKED\tSWITCHES\tSTUCK\tTRACE")
	for _, r := range runs {
		status := fmt.Sprint(r.Stuck)
		if r.Truncated {
			status += " (truncated)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.ID[:8], humanize.Time(r.CreatedAt), r.Policy, r.Workload,
			r.TotalTicks, r.IdleTicks, r.BlockedTicks, r.ContextSwitches, status, r.TraceDigest[:12])
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "db", "schedsim.db", "SQLite history database")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 = all)")

	rootCmd.AddCommand(historyCmd)
}
