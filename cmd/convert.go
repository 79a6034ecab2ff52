package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedsim/sim/workload"
)

var convertTo string

var convertCmd = &cobra.Command{
	Use:   "convert <workload>",
	Short: "Convert a workload between the script and YAML formats",
	Long:  "Convert a process script to a YAML workload spec or back. Output is written to stdout for piping.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := workload.Load(args[0])
		if err != nil {
			logrus.Fatalf("Unable to load workload: %v", err)
		}
		if err := convertWorkload(os.Stdout, spec, convertTo); err != nil {
			logrus.Fatalf("Conversion failed: %v", err)
		}
	},
}

func convertWorkload(w io.Writer, spec *workload.WorkloadSpec, to string) error {
	switch to {
	case "yaml":
		return workload.WriteYAML(w, spec)
	case "script":
		return workload.WriteScript(w, spec)
	default:
		return fmt.Errorf("unknown target format %q: must be yaml or script", to)
	}
}

func init() {
	convertCmd.Flags().StringVar(&convertTo, "to", "yaml", "Target format: yaml or script")

	rootCmd.AddCommand(convertCmd)
}
