package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/schedsim/sim/workload"
)

var (
	generateSeed int64
	generateTo   string
	generateCfg  = workload.DefaultGeneratorConfig()
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random workload",
	Long:  "Generate a random workload from a seed. The same seed and settings always produce the same workload. Output is written to stdout for piping.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := workload.Generate(generateCfg, generateSeed)
		if err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}
		if err := convertWorkload(os.Stdout, spec, generateTo); err != nil {
			logrus.Fatalf("Writing workload: %v", err)
		}
	},
}

func init() {
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 42, "Seed for random workload generation")
	generateCmd.Flags().StringVar(&generateTo, "to", "script", "Output format: yaml or script")
	generateCmd.Flags().IntVar(&generateCfg.Processes, "processes", generateCfg.Processes, "Number of processes")
	generateCmd.Flags().Float64Var(&generateCfg.MeanInterarrival, "interarrival", generateCfg.MeanInterarrival, "Mean ticks between forks (0 = fork all at tick 0)")
	generateCmd.Flags().IntVar(&generateCfg.MinLifespan, "min-lifespan", generateCfg.MinLifespan, "Shortest lifespan")
	generateCmd.Flags().IntVar(&generateCfg.MaxLifespan, "max-lifespan", generateCfg.MaxLifespan, "Longest lifespan")
	generateCmd.Flags().IntVar(&generateCfg.MaxPriority, "max-prio", generateCfg.MaxPriority, "Largest priority")
	generateCmd.Flags().IntVar(&generateCfg.Resources, "resources", generateCfg.Resources, "Number of distinct resources to contend for")
	generateCmd.Flags().IntVar(&generateCfg.MaxAcquires, "max-acquires", generateCfg.MaxAcquires, "Acquisition attempts per process")
	generateCmd.Flags().Float64Var(&generateCfg.AcquireProbability, "acquire-prob", generateCfg.AcquireProbability, "Chance that each attempt yields an acquisition")

	rootCmd.AddCommand(generateCmd)
}
