package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/armadaproject/fairshare/internal/allocation/configuration"
	"github.com/armadaproject/fairshare/internal/common/runcontext"
	"github.com/armadaproject/fairshare/internal/fairshare"
)

// Allocate capacity between the two consumers of the classic dominant resource fairness example.
func exampleCmd(app *fairshare.App) *cobra.Command {
	params := fairshare.ExampleParams{}
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Allocate capacity between user A (1 cpu, 4 GB per task) and user B (3 cpus, 1 GB per task).",
		Example: `  fairshare example --cpus 9 --memory 18`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Out = cmd.OutOrStdout()
			return app.Example(runcontext.New(cmd.Context(), logrus.StandardLogger()), params)
		},
	}

	cmd.Flags().IntVarP(&params.Cpus, "cpus", "c", 0, "Total number of cpus.")
	cmd.Flags().IntVarP(&params.Memory, "memory", "m", 0, "Total memory in GB.")
	cmd.Flags().StringVar(&params.Strategy, "strategy", configuration.ExactStrategyName, "Solver strategy; either greedy or exact.")
	_ = cmd.MarkFlagRequired("cpus")
	_ = cmd.MarkFlagRequired("memory")

	return cmd
}
