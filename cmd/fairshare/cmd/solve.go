package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/armadaproject/fairshare/internal/common/runcontext"
	"github.com/armadaproject/fairshare/internal/fairshare"
)

// Solve every problem matching a file pattern and print a report for each.
func solveCmd(app *fairshare.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Allocate tasks for every problem file matching a pattern.",
		Example: `  fairshare solve --problems './problems/**/*.yaml'
  fairshare solve --problems ./problems/cluster.yaml --strategy greedy --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Out = cmd.OutOrStdout()
			return app.Solve(runcontext.New(cmd.Context(), logrus.StandardLogger()))
		},
	}

	cmd.Flags().StringVarP(&app.Params.Problems, "problems", "p", "", "Problem file pattern, e.g., './problems/**/*.yaml'.")
	cmd.Flags().StringVar(&app.Params.Strategy, "strategy", "", "If set, overrides the strategy of every problem; either greedy or exact.")
	cmd.Flags().Float64Var(&app.Params.Tolerance, "tolerance", 0, "If positive, overrides the tolerance of every problem.")
	cmd.Flags().StringVarP(&app.Params.Format, "output", "o", app.Params.Format, "Output format; one of text, json, yaml.")
	cmd.Flags().StringVar(&app.Params.MetricsFile, "metricsFile", "", "If set, Prometheus metrics for the run are written to this file.")
	_ = cmd.MarkFlagRequired("problems")

	return cmd
}
