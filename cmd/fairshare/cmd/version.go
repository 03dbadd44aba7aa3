package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/fairshare/internal/fairshare"
)

// Print version info and exit.
func versionCmd(app *fairshare.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Out = cmd.OutOrStdout()
			return app.Version()
		},
	}
	return cmd
}
