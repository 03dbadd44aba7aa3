package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/armadaproject/fairshare/internal/common/logging"
	"github.com/armadaproject/fairshare/internal/fairshare"
)

const (
	logLevelFlag  = "logLevel"
	logFormatFlag = "logFormat"
	envPrefix     = "FAIRSHARE"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "fairshare",
		Short: "fairshare divides resource capacity between consumers using dominant resource fairness.",
		Long: `fairshare divides resource capacity between consumers using dominant resource fairness.

Each consumer runs identical tasks with a fixed demand per resource. fairshare computes the number
of tasks to give each consumer so that capacity is never exceeded, the dominant shares of all
consumers are within a tolerance of each other and as many tasks as possible are allocated.

Problems are described in yaml files, e.g.

name: worked-example
tolerance: 0.1
resources:
  - name: cpu
    resolution: 1m
  - name: memory
    resolution: 1Mi
capacity:
  cpu: 9
  memory: 18Gi
consumers:
  - name: A
    demand:
      cpu: 1
      memory: 4Gi
  - name: B
    demand:
      cpu: 3
      memory: 1Gi`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(v)
		},
	}

	addLoggingFlags(cmd.PersistentFlags(), v)

	cmd.AddCommand(
		versionCmd(fairshare.New()),
		solveCmd(fairshare.New()),
		exampleCmd(fairshare.New()),
	)

	return cmd
}

func addLoggingFlags(flags *pflag.FlagSet, v *viper.Viper) {
	defaults := logging.DefaultConfig()
	flags.String(logLevelFlag, defaults.Level, "Log level; one of trace, debug, info, warn, error.")
	flags.String(logFormatFlag, defaults.Format, "Log format; either text or json.")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	_ = v.BindPFlag(logLevelFlag, flags.Lookup(logLevelFlag))
	_ = v.BindPFlag(logFormatFlag, flags.Lookup(logFormatFlag))
}

// configureLogging applies the logging flags. Logs go to stderr so that reports on stdout stay machine-readable.
func configureLogging(v *viper.Viper) error {
	config := logging.Config{
		Level:  v.GetString(logLevelFlag),
		Format: v.GetString(logFormatFlag),
	}
	if err := logging.ConfigureLogging(config, os.Stderr); err != nil {
		return err
	}
	if strings.EqualFold(config.Format, logging.FormatText) {
		logrus.SetFormatter(new(logging.CommandLineFormatter))
	}
	return logging.InstallPrometheusHook()
}
