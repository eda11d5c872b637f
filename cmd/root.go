package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML config overlaid on the defaults
	seed       int64  // Overrides the config seed when set
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "stacksim",
	Short: "Traffic and queueing simulator for web service topologies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// addConfigFlags registers the flags shared by commands that build a simulator.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config overlaid on the built-in defaults")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed override (default: config seed)")
}
