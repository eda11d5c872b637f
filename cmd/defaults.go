package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stacksim/stacksim/sim"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the built-in configuration as YAML",
	Long:  "Print the built-in configuration as YAML. The output is a valid --config file.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := writeDefaults(cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Failed to write defaults: %v", err)
		}
	},
}

func writeDefaults(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sim.DefaultConfig()); err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}
	return enc.Close()
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
}
