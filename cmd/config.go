package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stacksim/stacksim/sim"
)

// resolveConfig returns the defaults, or the file at configPath overlaid on
// them. --seed wins over the file only when the user set it explicitly.
func resolveConfig(cmd *cobra.Command) sim.Config {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	logrus.Debugf("config: seed=%d upkeep=%v transit=%.0fms base_rps=%.2f",
		cfg.Seed, cfg.UpkeepEnabled, cfg.TransitDurationMs, cfg.Traffic.BaseRPS)
	return cfg
}
