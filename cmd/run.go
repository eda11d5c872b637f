package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stacksim/stacksim/sim"
	"github.com/stacksim/stacksim/sim/scenario"
	"github.com/stacksim/stacksim/sim/trace"
)

var (
	scenarioPath string  // Scenario YAML to replay
	duration     float64 // Overrides the scenario run length (seconds)
	stepMs       float64 // Overrides the scenario tick length (ms)
	traceLevel   string  // Decision trace verbosity
	summarize    bool    // Print the trace summary
	resultsPath  string  // File to write the metrics JSON to
)

// runCmd replays a scenario headlessly and reports the outcome
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a scenario headlessly",
	Run: func(cmd *cobra.Command, args []string) {
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (want none or decisions)", traceLevel)
		}
		cfg := resolveConfig(cmd)

		scn, err := scenario.Load(scenarioPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		if cmd.Flags().Changed("duration") {
			scn.DurationSeconds = duration
		}
		if cmd.Flags().Changed("step") {
			scn.StepMs = stepMs
		}

		s := sim.NewSimulator(cfg)
		traceCfg := trace.TraceConfig{Level: trace.TraceLevel(traceLevel)}
		if traceCfg.Enabled() {
			s.SetTrace(trace.NewSimulationTrace(traceCfg))
		}

		logrus.Infof("Starting scenario %q: duration=%.1fs step=%.0fms seed=%d", scn.Name, scn.DurationSeconds, scn.StepMs, cfg.Seed)
		startTime := time.Now()
		report, err := scenario.Run(s, scn)
		if err != nil {
			logrus.Fatalf("Scenario failed: %v", err)
		}
		logrus.Infof("Scenario finished in %v wall time", time.Since(startTime))

		s.Metrics().Print()
		printReport(report)
		if summarize {
			printTraceSummary(trace.Summarize(s.Trace()))
		}
		if resultsPath != "" {
			if err := s.Metrics().SaveResults(scn.Name, resultsPath); err != nil {
				logrus.Fatalf("Failed to save results: %v", err)
			}
		}
	},
}

func printReport(r scenario.RunReport) {
	fmt.Println("=== Scenario ===")
	fmt.Printf("Ticks                : %d\n", r.Ticks)
	fmt.Printf("Commands Applied     : %d\n", r.Applied)
	fmt.Printf("Commands Rejected    : %d\n", len(r.Rejected))
	for _, rej := range r.Rejected {
		fmt.Printf("  #%d %s: %s\n", rej.Index, rej.Command, rej.Error)
	}
	if r.Pending > 0 {
		fmt.Printf("Commands Pending     : %d\n", r.Pending)
	}
}

func printTraceSummary(ts *trace.TraceSummary) {
	fmt.Println("=== Trace Summary ===")
	fmt.Printf("Routing Decisions    : %d\n", ts.TotalDecisions)
	fmt.Printf("Unique Targets       : %d\n", ts.UniqueTargets)
	for _, id := range sortedKeys(ts.TargetDistribution) {
		fmt.Printf("  -> %-16s %d\n", id, ts.TargetDistribution[id])
	}
	fmt.Printf("Outcomes             : %d\n", ts.TotalOutcomes)
	for _, o := range sortedKeys(ts.OutcomeCounts) {
		fmt.Printf("  %-18s %d\n", o, ts.OutcomeCounts[o])
	}
	if len(ts.FailuresByNode) > 0 {
		fmt.Println("Failures by Node     :")
		for _, id := range sortedKeys(ts.FailuresByNode) {
			fmt.Printf("  %-18s %d\n", id, ts.FailuresByNode[id])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML to replay")
	runCmd.Flags().Float64Var(&duration, "duration", 0, "Run length in seconds (default: scenario duration_s)")
	runCmd.Flags().Float64Var(&stepMs, "step", 0, "Tick length in ms (default: scenario step_ms)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().BoolVar(&summarize, "summarize-trace", false, "Print a summary of the decision trace")
	runCmd.Flags().StringVar(&resultsPath, "results", "", "Write metrics JSON to this file")
	_ = runCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
}
