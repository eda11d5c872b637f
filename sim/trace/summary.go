package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions     int
	TotalOutcomes      int
	UniqueTargets      int
	TargetDistribution map[string]int // node ID → count of requests forwarded to it
	OutcomeCounts      map[string]int // outcome → count
	FailuresByNode     map[string]int // node ID → count of fail/fraud-passed outcomes
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TargetDistribution: make(map[string]int),
		OutcomeCounts:      make(map[string]int),
		FailuresByNode:     make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Routings)
	for _, r := range st.Routings {
		if r.Target != "" {
			summary.TargetDistribution[r.Target]++
		}
	}

	summary.TotalOutcomes = len(st.Outcomes)
	for _, o := range st.Outcomes {
		summary.OutcomeCounts[o.Outcome]++
		if o.Outcome == "failed" || o.Outcome == "fraud-passed" {
			summary.FailuresByNode[o.NodeID]++
		}
	}

	summary.UniqueTargets = len(summary.TargetDistribution)

	return summary
}
