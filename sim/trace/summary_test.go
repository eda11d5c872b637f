package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDecisions != 0 || summary.TotalOutcomes != 0 {
		t.Error("expected zero totals for nil trace")
	}
	if summary.TargetDistribution == nil || summary.OutcomeCounts == nil || summary.FailuresByNode == nil {
		t.Error("expected non-nil maps for nil trace")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDecisions != 0 {
		t.Errorf("expected 0 total decisions, got %d", summary.TotalDecisions)
	}
	if summary.UniqueTargets != 0 {
		t.Errorf("expected 0 unique targets, got %d", summary.UniqueTargets)
	}
	if len(summary.OutcomeCounts) != 0 {
		t.Error("expected empty outcome counts")
	}
}

func TestSummarize_TargetDistribution_CountsPerNode(t *testing.T) {
	// GIVEN forwards to the same node multiple times plus one terminal completion
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordRouting(RoutingRecord{RequestID: "r1", Action: "forward", Target: "node_1"})
	st.RecordRouting(RoutingRecord{RequestID: "r2", Action: "forward", Target: "node_1"})
	st.RecordRouting(RoutingRecord{RequestID: "r3", Action: "forward", Target: "node_2"})
	st.RecordRouting(RoutingRecord{RequestID: "r1", Action: "complete"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN target distribution only counts forwards
	if summary.TotalDecisions != 4 {
		t.Errorf("expected 4 decisions, got %d", summary.TotalDecisions)
	}
	if summary.TargetDistribution["node_1"] != 2 {
		t.Errorf("expected node_1 count 2, got %d", summary.TargetDistribution["node_1"])
	}
	if summary.TargetDistribution["node_2"] != 1 {
		t.Errorf("expected node_2 count 1, got %d", summary.TargetDistribution["node_2"])
	}
	if summary.UniqueTargets != 2 {
		t.Errorf("expected 2 unique targets, got %d", summary.UniqueTargets)
	}
}

func TestSummarize_Outcomes_CountsAndFailuresByNode(t *testing.T) {
	// GIVEN mixed outcomes
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordOutcome(OutcomeRecord{RequestID: "r1", NodeID: "node_3", Outcome: "completed"})
	st.RecordOutcome(OutcomeRecord{RequestID: "r2", NodeID: "node_2", Outcome: "failed"})
	st.RecordOutcome(OutcomeRecord{RequestID: "r3", NodeID: "node_2", Outcome: "fraud-passed"})
	st.RecordOutcome(OutcomeRecord{RequestID: "r4", NodeID: "node_1", Outcome: "fraud-blocked"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN outcome counts and per-node failures match
	if summary.TotalOutcomes != 4 {
		t.Errorf("expected 4 outcomes, got %d", summary.TotalOutcomes)
	}
	if summary.OutcomeCounts["failed"] != 1 || summary.OutcomeCounts["fraud-passed"] != 1 {
		t.Errorf("unexpected outcome counts %v", summary.OutcomeCounts)
	}
	if summary.FailuresByNode["node_2"] != 2 {
		t.Errorf("expected 2 failures at node_2, got %d", summary.FailuresByNode["node_2"])
	}
	if _, ok := summary.FailuresByNode["node_1"]; ok {
		t.Error("a blocked fraud request is not a failure")
	}
}
