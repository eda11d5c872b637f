// Tracks run-wide outcome counts and completion latency for final reporting.

package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
)

// Metrics aggregates statistics about one simulation run.
type Metrics struct {
	SpawnedRequests   int // Requests created by the generator or injected
	CompletedRequests int
	FailedRequests    int // Non-fraud failures
	FraudBlocked      int
	FraudPassed       int

	OutcomesByType map[RequestType]map[Outcome]int

	CompletionLatenciesMs []float64 // spawn -> completion, simulated ms
	PeakRPS               float64
	FinalScore            float64
	GameOver              bool
	SimEndedTime          float64 // simulated seconds
}

// NewMetrics creates a Metrics with initialized maps.
func NewMetrics() *Metrics {
	return &Metrics{
		OutcomesByType: make(map[RequestType]map[Outcome]int),
	}
}

func (m *Metrics) record(outcome Outcome, t RequestType, latencyMs float64) {
	switch outcome {
	case OutcomeCompleted:
		m.CompletedRequests++
		m.CompletionLatenciesMs = append(m.CompletionLatenciesMs, latencyMs)
	case OutcomeFailed:
		m.FailedRequests++
	case OutcomeFraudBlocked:
		m.FraudBlocked++
	case OutcomeFraudPassed:
		m.FraudPassed++
	}
	byType, ok := m.OutcomesByType[t]
	if !ok {
		byType = make(map[Outcome]int)
		m.OutcomesByType[t] = byType
	}
	byType[outcome]++
}

// FraudBlockRate is the share of finished fraud requests that were blocked.
func (m *Metrics) FraudBlockRate() float64 {
	total := m.FraudBlocked + m.FraudPassed
	if total == 0 {
		return 0
	}
	return float64(m.FraudBlocked) / float64(total)
}

// MetricsOutput is the JSON shape written by SaveResults.
type MetricsOutput struct {
	SessionID         string                    `json:"session_id,omitempty"`
	SimEndedTime      float64                   `json:"sim_ended_time_s"`
	SpawnedRequests   int                       `json:"spawned_requests"`
	CompletedRequests int                       `json:"completed_requests"`
	FailedRequests    int                       `json:"failed_requests"`
	FraudBlocked      int                       `json:"fraud_blocked"`
	FraudPassed       int                       `json:"fraud_passed"`
	FraudBlockRate    float64                   `json:"fraud_block_rate"`
	OutcomesByType    map[string]map[string]int `json:"outcomes_by_type"`
	CompletionMeanMs  float64                   `json:"completion_mean_ms"`
	CompletionP50Ms   float64                   `json:"completion_p50_ms"`
	CompletionP95Ms   float64                   `json:"completion_p95_ms"`
	PeakRPS           float64                   `json:"peak_rps"`
	FinalScore        float64                   `json:"final_score"`
	GameOver          bool                      `json:"game_over"`
}

// Output builds the serializable summary.
func (m *Metrics) Output(sessionID string) MetricsOutput {
	sorted := append([]float64(nil), m.CompletionLatenciesMs...)
	sort.Float64s(sorted)

	byType := make(map[string]map[string]int, len(m.OutcomesByType))
	for t, outcomes := range m.OutcomesByType {
		inner := make(map[string]int, len(outcomes))
		for o, n := range outcomes {
			inner[string(o)] = n
		}
		byType[string(t)] = inner
	}

	return MetricsOutput{
		SessionID:         sessionID,
		SimEndedTime:      m.SimEndedTime,
		SpawnedRequests:   m.SpawnedRequests,
		CompletedRequests: m.CompletedRequests,
		FailedRequests:    m.FailedRequests,
		FraudBlocked:      m.FraudBlocked,
		FraudPassed:       m.FraudPassed,
		FraudBlockRate:    m.FraudBlockRate(),
		OutcomesByType:    byType,
		CompletionMeanMs:  CalculateMean(sorted),
		CompletionP50Ms:   CalculatePercentile(sorted, 50),
		CompletionP95Ms:   CalculatePercentile(sorted, 95),
		PeakRPS:           m.PeakRPS,
		FinalScore:        m.FinalScore,
		GameOver:          m.GameOver,
	}
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	out := m.Output("")
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Simulated Time       : %.2f s\n", out.SimEndedTime)
	fmt.Printf("Spawned Requests     : %d\n", out.SpawnedRequests)
	fmt.Printf("Completed Requests   : %d\n", out.CompletedRequests)
	fmt.Printf("Failed Requests      : %d\n", out.FailedRequests)
	fmt.Printf("Fraud Blocked/Passed : %d/%d (%.1f%% blocked)\n", out.FraudBlocked, out.FraudPassed, out.FraudBlockRate*100)
	if out.CompletedRequests > 0 {
		fmt.Printf("Completion Mean      : %.2f ms\n", out.CompletionMeanMs)
		fmt.Printf("Completion P95       : %.2f ms\n", out.CompletionP95Ms)
	}
	fmt.Printf("Peak RPS             : %.2f\n", out.PeakRPS)
	fmt.Printf("Final Score          : %.1f\n", out.FinalScore)
	if out.GameOver {
		fmt.Println("Result               : SYSTEM FAILURE")
	}
}

// SaveResults writes the metrics summary as indented JSON to outputFilePath.
func (m *Metrics) SaveResults(sessionID string, outputFilePath string) error {
	data, err := json.MarshalIndent(m.Output(sessionID), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metrics: %w", err)
	}
	if err := os.WriteFile(outputFilePath, data, 0644); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", outputFilePath, err)
	}
	logrus.Infof("Metrics written to: %s", outputFilePath)
	return nil
}
