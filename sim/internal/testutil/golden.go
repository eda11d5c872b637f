// Package testutil provides shared test infrastructure for the stacksim packages.
// It holds the golden scenario dataset types and assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one scripted run and the metrics it must produce.
// Scenario and Config are paths relative to testdata/. An empty Config means
// sim.DefaultConfig().
type GoldenTestCase struct {
	Name     string        `json:"name"`
	Scenario string        `json:"scenario"`
	Config   string        `json:"config"`
	Metrics  GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected end state of a golden run.
type GoldenMetrics struct {
	// Exact match metrics (integers)
	SpawnedRequests   int  `json:"spawned_requests"`
	CompletedRequests int  `json:"completed_requests"`
	FailedRequests    int  `json:"failed_requests"`
	FraudBlocked      int  `json:"fraud_blocked"`
	FraudPassed       int  `json:"fraud_passed"`
	RejectedCommands  int  `json:"rejected_commands"`
	GameOver          bool `json:"game_over"`

	// Ledger values, compared with a relative tolerance
	FinalScore float64 `json:"final_score"`
	Money      float64 `json:"money"`
	Reputation float64 `json:"reputation"`
}

// TestdataPath returns the absolute path of a file under the repo-root testdata/.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataPath(t *testing.T, elem ...string) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	parts := append([]string{filepath.Dir(thisFile), "..", "..", "..", "testdata"}, elem...)
	return filepath.Join(parts...)
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	data, err := os.ReadFile(TestdataPath(t, "goldendataset.json"))
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
