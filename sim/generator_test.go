package sim

import (
	"math/rand"
	"testing"
)

func TestGenerator_SampleType_Extremes(t *testing.T) {
	tests := []struct {
		dist TrafficDistribution
		want RequestType
	}{
		{TrafficDistribution{Web: 1}, RequestWeb},
		{TrafficDistribution{API: 1}, RequestAPI},
		{TrafficDistribution{Fraud: 1}, RequestFraud},
	}
	for _, tt := range tests {
		g := NewGenerator(TrafficConfig{Distribution: tt.dist}, rand.New(rand.NewSource(3)))
		for i := 0; i < 100; i++ {
			if got := g.SampleType(); got != tt.want {
				t.Fatalf("dist %+v: got %s, want %s", tt.dist, got, tt.want)
			}
		}
	}
}

func TestGenerator_SampleType_FollowsDistribution(t *testing.T) {
	g := NewGenerator(TrafficConfig{Distribution: TrafficDistribution{Web: 0.5, API: 0.3, Fraud: 0.2}},
		rand.New(rand.NewSource(42)))
	counts := make(map[RequestType]int)
	const n = 10000
	for i := 0; i < n; i++ {
		counts[g.SampleType()]++
	}
	want := map[RequestType]float64{RequestWeb: 0.5, RequestAPI: 0.3, RequestFraud: 0.2}
	for rt, p := range want {
		got := float64(counts[rt]) / n
		if got < p-0.03 || got > p+0.03 {
			t.Errorf("%s share = %.3f, want %.2f +- 0.03", rt, got, p)
		}
	}
}

func TestGenerator_Advance_FiresAfterIntervalAndRamps(t *testing.T) {
	// GIVEN 2 RPS, i.e. one spawn per 0.5s, ramping by 0.5 per spawn
	g := NewGenerator(TrafficConfig{BaseRPS: 2, RampUp: 0.5}, rand.New(rand.NewSource(1)))

	// WHEN 0.3s elapses twice
	if g.Advance(0.3) {
		t.Fatal("fired before the interval elapsed")
	}
	if !g.Advance(0.3) {
		t.Fatal("expected a spawn once the timer passed 0.5s")
	}

	// THEN the rate ramps and the timer restarts from zero
	if g.CurrentRPS() != 2.5 {
		t.Errorf("CurrentRPS() = %v, want 2.5", g.CurrentRPS())
	}
	if g.Advance(0.3) {
		t.Error("timer should have reset on fire")
	}
}

func TestGenerator_Advance_AtMostOnePerCall(t *testing.T) {
	g := NewGenerator(TrafficConfig{BaseRPS: 100}, rand.New(rand.NewSource(1)))
	if !g.Advance(10) {
		t.Fatal("expected a spawn")
	}
	if g.Advance(0) {
		t.Error("accumulated time must not carry over after a fire")
	}
}

func TestGenerator_ZeroRateNeverFires(t *testing.T) {
	g := NewGenerator(TrafficConfig{BaseRPS: 0, RampUp: 1}, rand.New(rand.NewSource(1)))
	for i := 0; i < 100; i++ {
		if g.Advance(1) {
			t.Fatal("zero base rate must never spawn")
		}
	}
}
