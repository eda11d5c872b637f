package sim

import "testing"

// newTestConfig returns the default catalog with instant processing and
// transit, no upkeep, and scheduled spawns disabled, so tests drive traffic
// through InjectRequest and stay deterministic.
func newTestConfig() Config {
	cfg := DefaultConfig()
	cfg.UpkeepEnabled = false
	cfg.TransitDurationMs = 0
	cfg.Traffic.BaseRPS = 0
	for t, spec := range cfg.Nodes {
		spec.ProcessingTimeMs = 0
		cfg.Nodes[t] = spec
	}
	return cfg
}

// newRunningSimulator builds a simulator at normal speed.
func newRunningSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	s := NewSimulator(cfg)
	if err := s.SetTimeScale(ScaleNormal); err != nil {
		t.Fatalf("SetTimeScale: %v", err)
	}
	return s
}

func mustPlace(t *testing.T, s *Simulator, nt NodeType, x float64) NodeID {
	t.Helper()
	id, err := s.PlaceNode(nt, Position{X: x})
	if err != nil {
		t.Fatalf("PlaceNode(%s): %v", nt, err)
	}
	return id
}

func mustConnect(t *testing.T, s *Simulator, from, to NodeID) {
	t.Helper()
	if err := s.Connect(from, to); err != nil {
		t.Fatalf("Connect(%s, %s): %v", from, to, err)
	}
}

// buildWebPath places INTERNET -> LOAD_BALANCER -> COMPUTE -> OBJECT_STORE.
func buildWebPath(t *testing.T, s *Simulator) (lb, compute, store NodeID) {
	t.Helper()
	lb = mustPlace(t, s, NodeLoadBalancer, 10)
	compute = mustPlace(t, s, NodeCompute, 20)
	store = mustPlace(t, s, NodeObjectStore, 30)
	mustConnect(t, s, InternetID, lb)
	mustConnect(t, s, lb, compute)
	mustConnect(t, s, compute, store)
	return lb, compute, store
}

func runTicks(s *Simulator, n int, elapsed float64) {
	for i := 0; i < n; i++ {
		s.Tick(elapsed)
	}
}

// collectEvents subscribes a recorder and returns a pointer to its log.
func collectEvents(s *Simulator) *[]Event {
	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })
	return &events
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
