package sim

import "testing"

func TestPartitionedRNG_Deterministic(t *testing.T) {
	// GIVEN two PartitionedRNGs with the same seed
	a := NewPartitionedRNG(42)
	b := NewPartitionedRNG(42)

	// THEN every subsystem yields the same sequence
	for _, name := range []string{SubsystemTraffic, SubsystemEntry, SubsystemFailure} {
		ra, rb := a.ForSubsystem(name), b.ForSubsystem(name)
		for i := 0; i < 100; i++ {
			if va, vb := ra.Float64(), rb.Float64(); va != vb {
				t.Fatalf("%s draw %d: %v != %v", name, i, va, vb)
			}
		}
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// GIVEN two RNGs, one of which draws heavily from the failure subsystem
	a := NewPartitionedRNG(7)
	b := NewPartitionedRNG(7)
	for i := 0; i < 1000; i++ {
		b.ForSubsystem(SubsystemFailure).Float64()
	}

	// THEN the traffic stream is unaffected
	ta, tb := a.ForSubsystem(SubsystemTraffic), b.ForSubsystem(SubsystemTraffic)
	for i := 0; i < 50; i++ {
		if ta.Int63() != tb.Int63() {
			t.Fatalf("traffic stream diverged at draw %d", i)
		}
	}
}

func TestPartitionedRNG_SubsystemsDiffer(t *testing.T) {
	p := NewPartitionedRNG(42)
	traffic := p.ForSubsystem(SubsystemTraffic).Int63()
	failure := p.ForSubsystem(SubsystemFailure).Int63()
	if traffic == failure {
		t.Error("traffic and failure streams should differ")
	}
}

func TestPartitionedRNG_CachesInstances(t *testing.T) {
	p := NewPartitionedRNG(1)
	if p.ForSubsystem(SubsystemEntry) != p.ForSubsystem(SubsystemEntry) {
		t.Error("expected the same *rand.Rand for repeated lookups")
	}
	if p.Seed() != 1 {
		t.Errorf("Seed() = %d, want 1", p.Seed())
	}
}
