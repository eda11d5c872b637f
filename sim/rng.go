package sim

import (
	"hash/fnv"
	"math/rand"
)

// === Subsystem Constants ===

const (
	// SubsystemTraffic is the RNG subsystem for request type sampling.
	// Uses the master seed directly.
	SubsystemTraffic = "traffic"

	// SubsystemEntry is the RNG subsystem for choosing an entry node when no
	// entry filter is connected to INTERNET.
	SubsystemEntry = "entry"

	// SubsystemFailure is the RNG subsystem for load-based failure draws.
	SubsystemFailure = "failure"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem,
// so that adding a failure draw never shifts the traffic sequence.
//
// Derivation formula:
//   - For SubsystemTraffic: uses seed directly
//   - For all other subsystems: seed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	derivedSeed := p.seed
	if name != SubsystemTraffic {
		derivedSeed = p.seed ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the seed used to create this PartitionedRNG.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
