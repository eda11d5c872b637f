package sim

import "math/rand"

// Generator samples request types and decides when scheduled spawns fire.
// Spawn pressure only grows: every spawn adds RampUp to the current RPS.
type Generator struct {
	cfg        TrafficConfig
	rng        *rand.Rand
	spawnTimer float64
	currentRPS float64
}

// NewGenerator creates a Generator drawing from rng.
func NewGenerator(cfg TrafficConfig, rng *rand.Rand) *Generator {
	return &Generator{
		cfg:        cfg,
		rng:        rng,
		currentRPS: cfg.BaseRPS,
	}
}

// SampleType draws a request type against the cumulative distribution
// WEB, then API, then FRAUD.
func (g *Generator) SampleType() RequestType {
	r := g.rng.Float64()
	d := g.cfg.Distribution
	if r < d.Web {
		return RequestWeb
	}
	if r < d.Web+d.API {
		return RequestAPI
	}
	return RequestFraud
}

// Advance accumulates dt simulated seconds and reports whether a spawn fires.
// At most one spawn fires per call; the accumulator resets on fire.
func (g *Generator) Advance(dt float64) bool {
	g.spawnTimer += dt
	if g.currentRPS <= 0 || g.spawnTimer <= 1/g.currentRPS {
		return false
	}
	g.spawnTimer = 0
	g.currentRPS += g.cfg.RampUp
	return true
}

// CurrentRPS returns the current spawn rate in requests per simulated second.
func (g *Generator) CurrentRPS() float64 {
	return g.currentRPS
}
