package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// TierSpec is one upgrade level. Tiers[0] describes tier 1, the placed state.
type TierSpec struct {
	Capacity int `yaml:"capacity"`
	Cost     int `yaml:"cost"` // one-time cost to reach this tier
}

// NodeSpec is the catalog entry for one placeable node type.
type NodeSpec struct {
	Name             string     `yaml:"name"`
	Cost             int        `yaml:"cost"`
	Capacity         int        `yaml:"capacity"`
	ProcessingTimeMs float64    `yaml:"processing_time_ms"`
	UpkeepPerMinute  float64    `yaml:"upkeep_per_minute"`
	Tiers            []TierSpec `yaml:"tiers,omitempty"` // required for upgradable types
}

// MaxTier returns the highest tier reachable for this spec (1 when not upgradable).
func (s NodeSpec) MaxTier() int {
	if len(s.Tiers) == 0 {
		return 1
	}
	return len(s.Tiers)
}

// ScorePoints groups the per-outcome score, money, and reputation constants.
type ScorePoints struct {
	WebScore              int     `yaml:"web_score"`
	APIScore              int     `yaml:"api_score"`
	WebReward             float64 `yaml:"web_reward"`
	APIReward             float64 `yaml:"api_reward"`
	FraudBlockedScore     int     `yaml:"fraud_blocked_score"`
	FailReputation        float64 `yaml:"fail_reputation"`         // delta applied on FAILED (usually negative)
	FraudPassedReputation float64 `yaml:"fraud_passed_reputation"` // delta applied on FRAUD_PASSED (usually negative)
}

// EconomyConfig groups ledger parameters.
type EconomyConfig struct {
	StartBudget     float64     `yaml:"start_budget"`
	StartReputation float64     `yaml:"start_reputation"`
	MaxReputation   float64     `yaml:"max_reputation"` // upper clamp applied once per tick
	MoneyFloor      float64     `yaml:"money_floor"`    // money at or below this ends the game
	Points          ScorePoints `yaml:"points"`
}

// TrafficDistribution holds the sampling weights per request type. Weights sum to 1.
type TrafficDistribution struct {
	Web   float64 `yaml:"web"`
	API   float64 `yaml:"api"`
	Fraud float64 `yaml:"fraud"`
}

// TrafficConfig groups traffic generation parameters.
type TrafficConfig struct {
	BaseRPS      float64             `yaml:"base_rps"` // 0 disables scheduled spawns
	RampUp       float64             `yaml:"ramp_up"`  // RPS added after every spawn
	Distribution TrafficDistribution `yaml:"distribution"`
}

// Config is the full simulation configuration.
type Config struct {
	Seed              int64                 `yaml:"seed"`
	UpkeepEnabled     bool                  `yaml:"upkeep_enabled"`
	TransitDurationMs float64               `yaml:"transit_duration_ms"` // time a request spends on one edge
	Economy           EconomyConfig         `yaml:"economy"`
	Traffic           TrafficConfig         `yaml:"traffic"`
	Nodes             map[NodeType]NodeSpec `yaml:"nodes"`
}

// DefaultConfig returns the built-in game balance.
func DefaultConfig() Config {
	return Config{
		Seed:              42,
		UpkeepEnabled:     true,
		TransitDurationMs: 400,
		Economy: EconomyConfig{
			StartBudget:     500,
			StartReputation: 100,
			MaxReputation:   100,
			MoneyFloor:      -1000,
			Points: ScorePoints{
				WebScore:              5,
				APIScore:              10,
				WebReward:             1.6,
				APIReward:             2.4,
				FraudBlockedScore:     5,
				FailReputation:        -2,
				FraudPassedReputation: -5,
			},
		},
		Traffic: TrafficConfig{
			BaseRPS: 1.0,
			RampUp:  0.05,
			Distribution: TrafficDistribution{
				Web:   0.5,
				API:   0.45,
				Fraud: 0.05,
			},
		},
		Nodes: map[NodeType]NodeSpec{
			NodeEntryFilter: {
				Name: "Firewall", Cost: 40, Capacity: 30,
				ProcessingTimeMs: 20, UpkeepPerMinute: 6,
			},
			NodeLoadBalancer: {
				Name: "Load Balancer", Cost: 25, Capacity: 20,
				ProcessingTimeMs: 50, UpkeepPerMinute: 5,
			},
			NodeCompute: {
				Name: "Compute", Cost: 60, Capacity: 4,
				ProcessingTimeMs: 600, UpkeepPerMinute: 12,
				Tiers: []TierSpec{{Capacity: 4, Cost: 0}, {Capacity: 10, Cost: 100}, {Capacity: 18, Cost: 200}},
			},
			NodeDatabase: {
				Name: "Database", Cost: 150, Capacity: 8,
				ProcessingTimeMs: 300, UpkeepPerMinute: 24,
				Tiers: []TierSpec{{Capacity: 8, Cost: 0}, {Capacity: 20, Cost: 200}, {Capacity: 35, Cost: 400}},
			},
			NodeObjectStore: {
				Name: "Object Storage", Cost: 25, Capacity: 25,
				ProcessingTimeMs: 200, UpkeepPerMinute: 5,
			},
		},
	}
}

// LoadConfig reads a YAML file and overlays it onto DefaultConfig.
// Uses strict field checking so typos fail loudly. A node entry in the file
// replaces the whole catalog entry for that type.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks parameter ranges and catalog consistency.
func (c Config) Validate() error {
	d := c.Traffic.Distribution
	if d.Web < 0 || d.API < 0 || d.Fraud < 0 {
		return fmt.Errorf("traffic distribution weights must be non-negative, got %+v", d)
	}
	if sum := d.Web + d.API + d.Fraud; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("traffic distribution must sum to 1, got %f", sum)
	}
	if c.Traffic.BaseRPS < 0 {
		return fmt.Errorf("base_rps must be non-negative, got %f", c.Traffic.BaseRPS)
	}
	if c.Traffic.RampUp < 0 {
		return fmt.Errorf("ramp_up must be non-negative, got %f", c.Traffic.RampUp)
	}
	if c.TransitDurationMs < 0 {
		return fmt.Errorf("transit_duration_ms must be non-negative, got %f", c.TransitDurationMs)
	}
	if c.Economy.StartReputation <= 0 {
		return fmt.Errorf("start_reputation must be positive, got %f", c.Economy.StartReputation)
	}
	if c.Economy.MaxReputation < c.Economy.StartReputation {
		return fmt.Errorf("max_reputation (%f) must be >= start_reputation (%f)", c.Economy.MaxReputation, c.Economy.StartReputation)
	}
	if c.Economy.StartBudget <= c.Economy.MoneyFloor {
		return fmt.Errorf("start_budget (%f) must exceed money_floor (%f)", c.Economy.StartBudget, c.Economy.MoneyFloor)
	}
	for _, t := range PlaceableNodeTypes {
		if _, ok := c.Nodes[t]; !ok {
			return fmt.Errorf("node catalog is missing %q", t)
		}
	}
	for t, spec := range c.Nodes {
		if _, err := ParseNodeType(string(t)); err != nil {
			return fmt.Errorf("node catalog: %w", err)
		}
		if err := spec.validate(t); err != nil {
			return err
		}
	}
	return nil
}

func (s NodeSpec) validate(t NodeType) error {
	if s.Cost < 0 {
		return fmt.Errorf("%s: cost must be non-negative, got %d", t, s.Cost)
	}
	if s.Capacity < 1 {
		return fmt.Errorf("%s: capacity must be >= 1, got %d", t, s.Capacity)
	}
	if s.ProcessingTimeMs < 0 {
		return fmt.Errorf("%s: processing_time_ms must be non-negative, got %f", t, s.ProcessingTimeMs)
	}
	if s.UpkeepPerMinute < 0 {
		return fmt.Errorf("%s: upkeep_per_minute must be non-negative, got %f", t, s.UpkeepPerMinute)
	}
	if !t.Upgradable() {
		if len(s.Tiers) > 0 {
			return fmt.Errorf("%s: tiers are only allowed for upgradable types", t)
		}
		return nil
	}
	if len(s.Tiers) == 0 {
		return fmt.Errorf("%s: upgradable type needs at least one tier", t)
	}
	if s.Tiers[0].Capacity != s.Capacity {
		return fmt.Errorf("%s: tier 1 capacity (%d) must equal base capacity (%d)", t, s.Tiers[0].Capacity, s.Capacity)
	}
	for i := 1; i < len(s.Tiers); i++ {
		if s.Tiers[i].Capacity < s.Tiers[i-1].Capacity {
			return fmt.Errorf("%s: tier %d capacity decreases", t, i+1)
		}
		if s.Tiers[i].Cost < 0 {
			return fmt.Errorf("%s: tier %d cost must be non-negative", t, i+1)
		}
	}
	return nil
}
