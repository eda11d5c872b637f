package sim

import "math"

// NodeSnapshot is a read-only view of one node for presentation.
type NodeSnapshot struct {
	ID           NodeID   `json:"id"`
	Type         NodeType `json:"type"`
	Position     Position `json:"position"`
	QueueLen     int      `json:"queue_len"`
	Processing   int      `json:"processing"`
	Capacity     int      `json:"capacity"`
	Tier         int      `json:"tier"`
	Load         float64  `json:"load"`
	NextTierCost int      `json:"next_tier_cost,omitempty"` // 0 when not upgradable or maxed
	Connections  []NodeID `json:"connections,omitempty"`
}

// RequestSnapshot is a read-only view of one live request.
type RequestSnapshot struct {
	ID      RequestID    `json:"id"`
	Type    RequestType  `json:"type"`
	State   RequestState `json:"state"`
	NodeID  NodeID       `json:"node_id,omitempty"`
	Transit *Transit     `json:"transit,omitempty"`
}

// EconomySnapshot is a read-only view of the ledger and clock.
type EconomySnapshot struct {
	Money             float64   `json:"money"`
	Reputation        float64   `json:"reputation"`
	Score             Score     `json:"score"`
	RequestsProcessed int       `json:"requests_processed"`
	CurrentRPS        float64   `json:"current_rps"`
	UpkeepPerSecond   float64   `json:"upkeep_per_second"`
	TimeScale         TimeScale `json:"time_scale"`
	Clock             float64   `json:"clock"`
	Running           bool      `json:"running"`
}

// DisplayMoney is money floored to whole units, as shown on the HUD.
func (e EconomySnapshot) DisplayMoney() int {
	return int(math.Floor(e.Money))
}

// Snapshot is the complete presentation view after a tick.
type Snapshot struct {
	Internet    []NodeID          `json:"internet"`
	Nodes       []NodeSnapshot    `json:"nodes"`
	Requests    []RequestSnapshot `json:"requests"`
	Connections []Connection      `json:"connections"`
	Economy     EconomySnapshot   `json:"economy"`
}
