package sim

// EventKind names a discrete notification emitted by the simulator.
type EventKind string

const (
	EventPlaced           EventKind = "placed"
	EventConnected        EventKind = "connected"
	EventDeleted          EventKind = "deleted"
	EventUpgraded         EventKind = "upgraded"
	EventRequestSpawned   EventKind = "request-spawned"
	EventFraudBlocked     EventKind = "fraud-blocked"
	EventRequestFailed    EventKind = "request-failed"
	EventRequestCompleted EventKind = "request-completed"
	EventGameOver         EventKind = "game-over"
)

// Event is a notification for presentation collaborators (audio, visuals, telemetry).
// Only the fields relevant to Kind are set.
type Event struct {
	Kind        EventKind   `json:"kind"`
	Clock       float64     `json:"clock"` // simulated seconds
	NodeID      NodeID      `json:"node_id,omitempty"`
	NodeType    NodeType    `json:"node_type,omitempty"`
	TargetID    NodeID      `json:"target_id,omitempty"` // EventConnected
	RequestID   RequestID   `json:"request_id,omitempty"`
	RequestType RequestType `json:"request_type,omitempty"`
	Outcome     Outcome     `json:"outcome,omitempty"`
	Tier        int         `json:"tier,omitempty"`       // EventUpgraded
	Amount      float64     `json:"amount,omitempty"`     // cost paid, refund, or final score
	LatencyMs   float64     `json:"latency_ms,omitempty"` // EventRequestCompleted, spawn to completion
	Reason      string      `json:"reason,omitempty"`
}

// Listener receives events synchronously from within simulator operations.
// Listeners MUST NOT call back into the Simulator.
type Listener func(Event)

type eventBus struct {
	listeners []Listener
}

func (b *eventBus) subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

func (b *eventBus) emit(ev Event) {
	for _, l := range b.listeners {
		l(ev)
	}
}
