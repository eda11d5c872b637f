// Package trace provides decision-trace recording for simulation analysis.
// It does not import sim/ and stores plain data types only.
package trace

// RoutingRecord captures a single dispatch decision: where a request was sent
// after finishing at a node, or which entry it was sent to at spawn.
type RoutingRecord struct {
	RequestID string
	Clock     float64 // simulated seconds
	NodeID    string  // deciding node ("internet" for entry selection)
	Action    string  // forward, complete, or fail
	Target    string  // empty unless Action is forward
	Reason    string
}

// OutcomeRecord captures how a request left the simulation.
type OutcomeRecord struct {
	RequestID   string
	Clock       float64
	NodeID      string // node where the outcome happened
	RequestType string
	Outcome     string
	Reason      string
}
