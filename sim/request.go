// Defines the Request struct that models one unit of player traffic.
// A request is in exactly one live location at a time: in transit toward a node,
// queued at a node, or processing at a node. Terminal states are never left.

package sim

import (
	"fmt"
)

// RequestType is the traffic class of a request.
type RequestType string

const (
	RequestWeb   RequestType = "web"
	RequestAPI   RequestType = "api"
	RequestFraud RequestType = "fraud"
)

// ParseRequestType converts a string into a RequestType.
func ParseRequestType(s string) (RequestType, error) {
	switch RequestType(s) {
	case RequestWeb, RequestAPI, RequestFraud:
		return RequestType(s), nil
	}
	return "", fmt.Errorf("unknown request type %q", s)
}

// RequestID identifies a request within one Simulator.
type RequestID string

// RequestState represents the lifecycle state of a request.
type RequestState string

const (
	StateInTransit  RequestState = "in-transit"
	StateQueued     RequestState = "queued"
	StateProcessing RequestState = "processing"
	StateCompleted  RequestState = "completed"
	StateFailed     RequestState = "failed"
	StateBlocked    RequestState = "blocked"
)

// Transit describes a request moving along an edge.
// Progress runs from 0 (just left From) to 1 (arrived at To).
type Transit struct {
	From     NodeID  `json:"from"`
	To       NodeID  `json:"to"`
	Progress float64 `json:"progress"`
}

type Request struct {
	ID   RequestID
	Type RequestType

	State   RequestState
	Transit Transit // meaningful only while State == StateInTransit
	NodeID  NodeID  // holding node while queued or processing

	CreatedAt float64 // simulated seconds at spawn
}

// Done reports whether the request reached a terminal state.
func (req *Request) Done() bool {
	switch req.State {
	case StateCompleted, StateFailed, StateBlocked:
		return true
	}
	return false
}

// This method returns a human-readable string representation of a Request.
func (req Request) String() string {
	return fmt.Sprintf("Request: (ID: %s, Type: %s, State: %s, CreatedAt: %.3f)", req.ID, req.Type, req.State, req.CreatedAt)
}
