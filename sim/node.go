// Defines the Node struct that models one placed unit of infrastructure.
// Tracks the FIFO queue, the bounded processing set, tier, and the outbound
// connection order used for round-robin dispatch.

package sim

import (
	"fmt"
	"math"
)

// NodeType identifies the kind of infrastructure a node models.
type NodeType string

const (
	NodeInternet     NodeType = "internet"
	NodeEntryFilter  NodeType = "entry-filter"
	NodeLoadBalancer NodeType = "load-balancer"
	NodeCompute      NodeType = "compute"
	NodeDatabase     NodeType = "database"
	NodeObjectStore  NodeType = "object-store"
)

// PlaceableNodeTypes lists the node types a player may place, in catalog order.
// NodeInternet is a singleton and never placeable.
var PlaceableNodeTypes = []NodeType{
	NodeEntryFilter,
	NodeLoadBalancer,
	NodeCompute,
	NodeDatabase,
	NodeObjectStore,
}

// ParseNodeType converts a string into a placeable NodeType.
func ParseNodeType(s string) (NodeType, error) {
	for _, t := range PlaceableNodeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, s)
}

// Upgradable reports whether nodes of this type accept tier upgrades.
func (t NodeType) Upgradable() bool {
	return t == NodeCompute || t == NodeDatabase
}

// NodeID identifies a node within one Simulator.
type NodeID string

// InternetID is the identity of the INTERNET pseudo-node.
const InternetID NodeID = "internet"

// Position is an opaque placement coordinate supplied by the presentation layer.
// The simulation only uses it to reject colliding placements.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// DistanceTo returns the euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// job is one request occupying a processing slot.
type job struct {
	req       *Request
	elapsedMs float64
}

// Node is a placed infrastructure unit.
// Invariant: len(processing) <= Capacity.
type Node struct {
	ID       NodeID
	Type     NodeType
	Position Position

	Capacity         int     // concurrent processing slots (>= 1)
	ProcessingTimeMs float64 // time one request occupies a slot
	UpkeepPerMinute  float64 // money drained per simulated minute
	Tier             int     // 1-based, only increases
	BaseCost         int     // placement cost, used for the deletion refund

	connections []NodeID // outbound targets in connection order
	queue       *RequestQueue
	processing  []job
	rrIndex     int // round-robin cursor, incremented per dispatch
}

func newNode(id NodeID, t NodeType, spec NodeSpec, pos Position) *Node {
	return &Node{
		ID:               id,
		Type:             t,
		Position:         pos,
		Capacity:         spec.Capacity,
		ProcessingTimeMs: spec.ProcessingTimeMs,
		UpkeepPerMinute:  spec.UpkeepPerMinute,
		Tier:             1,
		BaseCost:         spec.Cost,
		queue:            &RequestQueue{},
	}
}

func newInternetNode() *Node {
	return &Node{ID: InternetID, Type: NodeInternet, queue: &RequestQueue{}}
}

// Connections returns a copy of the outbound targets in connection order.
func (n *Node) Connections() []NodeID {
	out := make([]NodeID, len(n.connections))
	copy(out, n.connections)
	return out
}

// QueueLen returns the number of requests waiting for a processing slot.
func (n *Node) QueueLen() int {
	return n.queue.Len()
}

// ProcessingLen returns the number of occupied processing slots.
func (n *Node) ProcessingLen() int {
	return len(n.processing)
}

// Load is occupied capacity plus backlog over twice the rated capacity.
func (n *Node) Load() float64 {
	if n.Capacity <= 0 {
		return 0
	}
	return float64(len(n.processing)+n.queue.Len()) / float64(n.Capacity*2)
}

// FailChance maps a node load to the probability that a completing request fails.
// Zero up to half load, then linear to 1 at full load, clamped to 1 beyond.
func FailChance(load float64) float64 {
	if load <= 0.5 {
		return 0
	}
	return math.Min(1, 2*(load-0.5))
}

func (n *Node) hasConnection(id NodeID) bool {
	for _, c := range n.connections {
		if c == id {
			return true
		}
	}
	return false
}

func (n *Node) removeConnection(id NodeID) {
	kept := n.connections[:0]
	for _, c := range n.connections {
		if c != id {
			kept = append(kept, c)
		}
	}
	n.connections = kept
}

// evict drains every request the node holds, queued ones first.
func (n *Node) evict() []*Request {
	var out []*Request
	for n.queue.Len() > 0 {
		out = append(out, n.queue.Dequeue())
	}
	for _, j := range n.processing {
		out = append(out, j.req)
	}
	n.processing = nil
	return out
}
