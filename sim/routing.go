package sim

import (
	"fmt"
	"math/rand"
)

// RouteAction is what happens to a request that finished processing at a node.
type RouteAction string

const (
	RouteForward  RouteAction = "forward"
	RouteComplete RouteAction = "complete"
	RouteFail     RouteAction = "fail"
)

// RoutingDecision encapsulates the dispatch decision for one completed job.
type RoutingDecision struct {
	Action RouteAction
	Target NodeID // set only for RouteForward
	Reason string // human-readable explanation
}

func forwardTo(id NodeID, reason string) RoutingDecision {
	return RoutingDecision{Action: RouteForward, Target: id, Reason: reason}
}

func failWith(reason string) RoutingDecision {
	return RoutingDecision{Action: RouteFail, Reason: reason}
}

// route dispatches a request that completed processing at n, by node type.
func route(n *Node, req *Request, topo *Topology) RoutingDecision {
	switch n.Type {
	case NodeDatabase, NodeObjectStore:
		return terminalRoute(n, req)
	case NodeCompute:
		return computeRoute(n, req, topo)
	case NodeEntryFilter, NodeLoadBalancer:
		return roundRobin(n, topo)
	default:
		return failWith(fmt.Sprintf("no routing rule for %s", n.Type))
	}
}

// expectedRequestType returns the only request type a terminal node serves.
func expectedRequestType(t NodeType) (RequestType, bool) {
	switch t {
	case NodeDatabase:
		return RequestAPI, true
	case NodeObjectStore:
		return RequestWeb, true
	}
	return "", false
}

func terminalRoute(n *Node, req *Request) RoutingDecision {
	expected, _ := expectedRequestType(n.Type)
	if req.Type != expected {
		return failWith(fmt.Sprintf("type mismatch (%s at %s)", req.Type, n.Type))
	}
	return RoutingDecision{Action: RouteComplete, Reason: "served"}
}

// requiredDownstream maps a request type to the terminal type compute must reach.
// FRAUD has no downstream.
func requiredDownstream(t RequestType) (NodeType, bool) {
	switch t {
	case RequestAPI:
		return NodeDatabase, true
	case RequestWeb:
		return NodeObjectStore, true
	}
	return "", false
}

// computeRoute forwards to the first connected node of the required downstream type.
func computeRoute(n *Node, req *Request, topo *Topology) RoutingDecision {
	required, ok := requiredDownstream(req.Type)
	if !ok {
		return failWith(fmt.Sprintf("no downstream for %s", req.Type))
	}
	for _, id := range n.connections {
		if target, found := topo.Node(id); found && target.Type == required {
			return forwardTo(id, fmt.Sprintf("type-directed (%s)", required))
		}
	}
	return failWith(fmt.Sprintf("no %s connected", required))
}

// roundRobin cycles through the currently connected downstream nodes in
// connection order. The cursor increments per dispatch, so N consecutive
// dispatches over N candidates visit each exactly once.
func roundRobin(n *Node, topo *Topology) RoutingDecision {
	candidates := make([]NodeID, 0, len(n.connections))
	for _, id := range n.connections {
		if _, ok := topo.Node(id); ok {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return failWith("no downstream connected")
	}
	target := candidates[n.rrIndex%len(candidates)]
	n.rrIndex++
	return forwardTo(target, fmt.Sprintf("round-robin[%d]", n.rrIndex-1))
}

// selectEntry picks the entry node for a new request: the first connected
// entry filter if any, otherwise a uniformly random connected target.
func selectEntry(topo *Topology, rng *rand.Rand) RoutingDecision {
	var entries []*Node
	for _, id := range topo.Internet().connections {
		if n, ok := topo.Node(id); ok {
			entries = append(entries, n)
		}
	}
	if len(entries) == 0 {
		return failWith("no entry point")
	}
	for _, n := range entries {
		if n.Type == NodeEntryFilter {
			return forwardTo(n.ID, "entry filter preferred")
		}
	}
	n := entries[rng.Intn(len(entries))]
	return forwardTo(n.ID, fmt.Sprintf("random entry of %d", len(entries)))
}
