package sim

import "fmt"

// Connection is a directed edge between two nodes.
type Connection struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// allowedLinks is the adjacency rule: traffic flows
// INTERNET -> ENTRY_FILTER/LOAD_BALANCER -> COMPUTE -> DATABASE/OBJECT_STORE,
// with ENTRY_FILTER feeding LOAD_BALANCER.
var allowedLinks = map[NodeType]map[NodeType]bool{
	NodeInternet:     {NodeEntryFilter: true, NodeLoadBalancer: true},
	NodeEntryFilter:  {NodeLoadBalancer: true},
	NodeLoadBalancer: {NodeCompute: true},
	NodeCompute:      {NodeDatabase: true, NodeObjectStore: true},
}

// CanConnect reports whether an edge from a node of type from to a node of type to is allowed.
func CanConnect(from, to NodeType) bool {
	return allowedLinks[from][to]
}

// Topology stores placed nodes and their directed adjacency.
// Nodes iterate in placement order, which is stable for the lifetime of a node.
type Topology struct {
	internet *Node
	nodes    map[NodeID]*Node
	order    []NodeID
	edges    []Connection
}

// NewTopology creates a topology holding only the INTERNET pseudo-node.
func NewTopology() *Topology {
	return &Topology{
		internet: newInternetNode(),
		nodes:    make(map[NodeID]*Node),
	}
}

// Internet returns the INTERNET pseudo-node.
func (t *Topology) Internet() *Node {
	return t.internet
}

// Node looks up a node by ID. InternetID resolves to the INTERNET pseudo-node.
func (t *Topology) Node(id NodeID) (*Node, bool) {
	if id == InternetID {
		return t.internet, true
	}
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns placed nodes in placement order. INTERNET is not included.
func (t *Topology) Nodes() []*Node {
	out := make([]*Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// Len returns the number of placed nodes.
func (t *Topology) Len() int {
	return len(t.order)
}

// Edges returns all connections in creation order.
func (t *Topology) Edges() []Connection {
	out := make([]Connection, len(t.edges))
	copy(out, t.edges)
	return out
}

// Collides reports whether pos is within one unit of an already placed node.
func (t *Topology) Collides(pos Position) bool {
	for _, id := range t.order {
		if t.nodes[id].Position.DistanceTo(pos) < 1 {
			return true
		}
	}
	return false
}

func (t *Topology) add(n *Node) {
	t.nodes[n.ID] = n
	t.order = append(t.order, n.ID)
}

// Connect validates and records a directed edge. On success toID is appended
// to the source's outbound list, so connection order is round-robin order.
func (t *Topology) Connect(fromID, toID NodeID) error {
	if fromID == toID {
		return fmt.Errorf("connect %s -> %s: %w", fromID, toID, ErrSelfLoop)
	}
	from, ok := t.Node(fromID)
	if !ok {
		return fmt.Errorf("connect from %s: %w", fromID, ErrNotFound)
	}
	to, ok := t.Node(toID)
	if !ok {
		return fmt.Errorf("connect to %s: %w", toID, ErrNotFound)
	}
	if from.hasConnection(toID) {
		return fmt.Errorf("connect %s -> %s: %w", fromID, toID, ErrDuplicateConnection)
	}
	if !CanConnect(from.Type, to.Type) {
		return fmt.Errorf("connect %s (%s) -> %s (%s): %w", fromID, from.Type, toID, to.Type, ErrInvalidTopology)
	}
	from.connections = append(from.connections, toID)
	t.edges = append(t.edges, Connection{From: fromID, To: toID})
	return nil
}

// Disconnect severs every edge incident to id, including INTERNET's.
func (t *Topology) Disconnect(id NodeID) {
	t.internet.removeConnection(id)
	for _, nid := range t.order {
		t.nodes[nid].removeConnection(id)
	}
	kept := t.edges[:0]
	for _, e := range t.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	t.edges = kept
}

// remove disconnects and drops a placed node. INTERNET cannot be removed.
func (t *Topology) remove(id NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	t.Disconnect(id)
	delete(t.nodes, id)
	for i, nid := range t.order {
		if nid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return n, true
}
