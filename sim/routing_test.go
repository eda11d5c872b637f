package sim

import (
	"math/rand"
	"testing"
)

func TestRoundRobin_NConsecutiveDispatchesVisitEachOnce(t *testing.T) {
	for n := 1; n <= 5; n++ {
		// GIVEN a load balancer with n compute nodes connected
		types := []NodeType{NodeLoadBalancer}
		for i := 0; i < n; i++ {
			types = append(types, NodeCompute)
		}
		topo, ids := newTestTopology(types...)
		for _, c := range ids[1:] {
			if err := topo.Connect(ids[0], c); err != nil {
				t.Fatalf("connect: %v", err)
			}
		}
		lb, _ := topo.Node(ids[0])

		// WHEN 3n requests are dispatched
		for round := 0; round < 3; round++ {
			seen := make(map[NodeID]int)
			for i := 0; i < n; i++ {
				d := route(lb, &Request{Type: RequestWeb}, topo)
				if d.Action != RouteForward {
					t.Fatalf("n=%d: expected forward, got %s (%s)", n, d.Action, d.Reason)
				}
				// THEN targets follow connection order
				if d.Target != ids[1+i] {
					t.Errorf("n=%d round %d dispatch %d: target %s, want %s", n, round, i, d.Target, ids[1+i])
				}
				seen[d.Target]++
			}
			// AND every candidate was chosen exactly once per window
			if len(seen) != n {
				t.Errorf("n=%d round %d: %d distinct targets, want %d", n, round, len(seen), n)
			}
		}
	}
}

func TestRoundRobin_SkipsRemovedTargets(t *testing.T) {
	topo, ids := newTestTopology(NodeLoadBalancer, NodeCompute, NodeCompute)
	for _, c := range ids[1:] {
		if err := topo.Connect(ids[0], c); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	lb, _ := topo.Node(ids[0])
	topo.remove(ids[1])

	for i := 0; i < 4; i++ {
		if d := roundRobin(lb, topo); d.Target != ids[2] {
			t.Errorf("dispatch %d: target %s, want %s", i, d.Target, ids[2])
		}
	}
}

func TestRoundRobin_NoDownstreamFails(t *testing.T) {
	topo, ids := newTestTopology(NodeEntryFilter)
	waf, _ := topo.Node(ids[0])
	if d := route(waf, &Request{Type: RequestWeb}, topo); d.Action != RouteFail {
		t.Errorf("expected fail, got %s", d.Action)
	}
}

func TestComputeRoute_TypeDirected(t *testing.T) {
	// GIVEN compute connected to an object store first and a database second
	topo, ids := newTestTopology(NodeCompute, NodeObjectStore, NodeDatabase, NodeDatabase)
	compute, store, db := ids[0], ids[1], ids[2]
	for _, to := range ids[1:] {
		if err := topo.Connect(compute, to); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	n, _ := topo.Node(compute)

	tests := []struct {
		reqType RequestType
		action  RouteAction
		target  NodeID
	}{
		{RequestWeb, RouteForward, store},
		{RequestAPI, RouteForward, db}, // first matching, never the second database
		{RequestFraud, RouteFail, ""},
	}
	for _, tt := range tests {
		for i := 0; i < 2; i++ {
			d := route(n, &Request{Type: tt.reqType}, topo)
			if d.Action != tt.action || d.Target != tt.target {
				t.Errorf("%s: got %s -> %q, want %s -> %q", tt.reqType, d.Action, d.Target, tt.action, tt.target)
			}
		}
	}
}

func TestComputeRoute_MissingDownstreamFails(t *testing.T) {
	topo, ids := newTestTopology(NodeCompute, NodeObjectStore)
	if err := topo.Connect(ids[0], ids[1]); err != nil {
		t.Fatalf("connect: %v", err)
	}
	n, _ := topo.Node(ids[0])
	if d := route(n, &Request{Type: RequestAPI}, topo); d.Action != RouteFail {
		t.Errorf("API without a database must fail, got %s", d.Action)
	}
}

func TestTerminalRoute_MatchCompletesMismatchFails(t *testing.T) {
	topo, ids := newTestTopology(NodeDatabase, NodeObjectStore)
	db, _ := topo.Node(ids[0])
	store, _ := topo.Node(ids[1])

	tests := []struct {
		node    *Node
		reqType RequestType
		want    RouteAction
	}{
		{db, RequestAPI, RouteComplete},
		{db, RequestWeb, RouteFail},
		{db, RequestFraud, RouteFail},
		{store, RequestWeb, RouteComplete},
		{store, RequestAPI, RouteFail},
		{store, RequestFraud, RouteFail},
	}
	for _, tt := range tests {
		if got := route(tt.node, &Request{Type: tt.reqType}, topo).Action; got != tt.want {
			t.Errorf("%s at %s: got %s, want %s", tt.reqType, tt.node.Type, got, tt.want)
		}
	}
}

func TestSelectEntry_PrefersFirstEntryFilter(t *testing.T) {
	topo, ids := newTestTopology(NodeLoadBalancer, NodeEntryFilter, NodeEntryFilter)
	for _, id := range ids {
		if err := topo.Connect(InternetID, id); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		if d := selectEntry(topo, rng); d.Target != ids[1] {
			t.Fatalf("draw %d: target %s, want first entry filter %s", i, d.Target, ids[1])
		}
	}
}

func TestSelectEntry_RandomAmongLoadBalancers(t *testing.T) {
	topo, ids := newTestTopology(NodeLoadBalancer, NodeLoadBalancer)
	for _, id := range ids {
		if err := topo.Connect(InternetID, id); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	rng := rand.New(rand.NewSource(7))
	counts := make(map[NodeID]int)
	for i := 0; i < 1000; i++ {
		counts[selectEntry(topo, rng).Target]++
	}
	for _, id := range ids {
		if counts[id] < 400 {
			t.Errorf("entry %s chosen %d/1000 times, expected roughly uniform", id, counts[id])
		}
	}
}

func TestSelectEntry_NoEntryFails(t *testing.T) {
	topo := NewTopology()
	if d := selectEntry(topo, rand.New(rand.NewSource(1))); d.Action != RouteFail {
		t.Errorf("expected fail, got %s", d.Action)
	}
}
