package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacksim/stacksim/sim"
	"github.com/stacksim/stacksim/sim/scenario"
	"github.com/stacksim/stacksim/sim/telemetry"
)

// newTestServer wires a server the way serveCmd does and returns it with an
// httptest front end.
func newTestServer(t *testing.T) (*server, *httptest.Server) {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Traffic.BaseRPS = 0
	s := sim.NewSimulator(cfg)
	reg := prometheus.NewRegistry()
	collector := telemetry.NewCollector(reg, "test-session")
	events := NewEventLog(16)
	s.Subscribe(collector.Observe)
	s.Subscribe(events.Record)

	srv := newServer("test-session", s, time.Millisecond, events)
	srv.driver.OnTick(collector.Update)
	srv.onReset = append(srv.onReset, collector.ResetNodes)
	ts := httptest.NewServer(srv.routes(reg))
	t.Cleanup(ts.Close)
	return srv, ts
}

func postCommand(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url+"/commands", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestServer_Commands_BuildTopologyByLabel(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := postCommand(t, ts.URL, `{"op":"place","label":"lb","type":"load-balancer","position":{"x":1,"y":0,"z":0}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var res scenario.Result
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, sim.NodeID("node_1"), res.NodeID)

	resp, body = postCommand(t, ts.URL, `{"op":"connect","from":"internet","to":"lb"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	client := NewStateClient(ts.URL)
	snap, err := client.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []sim.NodeID{"node_1"}, snap.Internet)
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, sim.NodeLoadBalancer, snap.Nodes[0].Type)
}

func TestServer_Commands_ErrorStatuses(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"op":`, http.StatusBadRequest},
		{"unknown field", `{"op":"inject","request":"web","bogus":1}`, http.StatusBadRequest},
		{"invalid command", `{"op":"place"}`, http.StatusBadRequest},
		{"missing node", `{"op":"delete","node":"node_9"}`, http.StatusNotFound},
		{"invalid edge", `{"op":"connect","from":"internet","to":"internet"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postCommand(t, ts.URL, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.Contains(t, body, `"error"`)
		})
	}
}

func TestServer_Commands_InsufficientFunds(t *testing.T) {
	// GIVEN the 500 start budget and 150 per database
	_, ts := newTestServer(t)
	for _, x := range []string{"0", "10", "20"} {
		resp, body := postCommand(t, ts.URL, `{"op":"place","type":"database","position":{"x":`+x+`}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
	}

	// WHEN a fourth database is placed
	resp, body := postCommand(t, ts.URL, `{"op":"place","type":"database","position":{"x":30}}`)

	// THEN it is refused as unaffordable
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode, body)
}

func TestServer_MetricsAndEvents(t *testing.T) {
	srv, ts := newTestServer(t)
	client := NewStateClient(ts.URL)
	_, err := client.Send(context.Background(), scenario.Command{Op: scenario.OpInject, RequestType: sim.RequestWeb})
	require.NoError(t, err)
	srv.driver.Step()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	metrics := string(data)
	assert.Contains(t, metrics, `stacksim_request_outcomes_total{outcome="failed",request_type="web",session="test-session"} 1`)
	assert.Contains(t, metrics, "stacksim_reputation")

	resp, err = http.Get(ts.URL + "/events")
	require.NoError(t, err)
	var events []sim.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	_ = resp.Body.Close()
	require.Len(t, events, 2)
	assert.Equal(t, sim.EventRequestSpawned, events[0].Kind)
	assert.Equal(t, sim.EventRequestFailed, events[1].Kind)
}

func TestServer_Reset_ClearsStateAndLabels(t *testing.T) {
	_, ts := newTestServer(t)
	resp, _ := postCommand(t, ts.URL, `{"op":"place","label":"lb","type":"load-balancer"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err := http.Post(ts.URL+"/reset", "application/json", nil)
	require.NoError(t, err)
	var snap sim.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	_ = resp.Body.Close()
	assert.Empty(t, snap.Nodes)
	assert.Equal(t, 500.0, snap.Economy.Money)

	// The old label no longer resolves to a placed node.
	resp, _ = postCommand(t, ts.URL, `{"op":"delete","node":"lb"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateClient_ReportsServerError(t *testing.T) {
	_, ts := newTestServer(t)
	client := NewStateClient(ts.URL)

	_, err := client.Send(context.Background(), scenario.Command{Op: scenario.OpUpgrade, Node: "node_1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "node not found")
}
