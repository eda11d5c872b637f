// Package telemetry exports simulator state as Prometheus metrics.
//
// A Collector is fed from two directions: Observe receives every simulator
// event (counters, latency histogram), and Update copies a Snapshot into gauges
// after each tick. All series carry a constant "session" label.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stacksim/stacksim/sim"
)

// Collector holds the metric families for one simulation session.
type Collector struct {
	RequestOutcomes *prometheus.CounterVec
	Events          *prometheus.CounterVec
	RequestLatency  prometheus.Histogram

	Money      prometheus.Gauge
	Reputation prometheus.Gauge
	Score      prometheus.Gauge
	CurrentRPS prometheus.Gauge
	Running    prometheus.Gauge
	Clock      prometheus.Gauge

	Nodes      *prometheus.GaugeVec
	QueueDepth *prometheus.GaugeVec
	NodeLoad   *prometheus.GaugeVec
}

// NewCollector registers the stacksim metric families on reg.
// Registering two collectors with the same session on one registry panics.
func NewCollector(reg prometheus.Registerer, session string) *Collector {
	labels := prometheus.Labels{"session": session}
	f := promauto.With(reg)
	return &Collector{
		RequestOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "stacksim_request_outcomes_total",
				Help:        "Finished requests by request type and outcome",
				ConstLabels: labels,
			},
			[]string{"request_type", "outcome"},
		),
		Events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "stacksim_events_total",
				Help:        "Simulator events by kind",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
		RequestLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "stacksim_request_latency_seconds",
			Help:        "Simulated time from spawn to completion",
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			ConstLabels: labels,
		}),
		Money: f.NewGauge(prometheus.GaugeOpts{
			Name:        "stacksim_money",
			Help:        "Current money balance",
			ConstLabels: labels,
		}),
		Reputation: f.NewGauge(prometheus.GaugeOpts{
			Name:        "stacksim_reputation",
			Help:        "Current reputation",
			ConstLabels: labels,
		}),
		Score: f.NewGauge(prometheus.GaugeOpts{
			Name:        "stacksim_score_total",
			Help:        "Current total score",
			ConstLabels: labels,
		}),
		CurrentRPS: f.NewGauge(prometheus.GaugeOpts{
			Name:        "stacksim_current_rps",
			Help:        "Current scheduled spawn rate in requests per simulated second",
			ConstLabels: labels,
		}),
		Running: f.NewGauge(prometheus.GaugeOpts{
			Name:        "stacksim_running",
			Help:        "1 while the simulation runs, 0 after game over",
			ConstLabels: labels,
		}),
		Clock: f.NewGauge(prometheus.GaugeOpts{
			Name:        "stacksim_clock_seconds",
			Help:        "Simulated seconds since start",
			ConstLabels: labels,
		}),
		Nodes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "stacksim_nodes",
				Help:        "Placed nodes by type",
				ConstLabels: labels,
			},
			[]string{"type"},
		),
		QueueDepth: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "stacksim_node_queue_depth",
				Help:        "Requests waiting for a processing slot, per node",
				ConstLabels: labels,
			},
			[]string{"node", "type"},
		),
		NodeLoad: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "stacksim_node_load",
				Help:        "Node load, (processing+queued)/(2*capacity)",
				ConstLabels: labels,
			},
			[]string{"node", "type"},
		),
	}
}

// Observe records one simulator event. It has the sim.Listener signature so it
// can be passed to Simulator.Subscribe directly.
func (c *Collector) Observe(ev sim.Event) {
	c.Events.WithLabelValues(string(ev.Kind)).Inc()
	switch ev.Kind {
	case sim.EventRequestCompleted:
		c.RequestLatency.Observe(ev.LatencyMs / 1000)
		fallthrough
	case sim.EventRequestFailed, sim.EventFraudBlocked:
		c.RequestOutcomes.WithLabelValues(string(ev.RequestType), string(ev.Outcome)).Inc()
	case sim.EventDeleted:
		c.QueueDepth.DeleteLabelValues(string(ev.NodeID), string(ev.NodeType))
		c.NodeLoad.DeleteLabelValues(string(ev.NodeID), string(ev.NodeType))
	}
}

// Update copies the gauges from a snapshot.
func (c *Collector) Update(snap sim.Snapshot) {
	eco := snap.Economy
	c.Money.Set(eco.Money)
	c.Reputation.Set(eco.Reputation)
	c.Score.Set(eco.Score.Total)
	c.CurrentRPS.Set(eco.CurrentRPS)
	c.Clock.Set(eco.Clock)
	if eco.Running {
		c.Running.Set(1)
	} else {
		c.Running.Set(0)
	}

	counts := make(map[sim.NodeType]int, len(sim.PlaceableNodeTypes))
	for _, n := range snap.Nodes {
		counts[n.Type]++
		c.QueueDepth.WithLabelValues(string(n.ID), string(n.Type)).Set(float64(n.QueueLen))
		c.NodeLoad.WithLabelValues(string(n.ID), string(n.Type)).Set(n.Load)
	}
	for _, t := range sim.PlaceableNodeTypes {
		c.Nodes.WithLabelValues(string(t)).Set(float64(counts[t]))
	}
}

// ResetNodes drops every per-node series. Call it after Simulator.Reset, which
// removes nodes without emitting delete events.
func (c *Collector) ResetNodes() {
	c.QueueDepth.Reset()
	c.NodeLoad.Reset()
}
