// sim/simulator.go
package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/stacksim/stacksim/sim/trace"
)

// Simulator is the simulation context: topology, ledger, clock, generator, and
// every live request. All operations are synchronous and single-threaded;
// callers that drive it from several goroutines must serialize access.
type Simulator struct {
	cfg Config

	rng        *PartitionedRNG
	failureRNG *rand.Rand
	entryRNG   *rand.Rand

	topo      *Topology
	ledger    *Ledger
	clock     Clock
	generator *Generator
	metrics   *Metrics

	// requests holds every live request in spawn order. Terminal requests are
	// compacted out at the end of each operation that can finish one.
	requests []*Request

	nextNodeID    int
	nextRequestID int
	running       bool

	bus   eventBus
	trace *trace.SimulationTrace // nil when tracing is disabled
}

// NewSimulator creates a Simulator from a validated Config.
// Panics if cfg fails validation.
func NewSimulator(cfg Config) *Simulator {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("NewSimulator: %v", err))
	}
	s := &Simulator{cfg: cfg}
	s.Reset()
	return s
}

// Reset restores the starting state: start budget and reputation, an empty
// topology, the base spawn rate, and a paused clock. Listeners and the trace
// are kept.
func (s *Simulator) Reset() {
	s.rng = NewPartitionedRNG(s.cfg.Seed)
	s.failureRNG = s.rng.ForSubsystem(SubsystemFailure)
	s.entryRNG = s.rng.ForSubsystem(SubsystemEntry)
	s.topo = NewTopology()
	s.ledger = NewLedger(s.cfg.Economy)
	s.clock = Clock{Scale: ScalePaused}
	s.generator = NewGenerator(s.cfg.Traffic, s.rng.ForSubsystem(SubsystemTraffic))
	s.metrics = NewMetrics()
	s.metrics.PeakRPS = s.generator.CurrentRPS()
	s.requests = nil
	s.nextNodeID = 0
	s.nextRequestID = 0
	s.running = true
}

// Subscribe registers a listener for simulator events.
func (s *Simulator) Subscribe(l Listener) {
	s.bus.subscribe(l)
}

// SetTrace attaches a decision trace. Pass nil to disable tracing.
func (s *Simulator) SetTrace(st *trace.SimulationTrace) {
	s.trace = st
}

// Trace returns the attached decision trace, or nil.
func (s *Simulator) Trace() *trace.SimulationTrace {
	return s.trace
}

// Config returns the configuration the simulator was built with.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Running reports whether the simulation still accepts ticks and edits.
// Once false it stays false until Reset.
func (s *Simulator) Running() bool {
	return s.running
}

// Now returns simulated seconds since start.
func (s *Simulator) Now() float64 {
	return s.clock.Now
}

// Metrics returns the run metrics collected so far.
func (s *Simulator) Metrics() *Metrics {
	return s.metrics
}

// Topology returns the topology graph for read access.
func (s *Simulator) Topology() *Topology {
	return s.topo
}

// SetTimeScale sets the pause/normal/fast multiplier.
func (s *Simulator) SetTimeScale(scale TimeScale) error {
	if _, err := ParseTimeScale(int(scale)); err != nil {
		return err
	}
	s.clock.Scale = scale
	return nil
}

// PlaceNode buys and places a node of type t at pos.
func (s *Simulator) PlaceNode(t NodeType, pos Position) (NodeID, error) {
	if !s.running {
		return "", ErrGameOver
	}
	spec, ok := s.cfg.Nodes[t]
	if !ok || t == NodeInternet {
		return "", fmt.Errorf("placing %q: %w", t, ErrUnknownNodeType)
	}
	if !s.ledger.CanAfford(spec.Cost) {
		return "", fmt.Errorf("placing %s (cost %d, money %.2f): %w", t, spec.Cost, s.ledger.Money, ErrInsufficientFunds)
	}
	if s.topo.Collides(pos) {
		return "", fmt.Errorf("placing %s at %+v: %w", t, pos, ErrOverlapping)
	}

	s.ledger.Money -= float64(spec.Cost)
	s.nextNodeID++
	n := newNode(NodeID(fmt.Sprintf("node_%d", s.nextNodeID)), t, spec, pos)
	s.topo.add(n)

	logrus.Infof("[t=%.3f] placed %s %s for %d", s.clock.Now, t, n.ID, spec.Cost)
	s.bus.emit(Event{Kind: EventPlaced, Clock: s.clock.Now, NodeID: n.ID, NodeType: t, Amount: float64(spec.Cost)})
	return n.ID, nil
}

// Connect adds a validated directed edge from -> to.
func (s *Simulator) Connect(from, to NodeID) error {
	if !s.running {
		return ErrGameOver
	}
	if err := s.topo.Connect(from, to); err != nil {
		logrus.Debugf("[t=%.3f] rejected connection: %v", s.clock.Now, err)
		return err
	}
	logrus.Infof("[t=%.3f] connected %s -> %s", s.clock.Now, from, to)
	s.bus.emit(Event{Kind: EventConnected, Clock: s.clock.Now, NodeID: from, TargetID: to})
	return nil
}

// DeleteNode removes a placed node, severs its edges, and refunds half its
// base cost (rounded down) regardless of tiers bought. Requests held by the
// node fail.
func (s *Simulator) DeleteNode(id NodeID) (int, error) {
	if !s.running {
		return 0, ErrGameOver
	}
	n, ok := s.topo.remove(id)
	if !ok {
		return 0, fmt.Errorf("deleting %s: %w", id, ErrNotFound)
	}
	for _, req := range n.evict() {
		s.fail(n.ID, req, "node deleted")
	}
	refund := n.BaseCost / 2
	s.ledger.Money += float64(refund)

	logrus.Infof("[t=%.3f] deleted %s %s, refunded %d", s.clock.Now, n.Type, id, refund)
	s.bus.emit(Event{Kind: EventDeleted, Clock: s.clock.Now, NodeID: id, NodeType: n.Type, Amount: float64(refund)})
	s.compactRequests()
	s.checkGameOver()
	return refund, nil
}

// UpgradeNode buys the next tier for a COMPUTE or DATABASE node. Capacity
// becomes the tier's capacity; processing time and upkeep are unchanged.
func (s *Simulator) UpgradeNode(id NodeID) (tier int, cost int, err error) {
	if !s.running {
		return 0, 0, ErrGameOver
	}
	n, ok := s.topo.nodes[id]
	if !ok {
		return 0, 0, fmt.Errorf("upgrading %s: %w", id, ErrNotFound)
	}
	if !n.Type.Upgradable() {
		return 0, 0, fmt.Errorf("upgrading %s (%s): %w", id, n.Type, ErrNotUpgradable)
	}
	spec := s.cfg.Nodes[n.Type]
	if n.Tier >= spec.MaxTier() {
		return 0, 0, fmt.Errorf("upgrading %s (tier %d): %w", id, n.Tier, ErrMaxTier)
	}
	next := spec.Tiers[n.Tier]
	if !s.ledger.CanAfford(next.Cost) {
		return 0, 0, fmt.Errorf("upgrading %s (cost %d, money %.2f): %w", id, next.Cost, s.ledger.Money, ErrInsufficientFunds)
	}

	s.ledger.Money -= float64(next.Cost)
	n.Tier++
	n.Capacity = next.Capacity

	logrus.Infof("[t=%.3f] upgraded %s to tier %d (capacity %d) for %d", s.clock.Now, id, n.Tier, n.Capacity, next.Cost)
	s.bus.emit(Event{Kind: EventUpgraded, Clock: s.clock.Now, NodeID: id, NodeType: n.Type, Tier: n.Tier, Amount: float64(next.Cost)})
	return n.Tier, next.Cost, nil
}

// InjectRequest spawns one request of type t through the normal entry
// selection, independent of the generator cadence. Returns "" after game over.
func (s *Simulator) InjectRequest(t RequestType) RequestID {
	if !s.running {
		return ""
	}
	id := s.spawn(t)
	s.compactRequests()
	s.checkGameOver()
	return id
}

// Tick advances the simulation by elapsedReal seconds of real time, scaled by
// the time scale. Order: every node updates, then in-transit requests move,
// then the generator may spawn. A paused or finished simulation is untouched.
func (s *Simulator) Tick(elapsedReal float64) {
	if !s.running {
		return
	}
	dt := s.clock.Advance(elapsedReal)
	if dt <= 0 {
		return
	}

	for _, n := range s.topo.Nodes() {
		s.updateNode(n, dt)
	}
	s.advanceRequests(dt)
	if s.generator.Advance(dt) {
		s.spawn(s.generator.SampleType())
	}
	s.compactRequests()

	if rps := s.generator.CurrentRPS(); rps > s.metrics.PeakRPS {
		s.metrics.PeakRPS = rps
	}
	s.metrics.SimEndedTime = s.clock.Now
	s.ledger.clampReputation()
	s.checkGameOver()
}

// updateNode drains upkeep, admits queued work, and advances processing jobs.
func (s *Simulator) updateNode(n *Node, dt float64) {
	if s.cfg.UpkeepEnabled {
		s.ledger.Money -= n.UpkeepPerMinute / 60 * dt
	}

	for _, req := range n.admit() {
		s.block(n, req)
	}

	// Reverse order tolerates in-place removal of completed jobs.
	for i := len(n.processing) - 1; i >= 0; i-- {
		n.processing[i].elapsedMs += dt * 1000
		if n.processing[i].elapsedMs < n.ProcessingTimeMs {
			continue
		}
		req := n.processing[i].req
		n.processing = append(n.processing[:i], n.processing[i+1:]...)
		s.completeJob(n, req)
	}
}

// completeJob applies the load-based failure draw, then the node's routing rule.
func (s *Simulator) completeJob(n *Node, req *Request) {
	load := n.Load()
	if s.failureRNG.Float64() < FailChance(load) {
		s.recordRouting(n.ID, req, failWith(fmt.Sprintf("overload (load=%.2f)", load)))
		s.fail(n.ID, req, fmt.Sprintf("overload (load=%.2f)", load))
		return
	}

	decision := route(n, req, s.topo)
	s.recordRouting(n.ID, req, decision)
	switch decision.Action {
	case RouteComplete:
		s.finish(n, req)
	case RouteForward:
		s.send(req, n.ID, decision.Target)
	default:
		s.fail(n.ID, req, decision.Reason)
	}
}

// advanceRequests moves in-transit requests along their edge and enqueues
// arrivals. A request whose target vanished fails on arrival.
func (s *Simulator) advanceRequests(dt float64) {
	for _, req := range s.requests {
		if req.State != StateInTransit {
			continue
		}
		if s.cfg.TransitDurationMs <= 0 {
			req.Transit.Progress = 1
		} else {
			req.Transit.Progress += dt * 1000 / s.cfg.TransitDurationMs
		}
		if req.Transit.Progress < 1 {
			continue
		}
		target, ok := s.topo.Node(req.Transit.To)
		if !ok || target.Type == NodeInternet {
			s.fail(req.Transit.To, req, "target removed")
			continue
		}
		req.Transit = Transit{}
		req.State = StateQueued
		req.NodeID = target.ID
		target.queue.Enqueue(req)
	}
}

// spawn creates a request and sends it toward an entry node, or fails it
// immediately when INTERNET has no entry point.
func (s *Simulator) spawn(t RequestType) RequestID {
	s.nextRequestID++
	req := &Request{
		ID:        RequestID(fmt.Sprintf("request_%d", s.nextRequestID)),
		Type:      t,
		CreatedAt: s.clock.Now,
	}
	s.requests = append(s.requests, req)
	s.metrics.SpawnedRequests++
	s.bus.emit(Event{Kind: EventRequestSpawned, Clock: s.clock.Now, RequestID: req.ID, RequestType: t})

	decision := selectEntry(s.topo, s.entryRNG)
	s.recordRouting(InternetID, req, decision)
	if decision.Action != RouteForward {
		s.fail(InternetID, req, decision.Reason)
		return req.ID
	}
	s.send(req, InternetID, decision.Target)
	return req.ID
}

func (s *Simulator) send(req *Request, from, to NodeID) {
	req.State = StateInTransit
	req.NodeID = ""
	req.Transit = Transit{From: from, To: to}
}

func (s *Simulator) finish(n *Node, req *Request) {
	req.State = StateCompleted
	req.NodeID = ""
	latencyMs := (s.clock.Now - req.CreatedAt) * 1000
	s.settle(n.ID, req, OutcomeCompleted, "served", latencyMs)
	s.bus.emit(Event{Kind: EventRequestCompleted, Clock: s.clock.Now, NodeID: n.ID, NodeType: n.Type,
		RequestID: req.ID, RequestType: req.Type, Outcome: OutcomeCompleted, LatencyMs: latencyMs})
}

func (s *Simulator) block(n *Node, req *Request) {
	req.State = StateBlocked
	req.NodeID = ""
	s.settle(n.ID, req, OutcomeFraudBlocked, "filtered", 0)
	s.bus.emit(Event{Kind: EventFraudBlocked, Clock: s.clock.Now, NodeID: n.ID, NodeType: n.Type,
		RequestID: req.ID, RequestType: req.Type, Outcome: OutcomeFraudBlocked})
}

func (s *Simulator) fail(at NodeID, req *Request, reason string) {
	req.State = StateFailed
	req.NodeID = ""
	req.Transit = Transit{}
	outcome := failureOutcome(req.Type)
	s.settle(at, req, outcome, reason, 0)
	s.bus.emit(Event{Kind: EventRequestFailed, Clock: s.clock.Now, NodeID: at,
		RequestID: req.ID, RequestType: req.Type, Outcome: outcome, Reason: reason})
}

// settle applies an outcome to the ledger, metrics, and trace.
func (s *Simulator) settle(at NodeID, req *Request, outcome Outcome, reason string, latencyMs float64) {
	s.ledger.Apply(outcome, req.Type)
	s.metrics.record(outcome, req.Type, latencyMs)
	s.metrics.FinalScore = s.ledger.Score.Total
	if s.trace != nil {
		s.trace.RecordOutcome(trace.OutcomeRecord{
			RequestID:   string(req.ID),
			Clock:       s.clock.Now,
			NodeID:      string(at),
			RequestType: string(req.Type),
			Outcome:     string(outcome),
			Reason:      reason,
		})
	}
	logrus.Debugf("[t=%.3f] %s %s at %s: %s", s.clock.Now, req.ID, outcome, at, reason)
}

func (s *Simulator) recordRouting(at NodeID, req *Request, d RoutingDecision) {
	if s.trace == nil {
		return
	}
	s.trace.RecordRouting(trace.RoutingRecord{
		RequestID: string(req.ID),
		Clock:     s.clock.Now,
		NodeID:    string(at),
		Action:    string(d.Action),
		Target:    string(d.Target),
		Reason:    d.Reason,
	})
}

func (s *Simulator) compactRequests() {
	live := s.requests[:0]
	for _, req := range s.requests {
		if !req.Done() {
			live = append(live, req)
		}
	}
	for i := len(live); i < len(s.requests); i++ {
		s.requests[i] = nil
	}
	s.requests = live
}

// checkGameOver latches the simulation off once reputation or money crossed
// its threshold.
func (s *Simulator) checkGameOver() {
	if !s.running || !s.ledger.Exhausted() {
		return
	}
	s.running = false
	s.metrics.GameOver = true
	s.metrics.FinalScore = s.ledger.Score.Total
	s.metrics.SimEndedTime = s.clock.Now
	logrus.Warnf("[t=%.3f] SYSTEM FAILURE: reputation=%.1f money=%.2f final score=%.1f",
		s.clock.Now, s.ledger.Reputation, s.ledger.Money, s.ledger.Score.Total)
	s.bus.emit(Event{Kind: EventGameOver, Clock: s.clock.Now, Amount: s.ledger.Score.Total})
}

// Economy returns the ledger and clock view.
func (s *Simulator) Economy() EconomySnapshot {
	upkeep := 0.0
	if s.cfg.UpkeepEnabled {
		for _, n := range s.topo.Nodes() {
			upkeep += n.UpkeepPerMinute / 60
		}
	}
	return EconomySnapshot{
		Money:             s.ledger.Money,
		Reputation:        s.ledger.Reputation,
		Score:             s.ledger.Score,
		RequestsProcessed: s.ledger.RequestsProcessed,
		CurrentRPS:        s.generator.CurrentRPS(),
		UpkeepPerSecond:   upkeep,
		TimeScale:         s.clock.Scale,
		Clock:             s.clock.Now,
		Running:           s.running,
	}
}

// Nodes returns a view of every placed node in placement order.
func (s *Simulator) Nodes() []NodeSnapshot {
	nodes := s.topo.Nodes()
	out := make([]NodeSnapshot, 0, len(nodes))
	for _, n := range nodes {
		snap := NodeSnapshot{
			ID:          n.ID,
			Type:        n.Type,
			Position:    n.Position,
			QueueLen:    n.QueueLen(),
			Processing:  n.ProcessingLen(),
			Capacity:    n.Capacity,
			Tier:        n.Tier,
			Load:        n.Load(),
			Connections: n.Connections(),
		}
		if spec := s.cfg.Nodes[n.Type]; n.Type.Upgradable() && n.Tier < spec.MaxTier() {
			snap.NextTierCost = spec.Tiers[n.Tier].Cost
		}
		out = append(out, snap)
	}
	return out
}

// Requests returns a view of every live request in spawn order.
func (s *Simulator) Requests() []RequestSnapshot {
	out := make([]RequestSnapshot, 0, len(s.requests))
	for _, req := range s.requests {
		snap := RequestSnapshot{ID: req.ID, Type: req.Type, State: req.State, NodeID: req.NodeID}
		if req.State == StateInTransit {
			transit := req.Transit
			snap.Transit = &transit
		}
		out = append(out, snap)
	}
	return out
}

// Connections returns all edges in creation order.
func (s *Simulator) Connections() []Connection {
	return s.topo.Edges()
}

// Snapshot returns the full presentation view.
func (s *Simulator) Snapshot() Snapshot {
	return Snapshot{
		Internet:    s.topo.Internet().Connections(),
		Nodes:       s.Nodes(),
		Requests:    s.Requests(),
		Connections: s.Connections(),
		Economy:     s.Economy(),
	}
}
