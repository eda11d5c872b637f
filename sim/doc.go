// Package sim provides the traffic simulation engine for stacksim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - request.go: Request lifecycle (in-transit → queued → processing → completed/failed/blocked)
//   - node.go: Node state (FIFO queue, bounded processing set, tier, connection order) and FailChance
//   - simulator.go: the Simulator context, topology edits, and the per-tick ordering
//
// # Tick Ordering
//
// Each Tick scales elapsed real time by the TimeScale, then:
//  1. every node drains upkeep, admits queued requests, and advances processing jobs;
//     completed jobs pass the load-based failure draw and then the node's routing rule
//  2. every in-transit request advances along its edge and joins the target queue on arrival
//  3. the generator may spawn one request toward an entry node
//
// Reputation is clamped from above and the game-over latch is checked last.
//
// # Rules by Node Type
//
// The per-type behavior is split into one function per responsibility:
//   - admission.go: interceptsAtAdmission (entry filters block FRAUD)
//   - routing.go: route (terminal match, type-directed compute forwarding, round-robin)
//   - topology.go: CanConnect (allowed adjacency)
//
// Sub-packages:
//   - sim/trace/: routing decision and outcome recording
//   - sim/telemetry/: Prometheus collector fed by events
//   - sim/driver/: wall-clock driver for interactive use
//   - sim/scenario/: YAML scenario files and a headless runner
package sim
