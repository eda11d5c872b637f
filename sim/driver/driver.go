// Package driver runs a Simulator against the wall clock for interactive use.
//
// The Simulator itself is single-threaded and frame-agnostic. A Driver owns it,
// feeds it elapsed real time on a fixed interval, and serializes every other
// access (edits from HTTP handlers, snapshot reads) through one mutex.
package driver

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stacksim/stacksim/sim"
)

// MaxElapsed bounds the real time fed to one tick. A stalled process resumes
// with one bounded step instead of a single huge catch-up tick.
const MaxElapsed = time.Second

// Driver owns a Simulator and ticks it from a time.Ticker.
type Driver struct {
	mu       sync.Mutex
	sim      *sim.Simulator
	interval time.Duration
	now      func() time.Time
	last     time.Time
	hooks    []func(sim.Snapshot)
	ended    bool
}

// New creates a Driver ticking s every interval.
func New(s *sim.Simulator, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Driver{sim: s, interval: interval, now: time.Now}
}

// OnTick registers a hook called with the post-tick snapshot, under the lock.
// Hooks MUST NOT call back into the Driver.
func (d *Driver) OnTick(fn func(sim.Snapshot)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, fn)
}

// Run ticks until ctx is cancelled and returns ctx.Err(). Ticking continues
// after game over so that readers keep seeing the final state.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.mu.Lock()
	d.last = d.now()
	d.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Step()
		}
	}
}

// Step feeds the real time elapsed since the previous step into the simulator
// and returns the resulting snapshot.
func (d *Driver) Step() sim.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	elapsed := now.Sub(d.last)
	if d.last.IsZero() || elapsed < 0 {
		elapsed = 0
	}
	if elapsed > MaxElapsed {
		logrus.Debugf("driver: clamping elapsed %v to %v", elapsed, MaxElapsed)
		elapsed = MaxElapsed
	}
	d.last = now

	d.sim.Tick(elapsed.Seconds())
	snap := d.sim.Snapshot()
	if snap.Economy.Running {
		d.ended = false
	} else if !d.ended {
		d.ended = true
		logrus.Infof("driver: simulation ended at t=%.3f with score %.1f", snap.Economy.Clock, snap.Economy.Score.Total)
	}
	for _, fn := range d.hooks {
		fn(snap)
	}
	return snap
}

// Do runs fn with exclusive access to the simulator.
func (d *Driver) Do(fn func(*sim.Simulator) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.sim)
}

// Snapshot returns the current presentation view.
func (d *Driver) Snapshot() sim.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sim.Snapshot()
}
