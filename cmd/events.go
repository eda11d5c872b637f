package cmd

import (
	"sync"

	"github.com/stacksim/stacksim/sim"
)

// EventLog keeps the most recent simulator events (goroutine-safe).
type EventLog struct {
	mu     sync.Mutex
	limit  int
	events []sim.Event
}

// NewEventLog creates an EventLog holding at most limit events.
func NewEventLog(limit int) *EventLog {
	if limit <= 0 {
		limit = 1
	}
	return &EventLog{limit: limit}
}

// Record appends one event, dropping the oldest when full. It has the
// sim.Listener signature.
func (l *EventLog) Record(ev sim.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == l.limit {
		copy(l.events, l.events[1:])
		l.events = l.events[:l.limit-1]
	}
	l.events = append(l.events, ev)
}

// Events returns a copy of the retained events, oldest first.
func (l *EventLog) Events() []sim.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sim.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Reset drops every retained event.
func (l *EventLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
