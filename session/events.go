package session

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pocketforge/taskagent/agent"
)

// LoggedEvent is one entry in the session's event log: the controller's
// event record plus an identifier and capture time.
type LoggedEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	agent.Event
}

// EventLog is the session's append-only event sink. Appends preserve order;
// there are no other transactional guarantees.
type EventLog struct {
	mu     sync.Mutex
	events []LoggedEvent
}

// NewEventLog creates an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append records an event.
func (l *EventLog) Append(ev agent.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, LoggedEvent{
		ID:        ulid.Make().String(),
		Timestamp: time.Now(),
		Event:     ev,
	})
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Snapshot returns a copy of the log in append order.
func (l *EventLog) Snapshot() []LoggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LoggedEvent, len(l.events))
	copy(out, l.events)
	return out
}
