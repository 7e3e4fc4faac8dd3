package history

import (
	"context"
	"time"
)

// EventType defines the kind of supervision event.
type EventType string

const (
	EventLaunch     EventType = "launch"     // display backend or application spawned
	EventProbeFail  EventType = "probe_fail" // one failed health probe
	EventRecovered  EventType = "recovered"  // successful probe after failures
	EventThreshold  EventType = "threshold"  // consecutive failures reached the threshold
	EventEscalation EventType = "escalation" // graceful-then-forceful termination issued
	EventExit       EventType = "exit"       // supervised application exited
)

// Event is a write-only audit record exported to external systems. The
// supervision loop never reads events back; dropping a sink loses history but
// never supervisor state.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	Failures   int       `json:"failures"` // consecutive failure count at emission
	Detail     string    `json:"detail,omitempty"`
}

// Sink is a destination for supervision events (audit/analytics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
