// Package notify pushes schedule events (conflicts, starts, pauses) to
// humans. Delivery is best-effort everywhere: a failed notification is
// logged and never fails the scheduling path that triggered it.
package notify

import (
	"context"
	"log"
)

// Event is one human-facing notification.
type Event struct {
	Title    string
	Body     string
	Severity string // info, warning, error, success
	Fields   []Field
}

// Field is a key-value pair displayed with the event.
type Field struct {
	Name  string
	Value string
}

// Adapter is the interface platform-specific notifiers implement.
type Adapter interface {
	// Send delivers one event to the platform.
	Send(ctx context.Context, ev Event) error

	// Close releases any platform connection.
	Close() error
}

// SeverityColor maps a severity to a sidebar color hint.
func SeverityColor(severity string) string {
	switch severity {
	case "success":
		return "#36a64f"
	case "warning":
		return "#f2c744"
	case "error":
		return "#d00000"
	default:
		return "#439fe0"
	}
}

// Notifier fans one event out to every configured adapter.
type Notifier struct {
	adapters []Adapter
}

// New builds a Notifier over the given adapters.
func New(adapters ...Adapter) *Notifier {
	return &Notifier{adapters: adapters}
}

// Send delivers the event to every adapter. Errors are logged, not returned.
func (n *Notifier) Send(ctx context.Context, ev Event) {
	for _, a := range n.adapters {
		if err := a.Send(ctx, ev); err != nil {
			log.Printf("notify: send %q: %v", ev.Title, err)
		}
	}
}

// Close shuts down every adapter.
func (n *Notifier) Close() {
	for _, a := range n.adapters {
		if err := a.Close(); err != nil {
			log.Printf("notify: close: %v", err)
		}
	}
}
