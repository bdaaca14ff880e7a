package notify

import (
	"context"
	"errors"
	"testing"
)

type stubAdapter struct {
	sent   []Event
	err    error
	closed bool
}

func (s *stubAdapter) Send(ctx context.Context, ev Event) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, ev)
	return nil
}

func (s *stubAdapter) Close() error {
	s.closed = true
	return nil
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{"success", "#36a64f"},
		{"warning", "#f2c744"},
		{"error", "#d00000"},
		{"info", "#439fe0"},
		{"", "#439fe0"},
	}
	for _, tt := range tests {
		if got := SeverityColor(tt.severity); got != tt.want {
			t.Errorf("SeverityColor(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestNotifier_FanOutBestEffort(t *testing.T) {
	good := &stubAdapter{}
	bad := &stubAdapter{err: errors.New("boom")}
	n := New(bad, good)

	ev := Event{Title: "Order wo-1 scheduled", Severity: "info"}
	n.Send(context.Background(), ev)

	if len(good.sent) != 1 || good.sent[0].Title != ev.Title {
		t.Errorf("good adapter sent = %+v, want the event despite the bad adapter", good.sent)
	}

	n.Close()
	if !good.closed || !bad.closed {
		t.Error("Close should reach every adapter")
	}
}

func TestTemplateEvent(t *testing.T) {
	got := templateEvent("notify-send '{{.Title}}' '{{.Body}}' -u {{.Severity}}", Event{
		Title:    "Conflict",
		Body:     "w-1 double-booked",
		Severity: "warning",
	})
	want := "notify-send 'Conflict' 'w-1 double-booked' -u warning"
	if got != want {
		t.Errorf("templateEvent = %q, want %q", got, want)
	}
}

func TestCommandAdapter_EmptyCommand(t *testing.T) {
	c := &CommandAdapter{}
	if err := c.Send(context.Background(), Event{Title: "x"}); err != nil {
		t.Errorf("empty command should be a no-op, got %v", err)
	}
}

func TestCommandAdapter_RunsCommand(t *testing.T) {
	c := &CommandAdapter{Command: "true"}
	if err := c.Send(context.Background(), Event{Title: "x"}); err != nil {
		t.Errorf("Send = %v, want nil", err)
	}

	c = &CommandAdapter{Command: "false"}
	if err := c.Send(context.Background(), Event{Title: "x"}); err == nil {
		t.Error("expected error from failing command")
	}
}
