package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandAdapter delivers events by running a shell command template,
// e.g. "notify-send 'Benchline' '{{.Title}}'".
type CommandAdapter struct {
	Command string
}

// Send runs the templated command for one event.
func (c *CommandAdapter) Send(ctx context.Context, ev Event) error {
	if c.Command == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", templateEvent(c.Command, ev))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify: command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Close is a no-op for the command adapter.
func (c *CommandAdapter) Close() error { return nil }

// templateEvent replaces placeholders in the command template with
// event values.
func templateEvent(command string, ev Event) string {
	r := strings.NewReplacer(
		"{{.Title}}", ev.Title,
		"{{.Body}}", ev.Body,
		"{{.Severity}}", ev.Severity,
	)
	return r.Replace(command)
}
