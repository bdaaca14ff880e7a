package reconcile

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun parses a 5-field cron expression and returns the next fire
// time after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("reconcile: parse cron %q: %w", expr, err)
	}
	return sched.Next(from), nil
}

// NextRunDuration returns the duration from now until the expression's
// next fire time. Returns 0 on parse error so callers can fall back.
func NextRunDuration(expr string, now time.Time) time.Duration {
	next, err := NextRun(expr, now)
	if err != nil {
		return 0
	}
	d := next.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
