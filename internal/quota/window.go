// Package quota centralizes what "today" means for daily application limits.
// Days are calendar days in UTC.
package quota

import (
	"time"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Day returns the UTC calendar day containing t.
func Day(t time.Time) Window {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CountApplied counts submitted and retried events whose timestamp falls in w.
func CountApplied(events []types.ApplicationEvent, w Window) int {
	n := 0
	for _, e := range events {
		if e.Status.IsApplied() && w.Contains(e.Timestamp) {
			n++
		}
	}
	return n
}

// Remaining returns how many applications are still allowed, never below zero.
func Remaining(maxPerDay, used int) int {
	if used >= maxPerDay {
		return 0
	}
	return maxPerDay - used
}

// Exhausted reports whether used has reached maxPerDay.
func Exhausted(maxPerDay, used int) bool {
	return used >= maxPerDay
}
