package model

import "time"

// TimeWindow is the value type used by the availability engine and the
// time policy.  It is never persisted on its own.  Windows use
// half-open [Start, End) semantics: a reservation ending exactly when
// another starts does not conflict with it.
type TimeWindow struct {
	Date  time.Time // calendar date (UTC midnight)
	Start time.Time // inclusive start
	End   time.Time // exclusive end
}

// NewTimeWindow builds a window from a start and end instant.  The
// date is derived from the start by truncating to UTC midnight.
func NewTimeWindow(start, end time.Time) TimeWindow {
	return TimeWindow{Date: DateOf(start), Start: start.UTC(), End: end.UTC()}
}

// DateOf truncates an instant to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Duration returns the length of the window.
func (w TimeWindow) Duration() time.Duration { return w.End.Sub(w.Start) }

// Overlaps reports whether two windows share any instant, using the
// half-open comparison startA < endB && startB < endA.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}
