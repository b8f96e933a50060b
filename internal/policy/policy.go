// Package policy implements the pure scheduling rules applied to every
// reservation before it reaches the conflict detector: business hours,
// duration bounds and advance-booking limits.  The package holds no
// state beyond the immutable policy values injected at construction.
package policy

import (
	"fmt"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/config"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// Reason identifies which policy rule a request violated.  Handlers
// surface the reason code to clients alongside the message.
type Reason string

const (
	ReasonOutsideBusinessHours Reason = "OUTSIDE_BUSINESS_HOURS" // start falls outside opening hours
	ReasonExceedsClosing       Reason = "EXCEEDS_CLOSING"        // window runs past closing time
	ReasonTooShort             Reason = "TOO_SHORT"              // duration under the minimum
	ReasonTooLong              Reason = "TOO_LONG"               // duration over the maximum
	ReasonPastDate             Reason = "PAST_DATE"              // date is before today
	ReasonTooFarAhead          Reason = "TOO_FAR_AHEAD"          // date beyond the advance window
	ReasonTooSoon              Reason = "TOO_SOON"               // same-day booking without enough lead time
)

// Violation is the error returned when a request breaks a scheduling
// rule.  It is recoverable: handlers translate it into a 400 response
// carrying the reason code.
type Violation struct {
	Reason  Reason
	Message string
}

func (v *Violation) Error() string { return string(v.Reason) + ": " + v.Message }

func violation(r Reason, format string, args ...any) *Violation {
	return &Violation{Reason: r, Message: fmt.Sprintf(format, args...)}
}

// Checker evaluates scheduling rules against a fixed policy.
type Checker struct {
	p config.Policy
}

// New returns a Checker bound to the given policy values.
func New(p config.Policy) *Checker { return &Checker{p: p} }

// minuteOfDay converts an instant to minutes from UTC midnight.
func minuteOfDay(t time.Time) int {
	u := t.UTC()
	return u.Hour()*60 + u.Minute()
}

// WithinBusinessHours reports whether the instant's time of day falls
// inside opening hours, both bounds inclusive.
func (c *Checker) WithinBusinessHours(t time.Time) bool {
	m := minuteOfDay(t)
	return m >= c.p.OpenMinute && m <= c.p.CloseMinute
}

// DefaultEnd derives the implicit end time for a request that supplied
// only a start.  The contract is explicit: end_time is optional on the
// wire and defaults to start plus the policy's default duration.
func (c *Checker) DefaultEnd(start time.Time) time.Time {
	return start.Add(c.p.DefaultDuration)
}

// ValidateWindow checks a [start,end) window against business hours and
// the duration bounds.  Zero and negative length windows are rejected
// here so they never reach the conflict detector.
func (c *Checker) ValidateWindow(start, end time.Time) error {
	if !c.WithinBusinessHours(start) {
		return violation(ReasonOutsideBusinessHours, "start time %s is outside business hours %s-%s",
			start.UTC().Format("15:04"), clock(c.p.OpenMinute), clock(c.p.CloseMinute))
	}
	if model.DateOf(end).After(model.DateOf(start)) || minuteOfDay(end) > c.p.CloseMinute {
		return violation(ReasonExceedsClosing, "end time %s is past closing time %s",
			end.UTC().Format("15:04"), clock(c.p.CloseMinute))
	}
	dur := end.Sub(start)
	if dur < c.p.MinDuration {
		return violation(ReasonTooShort, "duration %s is shorter than the minimum %s", dur, c.p.MinDuration)
	}
	if dur > c.p.MaxDuration {
		return violation(ReasonTooLong, "duration %s is longer than the maximum %s", dur, c.p.MaxDuration)
	}
	return nil
}

// ValidateAdvance checks how far ahead (or behind) of now the window
// starts.  Same-day bookings must leave at least MinAdvance of lead
// time; no booking may target a past date or one beyond MaxAdvanceDays.
func (c *Checker) ValidateAdvance(start, now time.Time) error {
	day := model.DateOf(start)
	today := model.DateOf(now)
	if day.Before(today) {
		return violation(ReasonPastDate, "date %s is in the past", day.Format("2006-01-02"))
	}
	if day.After(today.AddDate(0, 0, c.p.MaxAdvanceDays)) {
		return violation(ReasonTooFarAhead, "date %s is more than %d days ahead",
			day.Format("2006-01-02"), c.p.MaxAdvanceDays)
	}
	if day.Equal(today) && start.Sub(now) < c.p.MinAdvance {
		return violation(ReasonTooSoon, "same-day bookings need at least %s of lead time", c.p.MinAdvance)
	}
	return nil
}

// GracePeriod exposes the auto-expiry grace period to the sweeper.
func (c *Checker) GracePeriod() time.Duration { return c.p.GracePeriod }

// CloseMinute exposes closing time as minutes from midnight; the
// sweeper uses it for the end-of-day pass.
func (c *Checker) CloseMinute() int { return c.p.CloseMinute }

func clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
