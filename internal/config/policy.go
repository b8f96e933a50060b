package config

import (
	"log"
	"time"
)

// Policy bundles every scheduling rule the service enforces: business
// hours, reservation duration bounds, advance-booking limits, the
// default duration applied when a request omits an end time, the grace
// period before unconfirmed bookings expire, and the sweeper interval.
// It is read once at startup and passed into the policy and booking
// layers as an immutable value, so tests can construct alternates.
type Policy struct {
	OpenMinute      int           // opening time as minutes from midnight
	CloseMinute     int           // closing time as minutes from midnight
	MinDuration     time.Duration // shortest allowed reservation
	MaxDuration     time.Duration // longest allowed reservation
	DefaultDuration time.Duration // applied when no end time is supplied
	MinAdvance      time.Duration // minimum lead time for same-day bookings
	MaxAdvanceDays  int           // furthest day ahead a booking may target
	GracePeriod     time.Duration // time past start before BOOKED auto-expires
	SweepInterval   time.Duration // how often the sweeper runs
}

// LoadPolicy reads the scheduling policy from environment variables with
// sensible cafe defaults.  Times of day use "HH:MM"; durations use Go
// duration syntax (e.g. "120m", "2h").
func LoadPolicy() Policy {
	p := Policy{
		OpenMinute:      parseClock(getenv("POLICY_OPEN_TIME", "08:00")),
		CloseMinute:     parseClock(getenv("POLICY_CLOSE_TIME", "22:00")),
		MinDuration:     parseDur(getenv("POLICY_MIN_DURATION", "60m")),
		MaxDuration:     parseDur(getenv("POLICY_MAX_DURATION", "240m")),
		DefaultDuration: parseDur(getenv("POLICY_DEFAULT_DURATION", "120m")),
		MinAdvance:      parseDur(getenv("POLICY_MIN_ADVANCE", "60m")),
		MaxAdvanceDays:  atoi(getenv("POLICY_MAX_ADVANCE_DAYS", "30")),
		GracePeriod:     parseDur(getenv("POLICY_GRACE_PERIOD", "15m")),
		SweepInterval:   parseDur(getenv("POLICY_SWEEP_INTERVAL", "2m")),
	}
	if p.CloseMinute <= p.OpenMinute {
		log.Fatalf("invalid policy: close time must be after open time")
	}
	if p.MinDuration <= 0 || p.MaxDuration < p.MinDuration {
		log.Fatalf("invalid policy: duration bounds out of order")
	}
	if p.DefaultDuration < p.MinDuration || p.DefaultDuration > p.MaxDuration {
		log.Fatalf("invalid policy: default duration outside [min,max]")
	}
	return p
}

// parseClock converts an "HH:MM" string into minutes from midnight.
// Invalid values abort startup.
func parseClock(s string) int {
	t, err := time.Parse("15:04", s)
	if err != nil {
		log.Fatalf("invalid clock time %q: %v", s, err)
	}
	return t.Hour()*60 + t.Minute()
}
