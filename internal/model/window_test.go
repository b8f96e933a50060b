package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 14, hour, min, 0, 0, time.UTC)
}

func TestTimeWindow_Overlaps(t *testing.T) {
	existing := NewTimeWindow(at(12, 0), at(14, 0))

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		overlap bool
	}{
		{"fully before", at(9, 0), at(11, 0), false},
		{"fully after", at(15, 0), at(17, 0), false},
		{"contained", at(12, 30), at(13, 30), true},
		{"containing", at(11, 0), at(15, 0), true},
		{"starts inside", at(13, 0), at(15, 0), true},
		{"ends inside", at(11, 0), at(13, 0), true},
		{"identical", at(12, 0), at(14, 0), true},
		// Half-open boundaries: touching windows do not conflict.
		{"ends exactly at start", at(10, 0), at(12, 0), false},
		{"starts exactly at end", at(14, 0), at(16, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewTimeWindow(tt.start, tt.end)
			assert.Equal(t, tt.overlap, w.Overlaps(existing))
			assert.Equal(t, tt.overlap, existing.Overlaps(w), "overlap must be symmetric")
		})
	}
}

func TestDateOf(t *testing.T) {
	d := DateOf(time.Date(2026, time.March, 14, 18, 45, 12, 99, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC), d)
}

func TestTimeWindow_Duration(t *testing.T) {
	w := NewTimeWindow(at(12, 0), at(14, 30))
	assert.Equal(t, 2*time.Hour+30*time.Minute, w.Duration())
}

func TestReservationStatus_Flags(t *testing.T) {
	assert.True(t, StatusBooked.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.True(t, StatusSeated.IsActive())
	assert.False(t, StatusCompleted.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusExpired.IsActive())

	assert.False(t, StatusBooked.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}
