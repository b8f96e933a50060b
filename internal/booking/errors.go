package booking

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a lifecycle operation is
// attempted on a reservation whose current status does not allow it.
// Handlers translate it into an HTTP 409 response.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrAlreadyCancelled signals that a cancel call was a no-op because
// the reservation was already in a terminal state.  Cancellation is
// idempotent, so handlers still respond with success; the sentinel
// lets them mark the response distinctly from a fresh cancellation.
var ErrAlreadyCancelled = errors.New("reservation already cancelled")

// ErrStoreUnavailable is returned when the reservation store cannot be
// reached or times out.  The failed operation was not partially
// applied and is safe to retry.  Handlers translate it into 503.
var ErrStoreUnavailable = errors.New("reservation store unavailable")

// ValidationError reports malformed input on a single request field.
// It is recovered locally and surfaced as a 400 with the field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// ConflictError is returned when the requested window overlaps an
// active reservation on the same table.  It carries the conflicting
// reservation so clients can display the blocking slot and suggest
// alternatives.
type ConflictError struct {
	ReservationID uint64    // id of the conflicting reservation
	TableID       uint64    // table both reservations target
	Start         time.Time // start of the conflicting window
	End           time.Time // end of the conflicting window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("table %d is already reserved from %s to %s (reservation %d)",
		e.TableID, e.Start.UTC().Format("15:04"), e.End.UTC().Format("15:04"), e.ReservationID)
}
