package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// BOOKED, CONFIRMED and SEATED are the active states that count toward
// conflict checks; COMPLETED, CANCELLED and EXPIRED are terminal and
// retained for audit and statistics.
type ReservationStatus string

const (
	StatusBooked    ReservationStatus = "BOOKED"    // created, awaiting confirmation
	StatusConfirmed ReservationStatus = "CONFIRMED" // confirmed by staff or customer
	StatusSeated    ReservationStatus = "SEATED"    // party has arrived and is seated
	StatusCompleted ReservationStatus = "COMPLETED" // visit finished, table freed
	StatusCancelled ReservationStatus = "CANCELLED" // cancelled before or during the visit
	StatusExpired   ReservationStatus = "EXPIRED"   // auto-expired by the sweeper
)

// IsActive reports whether a reservation in this status blocks its
// table/time slot for other bookings.
func (s ReservationStatus) IsActive() bool {
	switch s {
	case StatusBooked, StatusConfirmed, StatusSeated:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Reservation records a customer's booking of a table for a time
// window on a calendar date.  The core invariant of the whole service
// is that for a given table and date no two reservations in an active
// status may have overlapping [start,end) windows.  Reservations are
// mutated only through lifecycle transitions and are never physically
// deleted; cancelled and expired rows remain for audit.
//
// Fields:
//
//	ID           – primary key identifier.
//	TableID      – table being reserved.
//	Date         – calendar date of the visit (UTC midnight).
//	StartTime    – start of the reserved window (UTC).
//	EndTime      – end of the reserved window (UTC, exclusive).
//	PartySize    – number of guests (1–20).
//	CustomerName – name of the booking customer.
//	Phone        – contact phone number.
//	Email        – optional contact email.
//	Note         – optional free-text note.
//	Status       – lifecycle status.
//	CancelReason – optional reason recorded on cancellation.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type Reservation struct {
	ID           uint64            `json:"id"`                      // reservations.id
	TableID      uint64            `json:"table_id"`                // reservations.table_id
	Date         time.Time         `json:"date"`                    // reservations.date
	StartTime    time.Time         `json:"start_time"`              // reservations.start_time
	EndTime      time.Time         `json:"end_time"`                // reservations.end_time
	PartySize    uint32            `json:"party_size"`              // reservations.party_size
	CustomerName string            `json:"customer_name"`           // reservations.customer_name
	Phone        string            `json:"phone"`                   // reservations.phone
	Email        *string           `json:"email,omitempty"`         // reservations.email (nullable)
	Note         *string           `json:"note,omitempty"`          // reservations.note (nullable)
	Status       ReservationStatus `json:"status"`                  // reservations.status
	CancelReason *string           `json:"cancel_reason,omitempty"` // reservations.cancel_reason (nullable)
	CreatedAt    time.Time         `json:"created_at"`              // reservations.created_at
	UpdatedAt    time.Time         `json:"updated_at"`              // reservations.updated_at
}

// Window returns the reservation's time window as a value type.
func (r *Reservation) Window() TimeWindow {
	return TimeWindow{Date: r.Date, Start: r.StartTime, End: r.EndTime}
}
