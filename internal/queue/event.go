// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published on reservation lifecycle transitions.
const (
	KindConfirmed = "reservation.confirmed"
	KindCancelled = "reservation.cancelled"
	KindExpired   = "reservation.expired"
)

// ReservationEvent is published when a reservation is confirmed,
// cancelled or auto-expired.  It contains enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type ReservationEvent struct {
	Kind          string `json:"kind"`
	ReservationID uint64 `json:"reservation_id"`
	TableID       uint64 `json:"table_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	PartySize     uint32 `json:"party_size"`
	CustomerName  string `json:"customer_name"`
	Reason        string `json:"reason,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
