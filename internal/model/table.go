package model

import "time"

// TableStatus enumerates the states a physical table can be in.  The
// status is mutated only as a side effect of reservation lifecycle
// transitions (seat/complete/cancel) or by staff marking a table for
// maintenance, never directly by customer requests.
type TableStatus string

const (
	TableAvailable   TableStatus = "AVAILABLE"   // free to be reserved or seated
	TableOccupied    TableStatus = "OCCUPIED"    // a party is currently seated
	TableReserved    TableStatus = "RESERVED"    // held for an upcoming reservation
	TableMaintenance TableStatus = "MAINTENANCE" // out of service, excluded from availability
)

// Table describes a physical seating unit in the cafe.  Tables are
// the universe the availability engine searches over.  They are never
// physically deleted while referenced by reservation history; staff
// deactivate them instead (soft delete via IsActive).
//
// Fields:
//
//	ID        – primary key identifier.
//	Name      – display name shown to staff and customers.
//	Capacity  – number of seats (positive).
//	Area      – zone label (e.g. WINDOW, PATIO, MAIN, BAR, PRIVATE).
//	Position  – free-text sub-location within the area.
//	Status    – current table status.
//	IsActive  – whether the table participates in availability.
//	CreatedAt – creation timestamp.
//	UpdatedAt – last update timestamp.
type Table struct {
	ID        uint64      `json:"id"`         // tables.id
	Name      string      `json:"name"`       // tables.name
	Capacity  uint32      `json:"capacity"`   // tables.capacity
	Area      string      `json:"area"`       // tables.area
	Position  string      `json:"position"`   // tables.position
	Status    TableStatus `json:"status"`     // tables.status
	IsActive  bool        `json:"is_active"`  // tables.is_active
	CreatedAt time.Time   `json:"created_at"` // tables.created_at
	UpdatedAt time.Time   `json:"updated_at"` // tables.updated_at
}
