// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrTableNotFound is returned when no table exists with the requested
// id, or the table has been deactivated. Handlers translate this into
// an HTTP 404 response.
var ErrTableNotFound = errors.New("table not found")

// ErrReservationNotFound is returned when no reservation exists with
// the requested id. Handlers translate this into an HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")
