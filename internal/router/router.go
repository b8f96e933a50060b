package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafe-table-reservation/internal/handler"
	"github.com/iliyamo/cafe-table-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterReservations registers the public reservation endpoints.
// Booking, rescheduling and cancelling are open to customers (the
// caller is assumed pre-authenticated by the upstream gateway);
// availability and listing reads go through the optional response
// cache middleware.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/reservations")

	g.POST("", r.Create)
	g.PATCH("/:id/cancel", r.Cancel)
	g.PATCH("/:id/time", r.UpdateTime)

	// Read endpoints; cache is a pass-through no-op when Redis is down.
	g.GET("/available-tables", r.AvailableTables, cache)
	g.GET("", r.List, cache)
	g.GET("/:id", r.GetByID)
}

// RegisterStaff registers the endpoints reserved for cafe staff:
// lifecycle transitions (confirm/seat/complete/cancel via status),
// reservation statistics and table registry administration.  All of
// them sit behind JWT authentication and the STAFF role.
func RegisterStaff(e *echo.Echo, r *handler.ReservationHandler, t *handler.TableHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("STAFF"))

	g.PATCH("/reservations/:id/status", r.UpdateStatus)
	g.GET("/reservations/stats", r.Stats)

	g.POST("/tables", t.Create)
	g.PATCH("/tables/:id", t.Update)
	g.PATCH("/tables/:id/maintenance", t.SetMaintenance)
	g.DELETE("/tables/:id", t.Deactivate)
}

// RegisterTables registers the public table registry reads so
// customers can browse the floor before picking a slot.
func RegisterTables(e *echo.Echo, t *handler.TableHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/tables", t.List, cache)
	e.GET("/v1/tables/:id", t.GetByID)
}
