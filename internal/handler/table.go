package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/repository"
)

// TableHandler exposes the table registry: public listing/detail and
// staff-only create/update/deactivate.  Table status is not writable
// here except for the maintenance flag; operational status changes
// (occupied/available) happen only through reservation transitions.
type TableHandler struct {
	Repo *repository.TableRepo
}

// NewTableHandler constructs a TableHandler.  The repository must be
// non-nil.
func NewTableHandler(repo *repository.TableRepo) *TableHandler {
	if repo == nil {
		panic("nil repository passed to NewTableHandler")
	}
	return &TableHandler{Repo: repo}
}

// List handles GET /v1/tables with optional area and min_capacity
// query filters.  Deactivated tables are excluded unless
// include_inactive=true (staff views).
func (h *TableHandler) List(c echo.Context) error {
	filter := repository.TableFilter{ActiveOnly: c.QueryParam("include_inactive") != "true"}
	if area := c.QueryParam("area"); area != "" {
		filter.Area = area
	}
	if mc := c.QueryParam("min_capacity"); mc != "" {
		n, err := strconv.ParseUint(mc, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_capacity"})
		}
		filter.MinCapacity = uint32(n)
	}
	tables, err := h.Repo.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}

// GetByID handles GET /v1/tables/:id.
func (h *TableHandler) GetByID(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	table, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, table)
}

// tableRequest is the body for table create/update.
type tableRequest struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
	Area     string `json:"area"`
	Position string `json:"position"`
}

// Create handles POST /v1/tables (staff only).
func (h *TableHandler) Create(c echo.Context) error {
	var body tableRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and capacity are required"})
	}
	table := &model.Table{
		Name:     body.Name,
		Capacity: body.Capacity,
		Area:     body.Area,
		Position: body.Position,
		Status:   model.TableAvailable,
		IsActive: true,
	}
	if err := h.Repo.Create(c.Request().Context(), table); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, table)
}

// Update handles PATCH /v1/tables/:id (staff only).  Only descriptive
// fields change here.
func (h *TableHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	table, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var body tableRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name != "" {
		table.Name = body.Name
	}
	if body.Capacity != 0 {
		table.Capacity = body.Capacity
	}
	if body.Area != "" {
		table.Area = body.Area
	}
	if body.Position != "" {
		table.Position = body.Position
	}
	if err := h.Repo.Update(c.Request().Context(), table); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, table)
}

// maintenanceRequest toggles a table in and out of maintenance.
type maintenanceRequest struct {
	Maintenance bool `json:"maintenance"`
}

// SetMaintenance handles PATCH /v1/tables/:id/maintenance (staff
// only).  Tables in maintenance are excluded from availability and
// reject new bookings.
func (h *TableHandler) SetMaintenance(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body maintenanceRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.TableAvailable
	if body.Maintenance {
		status = model.TableMaintenance
	}
	if err := h.Repo.UpdateStatus(c.Request().Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	table, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, table)
}

// Deactivate handles DELETE /v1/tables/:id (staff only).  Tables are
// soft deleted so reservation history keeps resolving.
func (h *TableHandler) Deactivate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if err := h.Repo.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
