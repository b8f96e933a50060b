package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafe-table-reservation/internal/booking"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/policy"
	"github.com/iliyamo/cafe-table-reservation/internal/repository"
)

// ReservationHandler exposes the reservation booking, lifecycle and
// availability endpoints.  All scheduling decisions live in the
// booking service; the handler parses requests, translates domain
// errors into HTTP responses and nothing more.
type ReservationHandler struct {
	Svc *booking.Service
}

// NewReservationHandler constructs a ReservationHandler.  The service
// must be non-nil.
func NewReservationHandler(svc *booking.Service) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc}
}

// createRequest is the body of POST /v1/reservations.  Dates use
// YYYY-MM-DD, times use HH:MM (24h, UTC).  end_time is optional; when
// omitted the policy's default duration derives it.
type createRequest struct {
	TableID      uint64  `json:"table_id"`
	Date         string  `json:"date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	PartySize    uint32  `json:"party_size"`
	CustomerName string  `json:"customer_name"`
	Phone        string  `json:"phone"`
	Email        *string `json:"email"`
	Note         *string `json:"note"`
}

// Create handles POST /v1/reservations.  On success it returns 201
// with the created reservation in BOOKED state.  Validation and
// policy failures return 400; an overlapping slot returns 409 with
// the conflicting reservation attached.
func (h *ReservationHandler) Create(c echo.Context) error {
	var body createRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
	}
	start, end, err := parseWindow(body.Date, body.StartTime, body.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Svc.Create(c.Request().Context(), booking.CreateRequest{
		TableID:      body.TableID,
		Start:        start,
		End:          end,
		PartySize:    body.PartySize,
		CustomerName: body.CustomerName,
		Phone:        body.Phone,
		Email:        body.Email,
		Note:         body.Note,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// AvailableTables handles GET /v1/reservations/available-tables.
// Query parameters: date (YYYY-MM-DD), time (HH:MM), optional
// end_time, party_size.  Returns the free tables ordered by ascending
// capacity, then id.
func (h *ReservationHandler) AvailableTables(c echo.Context) error {
	start, end, err := parseWindow(c.QueryParam("date"), c.QueryParam("time"), c.QueryParam("end_time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	partySize, err := strconv.ParseUint(c.QueryParam("party_size"), 10, 32)
	if err != nil || partySize == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size is required"})
	}
	tables, err := h.Svc.AvailableTables(c.Request().Context(), start, end, uint32(partySize))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": tables})
}

// GetByID handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetByID(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// List handles GET /v1/reservations with optional date and status
// query filters.
func (h *ReservationHandler) List(c echo.Context) error {
	var filter repository.ReservationFilter
	if d := c.QueryParam("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date; expected YYYY-MM-DD"})
		}
		filter.Date = &day
	}
	if s := c.QueryParam("status"); s != "" {
		status := model.ReservationStatus(strings.ToUpper(s))
		switch status {
		case model.StatusBooked, model.StatusConfirmed, model.StatusSeated,
			model.StatusCompleted, model.StatusCancelled, model.StatusExpired:
			filter.Status = status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
	}
	if t := c.QueryParam("table_id"); t != "" {
		id, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
		}
		filter.TableID = id
	}
	list, err := h.Svc.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// statusRequest is the body of PATCH /v1/reservations/:id/status.
type statusRequest struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

// UpdateStatus handles PATCH /v1/reservations/:id/status.  It applies
// the requested lifecycle transition; an illegal one returns 409.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body statusRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	var res *model.Reservation
	switch model.ReservationStatus(strings.ToUpper(body.Status)) {
	case model.StatusConfirmed:
		res, err = h.Svc.Confirm(ctx, id)
	case model.StatusSeated:
		res, err = h.Svc.Seat(ctx, id)
	case model.StatusCompleted:
		res, err = h.Svc.Complete(ctx, id)
	case model.StatusCancelled:
		reason := ""
		if body.Note != nil {
			reason = *body.Note
		}
		res, err = h.Svc.Cancel(ctx, id, reason)
		if errors.Is(err, booking.ErrAlreadyCancelled) {
			return c.JSON(http.StatusOK, echo.Map{"reservation": res, "already_cancelled": true})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown target status"})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// cancelRequest is the body of PATCH /v1/reservations/:id/cancel.
type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles PATCH /v1/reservations/:id/cancel.  Cancellation is
// idempotent: repeating the call returns 200 with already_cancelled
// set instead of an error.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body cancelRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Svc.Cancel(c.Request().Context(), id, body.Reason)
	if errors.Is(err, booking.ErrAlreadyCancelled) {
		return c.JSON(http.StatusOK, echo.Map{"reservation": res, "already_cancelled": true})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// timeRequest is the body of PATCH /v1/reservations/:id/time.
type timeRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// UpdateTime handles PATCH /v1/reservations/:id/time.  Rescheduling
// re-runs the full validation pipeline, excluding the reservation's
// own current slot from the conflict scan.
func (h *ReservationHandler) UpdateTime(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body timeRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, err := parseWindow(body.Date, body.StartTime, body.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Svc.UpdateTime(c.Request().Context(), id, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Stats handles GET /v1/reservations/stats, returning reservation
// counts grouped by status, optionally scoped to one date.
func (h *ReservationHandler) Stats(c echo.Context) error {
	var date *time.Time
	if d := c.QueryParam("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date; expected YYYY-MM-DD"})
		}
		date = &day
	}
	counts, err := h.Svc.Stats(c.Request().Context(), date)
	if err != nil {
		return respondError(c, err)
	}
	total := 0
	byStatus := make(map[string]int, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
		total += n
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "by_status": byStatus})
}

// parseID extracts the :id path parameter.
func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseWindow combines a date and start time (and optional end time)
// into UTC instants.  Only shape errors are reported here; policy
// checks happen in the booking service.
func parseWindow(date, start, end string) (time.Time, *time.Time, error) {
	if date == "" {
		return time.Time{}, nil, errors.New("date is required (YYYY-MM-DD)")
	}
	if start == "" {
		return time.Time{}, nil, errors.New("start time is required (HH:MM)")
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, nil, errors.New("invalid date; expected YYYY-MM-DD")
	}
	st, err := time.Parse("15:04", start)
	if err != nil {
		return time.Time{}, nil, errors.New("invalid start time; expected HH:MM")
	}
	startAt := time.Date(day.Year(), day.Month(), day.Day(), st.Hour(), st.Minute(), 0, 0, time.UTC)
	if end == "" {
		return startAt, nil, nil
	}
	et, err := time.Parse("15:04", end)
	if err != nil {
		return time.Time{}, nil, errors.New("invalid end time; expected HH:MM")
	}
	endAt := time.Date(day.Year(), day.Month(), day.Day(), et.Hour(), et.Minute(), 0, 0, time.UTC)
	return startAt, &endAt, nil
}

// respondError translates domain errors into HTTP responses.  Every
// branch maps one error family to one status code so clients can rely
// on the contract: 400 validation/policy, 404 unknown ids, 409
// conflicts and illegal transitions, 503 transient store failures.
func respondError(c echo.Context, err error) error {
	var (
		vErr *booking.ValidationError
		pVio *policy.Violation
		cErr *booking.ConflictError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": vErr.Message,
			"field": vErr.Field,
		})
	case errors.As(err, &pVio):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  pVio.Message,
			"reason": string(pVio.Reason),
		})
	case errors.As(err, &cErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "requested time overlaps an existing reservation",
			"conflicting_reservation": echo.Map{
				"id":         cErr.ReservationID,
				"table_id":   cErr.TableID,
				"start_time": cErr.Start.UTC().Format(time.RFC3339),
				"end_time":   cErr.End.UTC().Format(time.RFC3339),
			},
		})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	case errors.Is(err, booking.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable, retry later"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
