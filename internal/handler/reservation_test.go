package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cafe-table-reservation/internal/booking"
	"github.com/iliyamo/cafe-table-reservation/internal/config"
	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/policy"
	"github.com/iliyamo/cafe-table-reservation/internal/repository"
)

// stubStore is a minimal in-memory reservation store for exercising the
// HTTP layer.  The booking service's own tests cover store semantics in
// depth; here only enough behavior to drive the handlers is needed.
type stubStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*model.Reservation
}

func newStubStore() *stubStore {
	return &stubStore{rows: make(map[uint64]*model.Reservation)}
}

func (s *stubStore) Insert(ctx context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	res.ID = s.nextID
	clone := *res
	s.rows[res.ID] = &clone
	return nil
}

func (s *stubStore) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	clone := *r
	return &clone, nil
}

func (s *stubStore) FindConflict(ctx context.Context, tableID uint64, date, start, end time.Time, excludeID uint64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := model.NewTimeWindow(start, end)
	for _, r := range s.rows {
		if r.ID == excludeID || r.TableID != tableID || !r.Date.Equal(date) || !r.Status.IsActive() {
			continue
		}
		if r.Window().Overlaps(want) {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *stubStore) List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus, cancelReason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Status = status
	if cancelReason != nil {
		r.CancelReason = cancelReason
	}
	return nil
}

func (s *stubStore) UpdateWindow(ctx context.Context, id uint64, date, start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Date, r.StartTime, r.EndTime = date, start, end
	return nil
}

func (s *stubStore) ListOverdueBooked(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	return nil, nil
}

func (s *stubStore) ListSeatedBefore(ctx context.Context, day time.Time) ([]model.Reservation, error) {
	return nil, nil
}

func (s *stubStore) CountByStatus(ctx context.Context, date *time.Time) (map[model.ReservationStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.ReservationStatus]int)
	for _, r := range s.rows {
		if date != nil && !r.Date.Equal(*date) {
			continue
		}
		counts[r.Status]++
	}
	return counts, nil
}

type stubTables struct{}

func (stubTables) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	if id != 1 {
		return nil, repository.ErrTableNotFound
	}
	return &model.Table{ID: 1, Name: "T1", Capacity: 4, Status: model.TableAvailable, IsActive: true}, nil
}

func (stubTables) List(ctx context.Context, f repository.TableFilter) ([]model.Table, error) {
	return []model.Table{{ID: 1, Name: "T1", Capacity: 4, Status: model.TableAvailable, IsActive: true}}, nil
}

func (stubTables) UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error {
	return nil
}

func newTestHandler() *ReservationHandler {
	checker := policy.New(config.Policy{
		OpenMinute:      0,
		CloseMinute:     24*60 - 1,
		MinDuration:     60 * time.Minute,
		MaxDuration:     240 * time.Minute,
		DefaultDuration: 120 * time.Minute,
		MinAdvance:      time.Minute,
		MaxAdvanceDays:  60,
		GracePeriod:     15 * time.Minute,
	})
	svc := booking.NewService(newStubStore(), stubTables{}, checker, nil)
	return NewReservationHandler(svc)
}

// bookDay is a week out so the advance rules pass against the real
// clock, which the service consults.
var bookDay = time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

func createBody(start, end string) string {
	return fmt.Sprintf(`{"table_id":1,"date":%q,"start_time":%q,"end_time":%q,`+
		`"party_size":2,"customer_name":"Alice Doe","phone":"+1 555 000 1234"}`,
		bookDay, start, end)
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, params ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	require.NoError(t, h(c))
	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestCreateEndpoint(t *testing.T) {
	h := newTestHandler()

	rec, payload := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", createBody("12:00", "14:00"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "BOOKED", payload["status"])
	assert.NotZero(t, payload["id"])
}

func TestCreateEndpoint_FieldError(t *testing.T) {
	h := newTestHandler()

	body := strings.Replace(createBody("12:00", "14:00"), "+1 555 000 1234", "123", 1)
	rec, payload := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone", payload["field"])
}

func TestCreateEndpoint_PolicyReason(t *testing.T) {
	h := newTestHandler()

	// 30 minutes is under the minimum duration.
	rec, payload := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", createBody("12:00", "12:30"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "TOO_SHORT", payload["reason"])
}

func TestCreateEndpoint_Conflict(t *testing.T) {
	h := newTestHandler()

	rec, first := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", createBody("12:00", "14:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, payload := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", createBody("13:00", "15:00"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	conflict, ok := payload["conflicting_reservation"].(map[string]any)
	require.True(t, ok, "conflict response must attach the blocking reservation")
	assert.Equal(t, first["id"], conflict["id"])
	assert.Equal(t, float64(1), conflict["table_id"])
}

func TestCreateEndpoint_MissingWindow(t *testing.T) {
	h := newTestHandler()

	rec, _ := doJSON(t, h.Create, http.MethodPost, "/v1/reservations",
		`{"table_id":1,"party_size":2,"customer_name":"Alice Doe","phone":"+1 555 000 1234"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEndpoint_NotFound(t *testing.T) {
	h := newTestHandler()

	rec, _ := doJSON(t, h.GetByID, http.MethodGet, "/v1/reservations/42", "", "id", "42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpoint_InvalidTransition(t *testing.T) {
	h := newTestHandler()

	rec, first := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", createBody("12:00", "14:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := strconv.Itoa(int(first["id"].(float64)))

	// Seating a BOOKED reservation skips CONFIRMED.
	rec, _ = doJSON(t, h.UpdateStatus, http.MethodPatch, "/v1/reservations/"+id+"/status",
		`{"status":"SEATED"}`, "id", id)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, payload := doJSON(t, h.UpdateStatus, http.MethodPatch, "/v1/reservations/"+id+"/status",
		`{"status":"CONFIRMED"}`, "id", id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", payload["status"])
}

func TestCancelEndpoint_Idempotent(t *testing.T) {
	h := newTestHandler()

	rec, first := doJSON(t, h.Create, http.MethodPost, "/v1/reservations", createBody("12:00", "14:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := strconv.Itoa(int(first["id"].(float64)))

	rec, payload := doJSON(t, h.Cancel, http.MethodPatch, "/v1/reservations/"+id+"/cancel",
		`{"reason":"ran late"}`, "id", id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", payload["status"])

	rec, payload = doJSON(t, h.Cancel, http.MethodPatch, "/v1/reservations/"+id+"/cancel",
		`{}`, "id", id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["already_cancelled"])
}

func TestParseWindow(t *testing.T) {
	start, end, err := parseWindow("2026-06-10", "12:00", "14:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC), start)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2026, time.June, 10, 14, 30, 0, 0, time.UTC), *end)

	_, end, err = parseWindow("2026-06-10", "12:00", "")
	require.NoError(t, err)
	assert.Nil(t, end, "end time is optional")

	_, _, err = parseWindow("", "12:00", "")
	assert.Error(t, err)
	_, _, err = parseWindow("06/10/2026", "12:00", "")
	assert.Error(t, err)
	_, _, err = parseWindow("2026-06-10", "noonish", "")
	assert.Error(t, err)
}
