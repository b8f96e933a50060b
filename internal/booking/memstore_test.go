package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/queue"
	"github.com/iliyamo/cafe-table-reservation/internal/repository"
)

// memReservationStore is an in-memory ReservationStore mirroring the
// MySQL repository's semantics, including the half-open overlap scan.
// Setting forcedErr makes every call fail, for store-outage tests.
type memReservationStore struct {
	mu        sync.Mutex
	nextID    uint64
	rows      map[uint64]*model.Reservation
	forcedErr error
}

func newMemReservationStore() *memReservationStore {
	return &memReservationStore{rows: make(map[uint64]*model.Reservation)}
}

func copyRes(r *model.Reservation) *model.Reservation {
	c := *r
	return &c
}

func (m *memReservationStore) Insert(ctx context.Context, res *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	m.nextID++
	res.ID = m.nextID
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	m.rows[res.ID] = copyRes(res)
	return nil
}

func (m *memReservationStore) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return copyRes(r), nil
}

func (m *memReservationStore) FindConflict(ctx context.Context, tableID uint64, date, start, end time.Time, excludeID uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	want := model.NewTimeWindow(start, end)
	var hit *model.Reservation
	for _, r := range m.rows {
		if r.ID == excludeID || r.TableID != tableID || !r.Date.Equal(date) || !r.Status.IsActive() {
			continue
		}
		if r.Window().Overlaps(want) {
			if hit == nil || r.StartTime.Before(hit.StartTime) {
				hit = r
			}
		}
	}
	if hit == nil {
		return nil, nil
	}
	return copyRes(hit), nil
}

func (m *memReservationStore) List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	var out []model.Reservation
	for _, r := range m.rows {
		if f.Date != nil && !r.Date.Equal(*f.Date) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.TableID != 0 && r.TableID != f.TableID {
			continue
		}
		out = append(out, *copyRes(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memReservationStore) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus, cancelReason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Status = status
	if cancelReason != nil {
		r.CancelReason = cancelReason
	}
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memReservationStore) UpdateWindow(ctx context.Context, id uint64, date, start, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return m.forcedErr
	}
	r, ok := m.rows[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Date = date
	r.StartTime = start
	r.EndTime = end
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memReservationStore) ListOverdueBooked(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	var out []model.Reservation
	for _, r := range m.rows {
		if r.Status == model.StatusBooked && r.StartTime.Before(cutoff) {
			out = append(out, *copyRes(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memReservationStore) ListSeatedBefore(ctx context.Context, day time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	var out []model.Reservation
	for _, r := range m.rows {
		if r.Status == model.StatusSeated && r.Date.Before(day) {
			out = append(out, *copyRes(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memReservationStore) CountByStatus(ctx context.Context, date *time.Time) (map[model.ReservationStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forcedErr != nil {
		return nil, m.forcedErr
	}
	counts := make(map[model.ReservationStatus]int)
	for _, r := range m.rows {
		if date != nil && !r.Date.Equal(*date) {
			continue
		}
		counts[r.Status]++
	}
	return counts, nil
}

// status reads a stored row's status directly, bypassing the service.
func (m *memReservationStore) status(id uint64) model.ReservationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

// memTableStore is an in-memory TableStore.  List matches the MySQL
// repository's ordering: capacity ascending, then id.
type memTableStore struct {
	mu   sync.Mutex
	rows map[uint64]*model.Table
}

func newMemTableStore(tables ...model.Table) *memTableStore {
	m := &memTableStore{rows: make(map[uint64]*model.Table)}
	for i := range tables {
		t := tables[i]
		m.rows[t.ID] = &t
	}
	return m
}

func (m *memTableStore) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrTableNotFound
	}
	c := *t
	return &c, nil
}

func (m *memTableStore) List(ctx context.Context, f repository.TableFilter) ([]model.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Table
	for _, t := range m.rows {
		if f.Area != "" && t.Area != f.Area {
			continue
		}
		if t.Capacity < f.MinCapacity {
			continue
		}
		if f.ActiveOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Capacity != out[j].Capacity {
			return out[i].Capacity < out[j].Capacity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memTableStore) UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return repository.ErrTableNotFound
	}
	t.Status = status
	return nil
}

func (m *memTableStore) status(id uint64) model.TableStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id].Status
}

// memPublisher records published events for assertions.
type memPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (p *memPublisher) PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *memPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}
