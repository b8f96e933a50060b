// Package booking implements the reservation lifecycle manager and the
// availability engine.  All writes to the reservation store flow
// through this package's guarded transitions; conflict checks, inserts
// and status writes run under a per-(table,date) lock so that no two
// overlapping reservations for the same table can ever be committed
// and no transition can overwrite a concurrent one, even under
// concurrent requests and sweeps.
package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
	"github.com/iliyamo/cafe-table-reservation/internal/policy"
	"github.com/iliyamo/cafe-table-reservation/internal/queue"
	"github.com/iliyamo/cafe-table-reservation/internal/repository"
)

// storeTimeout bounds every store round-trip so that no request blocks
// indefinitely on the persistence layer.
const storeTimeout = 5 * time.Second

// ReservationStore is the persistence surface the service requires for
// reservations.  *repository.ReservationRepo implements it against
// MySQL; tests substitute an in-memory implementation.
type ReservationStore interface {
	Insert(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	FindConflict(ctx context.Context, tableID uint64, date, start, end time.Time, excludeID uint64) (*model.Reservation, error)
	List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus, cancelReason *string) error
	UpdateWindow(ctx context.Context, id uint64, date, start, end time.Time) error
	ListOverdueBooked(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
	ListSeatedBefore(ctx context.Context, day time.Time) ([]model.Reservation, error)
	CountByStatus(ctx context.Context, date *time.Time) (map[model.ReservationStatus]int, error)
}

// TableStore is the persistence surface the service requires for the
// table registry.  *repository.TableRepo implements it.
type TableStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
	List(ctx context.Context, f repository.TableFilter) ([]model.Table, error)
	UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error
}

// EventPublisher receives lifecycle events.  Publishing is best
// effort: failures are logged and never fail the request.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.ReservationEvent) error
}

// transitions is the lifecycle state machine: each status maps to the
// statuses it may move to.  Terminal statuses have no entry.
var transitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusBooked:    {model.StatusConfirmed, model.StatusCancelled, model.StatusExpired},
	model.StatusConfirmed: {model.StatusSeated, model.StatusCancelled},
	model.StatusSeated:    {model.StatusCompleted, model.StatusCancelled},
}

// CanTransition reports whether the state machine allows moving a
// reservation from one status to another.
func CanTransition(from, to model.ReservationStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Service drives reservations through their lifecycle and answers
// availability queries.  It is the only component that mutates the
// reservation store; the sweeper reuses its transition methods so both
// paths share the same locking discipline.
type Service struct {
	reservations ReservationStore
	tables       TableStore
	checker      *policy.Checker
	publisher    EventPublisher // may be nil
	locks        *keyLocks
	now          func() time.Time
}

// NewService wires the lifecycle manager to its stores and policy.
// publisher may be nil when no broker is configured.
func NewService(reservations ReservationStore, tables TableStore, checker *policy.Checker, publisher EventPublisher) *Service {
	return &Service{
		reservations: reservations,
		tables:       tables,
		checker:      checker,
		publisher:    publisher,
		locks:        newKeyLocks(),
		now:          time.Now,
	}
}

// CreateRequest carries a validated-on-entry booking request.  End is
// optional; when nil the policy's default duration derives it.
type CreateRequest struct {
	TableID      uint64
	Start        time.Time
	End          *time.Time
	PartySize    uint32
	CustomerName string
	Phone        string
	Email        *string
	Note         *string
}

// Create admits a new reservation in BOOKED state.  The request passes
// customer validation, time policy and the conflict check, in that
// order, before anything is written.  On overlap it fails with a
// *ConflictError carrying the blocking reservation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if err := validateCustomer(req.CustomerName, req.Phone, req.Email); err != nil {
		return nil, err
	}
	if err := validatePartySize(req.PartySize); err != nil {
		return nil, err
	}
	start := req.Start.UTC()
	end := s.checker.DefaultEnd(start)
	if req.End != nil {
		end = req.End.UTC()
	}
	if err := s.checker.ValidateWindow(start, end); err != nil {
		return nil, err
	}
	if err := s.checker.ValidateAdvance(start, s.now().UTC()); err != nil {
		return nil, err
	}

	table, err := s.getTable(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if table.Status == model.TableMaintenance {
		return nil, &ValidationError{Field: "table_id", Message: "table is under maintenance"}
	}

	date := model.DateOf(start)
	unlock := s.locks.acquire(req.TableID, date)
	defer unlock()

	if err := s.checkConflict(ctx, req.TableID, date, start, end, 0); err != nil {
		return nil, err
	}

	res := &model.Reservation{
		TableID:      req.TableID,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		PartySize:    req.PartySize,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		Note:         req.Note,
		Status:       model.StatusBooked,
	}
	if err := s.insert(ctx, res); err != nil {
		return nil, err
	}
	log.Printf("booking: created reservation %d table=%d %s %s-%s party=%d",
		res.ID, res.TableID, date.Format("2006-01-02"),
		start.Format("15:04"), end.Format("15:04"), res.PartySize)
	return res, nil
}

// Confirm moves a reservation from BOOKED to CONFIRMED.
func (s *Service) Confirm(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.transition(ctx, id, model.StatusConfirmed, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, res, queue.KindConfirmed, "")
	return res, nil
}

// Seat moves a reservation from CONFIRMED to SEATED and marks its
// table occupied.
func (s *Service) Seat(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.transition(ctx, id, model.StatusSeated, nil)
	if err != nil {
		return nil, err
	}
	if err := s.setTableStatus(ctx, res.TableID, model.TableOccupied); err != nil {
		log.Printf("booking: reservation %d seated but table %d status update failed: %v", res.ID, res.TableID, err)
	}
	return res, nil
}

// Complete moves a reservation from SEATED to COMPLETED and frees its
// table.
func (s *Service) Complete(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := s.transition(ctx, id, model.StatusCompleted, nil)
	if err != nil {
		return nil, err
	}
	if err := s.setTableStatus(ctx, res.TableID, model.TableAvailable); err != nil {
		log.Printf("booking: reservation %d completed but table %d status update failed: %v", res.ID, res.TableID, err)
	}
	return res, nil
}

// Cancel cancels a reservation from any active status.  Calling it on
// a reservation already in a terminal state is a no-op that returns
// the current row together with ErrAlreadyCancelled so callers can
// signal the difference; state is never corrupted by repeated calls.
func (s *Service) Cancel(ctx context.Context, id uint64, reason string) (*model.Reservation, error) {
	res, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status.IsTerminal() {
		return res, ErrAlreadyCancelled
	}
	wasSeated := res.Status == model.StatusSeated
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	res, err = s.transition(ctx, id, model.StatusCancelled, reasonPtr)
	if err != nil {
		return nil, err
	}
	if wasSeated {
		if err := s.setTableStatus(ctx, res.TableID, model.TableAvailable); err != nil {
			log.Printf("booking: reservation %d cancelled but table %d status update failed: %v", res.ID, res.TableID, err)
		}
	}
	s.publish(ctx, res, queue.KindCancelled, reason)
	return res, nil
}

// UpdateTime reschedules a BOOKED or CONFIRMED reservation onto a new
// window.  The full validation pipeline runs again, with the
// reservation's own current slot excluded from the conflict scan.
func (s *Service) UpdateTime(ctx context.Context, id uint64, start time.Time, end *time.Time) (*model.Reservation, error) {
	res, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != model.StatusBooked && res.Status != model.StatusConfirmed {
		log.Printf("booking: rejected time update for reservation %d in status %s", id, res.Status)
		return nil, ErrInvalidTransition
	}
	newStart := start.UTC()
	newEnd := s.checker.DefaultEnd(newStart)
	if end != nil {
		newEnd = end.UTC()
	}
	if err := s.checker.ValidateWindow(newStart, newEnd); err != nil {
		return nil, err
	}
	if err := s.checker.ValidateAdvance(newStart, s.now().UTC()); err != nil {
		return nil, err
	}

	date := model.DateOf(newStart)
	unlock := s.locks.acquire(res.TableID, date)
	defer unlock()

	if err := s.checkConflict(ctx, res.TableID, date, newStart, newEnd, id); err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.reservations.UpdateWindow(cctx, id, date, newStart, newEnd); err != nil {
		return nil, s.wrapStoreErr(err)
	}
	log.Printf("booking: moved reservation %d to %s %s-%s",
		id, date.Format("2006-01-02"), newStart.Format("15:04"), newEnd.Format("15:04"))
	return s.get(ctx, id)
}

// Get returns a reservation by id.
func (s *Service) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.get(ctx, id)
}

// List returns reservations matching the filter.
func (s *Service) List(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error) {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	out, err := s.reservations.List(cctx, f)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return out, nil
}

// AvailableTables returns the active tables that can seat the party
// and have no active reservation overlapping the window, ordered by
// ascending capacity (smallest adequate table first) with ties broken
// by id.  The result is advisory: the authoritative conflict check
// always re-runs under the slot lock at create/update time.
func (s *Service) AvailableTables(ctx context.Context, start time.Time, end *time.Time, partySize uint32) ([]model.Table, error) {
	if err := validatePartySize(partySize); err != nil {
		return nil, err
	}
	winStart := start.UTC()
	winEnd := s.checker.DefaultEnd(winStart)
	if end != nil {
		winEnd = end.UTC()
	}
	if err := s.checker.ValidateWindow(winStart, winEnd); err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	candidates, err := s.tables.List(cctx, repository.TableFilter{MinCapacity: partySize, ActiveOnly: true})
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	date := model.DateOf(winStart)
	free := make([]model.Table, 0, len(candidates))
	for _, t := range candidates {
		if t.Status == model.TableMaintenance {
			continue
		}
		conflict, err := s.reservations.FindConflict(cctx, t.ID, date, winStart, winEnd, 0)
		if err != nil {
			return nil, s.wrapStoreErr(err)
		}
		if conflict == nil {
			free = append(free, t)
		}
	}
	return free, nil
}

// Stats returns reservation counts grouped by status, optionally for a
// single date.
func (s *Service) Stats(ctx context.Context, date *time.Time) (map[model.ReservationStatus]int, error) {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	counts, err := s.reservations.CountByStatus(cctx, date)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return counts, nil
}

// ExpireOverdue transitions to EXPIRED every reservation still BOOKED
// whose start time passed more than the grace period ago.  Each
// candidate is re-checked under its slot lock, so the pass is
// idempotent and safe to run concurrently with booking requests.  It
// returns the number of reservations expired.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.UTC().Add(-s.checker.GracePeriod())
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	overdue, err := s.reservations.ListOverdueBooked(cctx, cutoff)
	cancel()
	if err != nil {
		return 0, s.wrapStoreErr(err)
	}
	expired := 0
	for i := range overdue {
		res := &overdue[i]
		unlock := s.locks.acquire(res.TableID, res.Date)
		current, err := s.get(ctx, res.ID)
		if err != nil {
			unlock()
			if errors.Is(err, repository.ErrReservationNotFound) {
				continue
			}
			return expired, err
		}
		// Re-check under the lock: the customer may have confirmed or
		// cancelled between the scan and now.
		if current.Status != model.StatusBooked || !current.StartTime.Before(cutoff) {
			unlock()
			continue
		}
		uctx, ucancel := context.WithTimeout(ctx, storeTimeout)
		err = s.reservations.UpdateStatus(uctx, res.ID, model.StatusExpired, nil)
		ucancel()
		unlock()
		if err != nil {
			return expired, s.wrapStoreErr(err)
		}
		expired++
		log.Printf("booking: expired reservation %d (start %s, unconfirmed past grace period)",
			res.ID, res.StartTime.UTC().Format("2006-01-02 15:04"))
		s.publish(ctx, current, queue.KindExpired, "unconfirmed past grace period")
	}
	return expired, nil
}

// CompleteStaleSeated force-completes reservations still SEATED for a
// date before today.  This is the end-of-day cleanup for missed manual
// completion; each completion also frees the table.  It
// returns the number of reservations completed.
func (s *Service) CompleteStaleSeated(ctx context.Context, now time.Time) (int, error) {
	today := model.DateOf(now)
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	stale, err := s.reservations.ListSeatedBefore(cctx, today)
	cancel()
	if err != nil {
		return 0, s.wrapStoreErr(err)
	}
	completed := 0
	for i := range stale {
		res := &stale[i]
		unlock := s.locks.acquire(res.TableID, res.Date)
		current, err := s.get(ctx, res.ID)
		if err != nil {
			unlock()
			if errors.Is(err, repository.ErrReservationNotFound) {
				continue
			}
			return completed, err
		}
		if current.Status != model.StatusSeated {
			unlock()
			continue
		}
		uctx, ucancel := context.WithTimeout(ctx, storeTimeout)
		err = s.reservations.UpdateStatus(uctx, res.ID, model.StatusCompleted, nil)
		ucancel()
		unlock()
		if err != nil {
			return completed, s.wrapStoreErr(err)
		}
		if err := s.setTableStatus(ctx, res.TableID, model.TableAvailable); err != nil {
			log.Printf("booking: stale reservation %d completed but table %d status update failed: %v",
				res.ID, res.TableID, err)
		}
		completed++
		log.Printf("booking: force-completed stale seated reservation %d (date %s)",
			res.ID, res.Date.Format("2006-01-02"))
	}
	return completed, nil
}

// transition applies a guarded status change and returns the updated
// reservation.  Guard failures are logged with the attempted move.
// The guard and the write run under the reservation's slot lock so a
// transition can never land on top of a concurrent sweeper write (or
// vice versa); whichever committed first wins and the loser's guard
// sees the new status.
func (s *Service) transition(ctx context.Context, id uint64, to model.ReservationStatus, cancelReason *string) (*model.Reservation, error) {
	res, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.acquire(res.TableID, res.Date)
	defer unlock()
	// Re-read under the lock; the status may have moved since the
	// unlocked read that located the slot.
	res, err = s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(res.Status, to) {
		log.Printf("booking: rejected transition %s -> %s for reservation %d", res.Status, to, id)
		return nil, ErrInvalidTransition
	}
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.reservations.UpdateStatus(cctx, id, to, cancelReason); err != nil {
		return nil, s.wrapStoreErr(err)
	}
	log.Printf("booking: reservation %d %s -> %s", id, res.Status, to)
	res.Status = to
	if cancelReason != nil {
		res.CancelReason = cancelReason
	}
	return res, nil
}

// checkConflict runs the overlap scan and converts a hit into a
// *ConflictError.
func (s *Service) checkConflict(ctx context.Context, tableID uint64, date, start, end time.Time, excludeID uint64) error {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	conflict, err := s.reservations.FindConflict(cctx, tableID, date, start, end, excludeID)
	if err != nil {
		return s.wrapStoreErr(err)
	}
	if conflict != nil {
		log.Printf("booking: conflict on table %d %s: requested %s-%s overlaps reservation %d (%s-%s)",
			tableID, date.Format("2006-01-02"),
			start.UTC().Format("15:04"), end.UTC().Format("15:04"),
			conflict.ID, conflict.StartTime.UTC().Format("15:04"), conflict.EndTime.UTC().Format("15:04"))
		return &ConflictError{
			ReservationID: conflict.ID,
			TableID:       tableID,
			Start:         conflict.StartTime,
			End:           conflict.EndTime,
		}
	}
	return nil
}

func (s *Service) get(ctx context.Context, id uint64) (*model.Reservation, error) {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	res, err := s.reservations.GetByID(cctx, id)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return res, nil
}

func (s *Service) getTable(ctx context.Context, id uint64) (*model.Table, error) {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	t, err := s.tables.GetByID(cctx, id)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if !t.IsActive {
		return nil, repository.ErrTableNotFound
	}
	return t, nil
}

func (s *Service) insert(ctx context.Context, res *model.Reservation) error {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.reservations.Insert(cctx, res); err != nil {
		return s.wrapStoreErr(err)
	}
	return nil
}

func (s *Service) setTableStatus(ctx context.Context, tableID uint64, status model.TableStatus) error {
	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.tables.UpdateStatus(cctx, tableID, status)
}

// wrapStoreErr passes domain sentinels through untouched and folds
// everything else (driver failures, timeouts) into ErrStoreUnavailable
// so handlers can answer 503 and clients can retry safely.
func (s *Service) wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrReservationNotFound) || errors.Is(err, repository.ErrTableNotFound) {
		return err
	}
	log.Printf("booking: store error: %v", err)
	return ErrStoreUnavailable
}

// publish sends a lifecycle event when a publisher is configured.
// Failures are logged and otherwise ignored; events are advisory.
func (s *Service) publish(ctx context.Context, res *model.Reservation, kind, reason string) {
	if s.publisher == nil {
		return
	}
	ev := queue.ReservationEvent{
		Kind:          kind,
		ReservationID: res.ID,
		TableID:       res.TableID,
		Date:          res.Date.Format("2006-01-02"),
		StartTime:     res.StartTime.UTC().Format(time.RFC3339),
		EndTime:       res.EndTime.UTC().Format(time.RFC3339),
		PartySize:     res.PartySize,
		CustomerName:  res.CustomerName,
		Reason:        reason,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishReservationEvent(ctx, ev); err != nil {
		log.Printf("booking: publish %s for reservation %d failed: %v", kind, res.ID, err)
	}
}
