package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Rows are
// never physically deleted: cancelled and expired reservations are kept
// for audit and statistics.  All timestamp fields are stored in UTC;
// the date column holds the visit's calendar date and is the partition
// key (together with table_id) for conflict scans.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, table_id, date, start_time, end_time, party_size,
customer_name, phone, email, note, status, cancel_reason, created_at, updated_at`

const dtFormat = "2006-01-02 15:04:05"
const dateFormat = "2006-01-02"

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var (
		res          model.Reservation
		email        sql.NullString
		note         sql.NullString
		cancelReason sql.NullString
	)
	if err := row.Scan(&res.ID, &res.TableID, &res.Date, &res.StartTime, &res.EndTime,
		&res.PartySize, &res.CustomerName, &res.Phone, &email, &note,
		&res.Status, &cancelReason, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		v := email.String
		res.Email = &v
	}
	if note.Valid {
		v := note.String
		res.Note = &v
	}
	if cancelReason.Valid {
		v := cancelReason.String
		res.CancelReason = &v
	}
	return &res, nil
}

// Insert persists a new reservation and populates the generated ID and
// timestamps on the provided model.  The caller is responsible for
// running the conflict check first; Insert itself does not validate.
func (r *ReservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
               (table_id, date, start_time, end_time, party_size, customer_name, phone, email, note, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		res.TableID,
		res.Date.UTC().Format(dateFormat),
		res.StartTime.UTC().Format(dtFormat),
		res.EndTime.UTC().Format(dtFormat),
		res.PartySize, res.CustomerName, res.Phone,
		nullable(res.Email), nullable(res.Note), res.Status,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	created, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID))
	if err != nil {
		return err
	}
	*res = *created
	return nil
}

// GetByID returns a single reservation by id.  ErrReservationNotFound
// is returned when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// FindConflict scans active reservations for the table and date and
// returns the first one whose window overlaps [start,end) under the
// half-open rule (existing.start < end AND start < existing.end).  A
// reservation ending exactly at start, or starting exactly at end, does
// not conflict.  excludeID removes the reservation being rescheduled
// from the scan; pass 0 when creating.  Returns (nil, nil) when the
// slot is free.
func (r *ReservationRepo) FindConflict(ctx context.Context, tableID uint64, date time.Time, start, end time.Time, excludeID uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
               FROM reservations
               WHERE table_id = ? AND date = ?
                 AND status IN ('BOOKED', 'CONFIRMED', 'SEATED')
                 AND start_time < ? AND ? < end_time
                 AND id <> ?
               ORDER BY start_time ASC
               LIMIT 1`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q,
		tableID,
		date.UTC().Format(dateFormat),
		end.UTC().Format(dtFormat),
		start.UTC().Format(dtFormat),
		excludeID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ReservationFilter narrows List results.  Zero values mean "no filter".
type ReservationFilter struct {
	Date    *time.Time              // match the visit date
	Status  model.ReservationStatus // match a single status
	TableID uint64                  // match a single table
}

// List returns reservations matching the filter ordered by date and
// start time ascending.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	if f.Date != nil {
		conds = append(conds, "date = ?")
		args = append(args, f.Date.UTC().Format(dateFormat))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.TableID != 0 {
		conds = append(conds, "table_id = ?")
		args = append(args, f.TableID)
	}
	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date ASC, start_time ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus transitions a reservation to the given status.  The
// cancel reason is recorded only when non-nil.  The booking service
// guards which transitions are legal before calling this.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus, cancelReason *string) error {
	var (
		res sql.Result
		err error
	)
	if cancelReason != nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE reservations SET status = ?, cancel_reason = ? WHERE id = ?`,
			status, *cancelReason, id)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdateWindow rewrites the reservation's date and time window.  The
// booking service re-runs full validation and the conflict check
// (excluding this reservation's own slot) before calling this.
func (r *ReservationRepo) UpdateWindow(ctx context.Context, id uint64, date, start, end time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET date = ?, start_time = ?, end_time = ? WHERE id = ?`,
		date.UTC().Format(dateFormat),
		start.UTC().Format(dtFormat),
		end.UTC().Format(dtFormat),
		id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListOverdueBooked returns reservations still in BOOKED whose start
// time is before the cutoff.  The sweeper passes now minus the grace
// period and expires whatever comes back.
func (r *ReservationRepo) ListOverdueBooked(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
               FROM reservations
               WHERE status = 'BOOKED' AND start_time < ?
               ORDER BY start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, cutoff.UTC().Format(dtFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSeatedBefore returns reservations still in SEATED whose visit
// date is before the given day.  The end-of-day sweep force-completes
// them when manual completion was missed.
func (r *ReservationRepo) ListSeatedBefore(ctx context.Context, day time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
               FROM reservations
               WHERE status = 'SEATED' AND date < ?
               ORDER BY date ASC, start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, day.UTC().Format(dateFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus returns the number of reservations per status,
// optionally restricted to a single date.
func (r *ReservationRepo) CountByStatus(ctx context.Context, date *time.Time) (map[model.ReservationStatus]int, error) {
	q := `SELECT status, COUNT(*) FROM reservations`
	var args []any
	if date != nil {
		q += ` WHERE date = ?`
		args = append(args, date.UTC().Format(dateFormat))
	}
	q += ` GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[model.ReservationStatus]int)
	for rows.Next() {
		var (
			status model.ReservationStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// nullable converts an optional string to a driver-friendly value.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
