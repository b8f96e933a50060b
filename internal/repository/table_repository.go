package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/cafe-table-reservation/internal/model"
)

// TableRepo provides data access to the tables table: the registry of
// physical seating units.  Tables are soft deleted via the is_active
// flag so that reservation history always resolves to a table row.
// All timestamp fields are stored in UTC.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// TableFilter narrows List results.  Zero values mean "no filter".
type TableFilter struct {
	Area        string // match tables.area exactly when non-empty
	MinCapacity uint32 // include only tables with capacity >= this
	ActiveOnly  bool   // exclude deactivated tables
}

const tableColumns = `id, name, capacity, area, position, status, is_active, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.Name, &t.Capacity, &t.Area, &t.Position,
		&t.Status, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new table and populates the generated ID and
// timestamps on the provided model.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO tables (name, capacity, area, position, status, is_active) VALUES (?, ?, ?, ?, ?, ?)`
	if t.Status == "" {
		t.Status = model.TableAvailable
	}
	res, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, t.Area, t.Position, t.Status, t.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults
	created, err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = ?`, t.ID))
	if err != nil {
		return err
	}
	*t = *created
	return nil
}

// GetByID returns a single table by id.  ErrTableNotFound is returned
// when no row exists.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns tables matching the filter, ordered by ascending
// capacity and then id so that availability results favour the
// smallest adequate table and are deterministic on ties.
func (r *TableRepo) List(ctx context.Context, f TableFilter) ([]model.Table, error) {
	var (
		conds []string
		args  []any
	)
	if f.Area != "" {
		conds = append(conds, "area = ?")
		args = append(args, f.Area)
	}
	if f.MinCapacity > 0 {
		conds = append(conds, "capacity >= ?")
		args = append(args, f.MinCapacity)
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	q := `SELECT ` + tableColumns + ` FROM tables`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY capacity ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// Update rewrites the mutable descriptive fields of a table.  The
// status field is intentionally excluded; it changes only through
// UpdateStatus as a side effect of reservation transitions or staff
// maintenance actions.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE tables SET name = ?, capacity = ?, area = ?, position = ?, is_active = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, t.Area, t.Position, t.IsActive, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for missing rows and no-op updates;
		// distinguish by re-reading.
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatus sets the table's status.  ErrTableNotFound is returned
// when the id does not exist.
func (r *TableRepo) UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tables SET status = ? WHERE id = ?`, status, id)
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

// Deactivate soft deletes a table.  Reservation history keeps pointing
// at the row; the table simply stops appearing in availability.
func (r *TableRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tables SET is_active = FALSE WHERE id = ?`, id)
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
