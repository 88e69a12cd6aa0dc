package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/model"
)

// DepartureRepo provides data access to the departures table, including the
// row-lock acquisition that backs the per-departure serialization point.
// Handlers and domain packages begin their own transaction against the
// same pool via DB().
type DepartureRepo struct {
	db *sql.DB
}

// NewDepartureRepo returns a new DepartureRepo bound to the given database.
func NewDepartureRepo(db *sql.DB) *DepartureRepo { return &DepartureRepo{db: db} }

// DB returns the underlying pool so callers can BeginTx for a single
// operation spanning multiple repositories.
func (r *DepartureRepo) DB() *sql.DB { return r.db }

const departureColumns = `id, tour_id, starts_at, capacity_total, capacity_available, price_amount, price_currency, created_at, updated_at`

func scanDeparture(row interface{ Scan(...any) error }) (*model.Departure, error) {
	var d model.Departure
	if err := row.Scan(&d.ID, &d.TourRef, &d.StartsAt, &d.CapacityTotal, &d.CapacityAvailable,
		&d.Price.AmountMinor, &d.Price.Currency, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByID loads a departure without locking, for read-only paths.
func (r *DepartureRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Departure, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+departureColumns+` FROM departures WHERE id = $1`, id)
	d, err := scanDeparture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// LockForUpdateTx acquires the per-departure row lock within tx via
// SELECT ... FOR UPDATE, the serialization point for every code path that
// reads-modifies-writes capacity_*. Every such path calls this right after
// taking the departure's advisory lock (lock.AdvisoryXact).
func (r *DepartureRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Departure, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+departureColumns+` FROM departures WHERE id = $1 FOR UPDATE`, id)
	d, err := scanDeparture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// AdjustCapacityAvailableTx applies delta to capacity_available within tx.
// The caller must already hold the row lock from LockForUpdateTx.
func (r *DepartureRepo) AdjustCapacityAvailableTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE departures SET capacity_available = capacity_available + $1, updated_at = now() WHERE id = $2`,
		delta, id)
	return err
}

// SetCapacityTx sets both capacity_total and capacity_available directly,
// used by the inventory adjustment path which computes both new values
// itself (spec §4.C7).
func (r *DepartureRepo) SetCapacityTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, total, available int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE departures SET capacity_total = $1, capacity_available = $2, updated_at = now() WHERE id = $3`,
		total, available, id)
	return err
}

// ListDeparturesWithFreeCapacity returns the IDs of departures that
// currently have capacity_available > 0, used by the promotion worker (C9)
// to decide which departures are candidates for notifyWaitlist.
func (r *DepartureRepo) ListDeparturesWithFreeCapacity(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM departures WHERE capacity_available > 0 ORDER BY updated_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
