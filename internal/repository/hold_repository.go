package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/model"
)

// HoldRepo provides data access to the holds table: one row per hold
// request carrying a seat count, since this domain's inventory is a
// fungible capacity counter rather than named seats.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the given database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// DB returns the underlying pool so callers can BeginTx for an operation
// spanning multiple repositories.
func (r *HoldRepo) DB() *sql.DB { return r.db }

const holdColumns = `id, departure_id, seats, customer_ref, expires_at, status, idempotency_key, created_at, updated_at`

func scanHold(row interface{ Scan(...any) error }) (*model.Hold, error) {
	var h model.Hold
	if err := row.Scan(&h.ID, &h.DepartureID, &h.Seats, &h.CustomerRef, &h.ExpiresAt,
		&h.Status, &h.IdempotencyKey, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateTx inserts a new hold within tx. The caller supplies the generated ID
// (clock.NewUUID) so it can be referenced before the insert returns.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO holds (id, departure_id, seats, customer_ref, expires_at, status, idempotency_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.DepartureID, h.Seats, h.CustomerRef, h.ExpiresAt, h.Status, h.IdempotencyKey,
	)
	return err
}

// GetByID loads a hold without locking.
func (r *HoldRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Hold, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+holdColumns+` FROM holds WHERE id = $1`, id)
	h, err := scanHold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// GetForUpdateTx loads a hold within tx with a row lock, for the confirm
// path which transitions hold status in the same transaction that inserts
// the booking.
func (r *HoldRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Hold, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+holdColumns+` FROM holds WHERE id = $1 FOR UPDATE`, id)
	h, err := scanHold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// SetStatusTx transitions a hold's status within tx.
func (r *HoldRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.HoldStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE holds SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}

// ExpireBatchTx locates ACTIVE holds whose expires_at has passed for a given
// departure, marks them EXPIRED and returns them so the caller can restore
// capacity_available. Rows are kept (status transition only) rather than
// deleted, so the hold history stays queryable.
func (r *HoldRepo) ExpireBatchTx(ctx context.Context, tx *sql.Tx, departureID uuid.UUID, now time.Time) ([]model.Hold, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+holdColumns+` FROM holds
		 WHERE departure_id = $1 AND status = $2 AND expires_at <= $3
		 FOR UPDATE`,
		departureID, model.HoldActive, now,
	)
	if err != nil {
		return nil, err
	}
	var expired []model.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		expired = append(expired, *h)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(expired))
	for i, h := range expired {
		ids[i] = h.ID
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE holds SET status = $1, updated_at = now() WHERE id = ANY($2)`,
		model.HoldExpired, ids,
	)
	if err != nil {
		return nil, err
	}
	for i := range expired {
		expired[i].Status = model.HoldExpired
	}
	return expired, nil
}

// ListExpirableDepartureIDs returns departure IDs that currently have at
// least one ACTIVE hold past its expiry, used by the expiry worker to
// decide which departures to lock and sweep.
func (r *HoldRepo) ListExpirableDepartureIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT departure_id FROM holds WHERE status = $1 AND expires_at <= $2 LIMIT $3`,
		model.HoldActive, now, limit,
	)
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
