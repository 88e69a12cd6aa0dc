package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/model"
)

// WaitlistRepo provides data access to the waitlist_entries table. There is
// no teacher equivalent; it follows the same scan-helper/Tx-suffix shape as
// the rest of this package, grounded on original_source's waitlist_service.py
// FIFO ordering (created_at ascending, oldest first).
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const waitlistColumns = `id, departure_id, customer_ref, notified_at, created_at, updated_at`

func scanWaitlistEntry(row interface{ Scan(...any) error }) (*model.WaitlistEntry, error) {
	var e model.WaitlistEntry
	var notifiedAt sql.NullTime
	if err := row.Scan(&e.ID, &e.DepartureID, &e.CustomerRef, &notifiedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		e.NotifiedAt = &t
	}
	return &e, nil
}

// CreateTx inserts a waitlist entry within tx. A unique (departure_id,
// customer_ref) constraint prevents the same customer joining twice; the
// resulting unique-violation is returned as ErrConflict.
func (r *WaitlistRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.WaitlistEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO waitlist_entries (id, departure_id, customer_ref) VALUES ($1, $2, $3)`,
		e.ID, e.DepartureID, e.CustomerRef,
	)
	if IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetByID loads a waitlist entry without locking.
func (r *WaitlistRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.WaitlistEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+waitlistColumns+` FROM waitlist_entries WHERE id = $1`, id)
	e, err := scanWaitlistEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// NextUnnotifiedBatchTx returns up to limit un-notified waitlist entries for
// a departure, oldest first, locked FOR UPDATE SKIP LOCKED so concurrent
// promotion runs never double-assign the same entry. Generalizes
// original_source's
//
//	SELECT * FROM waitlist_entries WHERE departure_id = ? AND notified_at IS NULL
//	ORDER BY created_at ASC LIMIT ?
func (r *WaitlistRepo) NextUnnotifiedBatchTx(ctx context.Context, tx *sql.Tx, departureID uuid.UUID, limit int32) ([]model.WaitlistEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist_entries
		 WHERE departure_id = $1 AND notified_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		departureID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WaitlistEntry
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// MarkNotifiedTx stamps notified_at on a waitlist entry within tx.
func (r *WaitlistRepo) MarkNotifiedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET notified_at = now(), updated_at = now() WHERE id = $1`, id)
	return err
}
