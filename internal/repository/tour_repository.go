package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/model"
)

// TourRepo provides read-only access to tours. Tour creation CRUD is out of
// scope for this engine (spec §1); this exists only so a departure's
// tour_ref can be resolved where the thin handler layer needs to display it.
type TourRepo struct {
	db *sql.DB
}

// NewTourRepo returns a new TourRepo bound to the given database.
func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{db: db} }

// GetByID loads a tour by ID.
func (r *TourRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	var t model.Tour
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM tours WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
