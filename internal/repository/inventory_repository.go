package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/model"
)

// InventoryRepo provides append-only access to inventory_adjustments. Rows
// are never updated or deleted; they form the audit trail behind every
// capacity_total change (spec §4.C7).
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns a new InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// CreateTx inserts an adjustment record within tx, alongside the
// departures.capacity_total/available update performed by the caller via
// DepartureRepo.SetCapacityTx in the same transaction.
func (r *InventoryRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.InventoryAdjustment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO inventory_adjustments
		 (id, departure_id, delta, reason, actor,
		  capacity_total_before, capacity_total_after,
		  capacity_available_before, capacity_available_after)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.DepartureID, a.Delta, a.Reason, a.Actor,
		a.CapacityTotalBefore, a.CapacityTotalAfter,
		a.CapacityAvailableBefore, a.CapacityAvailableAfter,
	)
	return err
}

// ListByDeparture returns the audit trail for a departure, newest first.
func (r *InventoryRepo) ListByDeparture(ctx context.Context, departureID uuid.UUID) ([]model.InventoryAdjustment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, departure_id, delta, reason, actor,
		        capacity_total_before, capacity_total_after,
		        capacity_available_before, capacity_available_after, created_at
		 FROM inventory_adjustments WHERE departure_id = $1 ORDER BY created_at DESC`,
		departureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.InventoryAdjustment
	for rows.Next() {
		var a model.InventoryAdjustment
		if err := rows.Scan(&a.ID, &a.DepartureID, &a.Delta, &a.Reason, &a.Actor,
			&a.CapacityTotalBefore, &a.CapacityTotalAfter,
			&a.CapacityAvailableBefore, &a.CapacityAvailableAfter, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
