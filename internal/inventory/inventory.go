// Package inventory implements capacity adjustments to a departure's total
// seat count (spec §4.C7): increasing or decreasing capacity_total, subject
// to the invariant that capacity_total can never drop below the seats
// already committed (capacity_total minus capacity_available, i.e. seats
// under active holds plus confirmed bookings), and recording every change in
// the append-only inventory_adjustments audit log.
package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/lock"
	"github.com/opsicle/seatkeep/internal/model"
	"github.com/opsicle/seatkeep/internal/problem"
	"github.com/opsicle/seatkeep/internal/repository"
)

// Engine adjusts departure capacity.
type Engine struct {
	DB         *sql.DB
	Departures *repository.DepartureRepo
	Adjust     *repository.InventoryRepo
	Clock      clock.Clock
}

// NewEngine returns an inventory Engine wired to the given repositories.
func NewEngine(db *sql.DB, departures *repository.DepartureRepo, adjustments *repository.InventoryRepo, c clock.Clock) *Engine {
	return &Engine{DB: db, Departures: departures, Adjust: adjustments, Clock: c}
}

// AdjustInput describes a requested capacity change.
type AdjustInput struct {
	DepartureID uuid.UUID
	Delta       int32 // positive to add capacity, negative to remove it
	Reason      string
	Actor       string
}

// Adjust applies delta to a departure's capacity_total (and
// capacity_available, moving in lockstep) within the departure's row lock.
// A negative delta that would push capacity_total below the seats already
// committed to holds and bookings (i.e. below capacity_total - capacity_available)
// is refused with a conflict, per invariant 2.
func (e *Engine) Adjust(ctx context.Context, in AdjustInput) (*model.InventoryAdjustment, error) {
	if in.Delta == 0 {
		return nil, problem.Validation("delta must be non-zero",
			problem.Violation{Field: "delta", Reason: "required"})
	}
	if in.Reason == "" || in.Actor == "" {
		return nil, problem.Validation("reason and actor are required")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lock.AdvisoryXact(ctx, tx, in.DepartureID); err != nil {
		return nil, err
	}
	dep, err := e.Departures.LockForUpdateTx(ctx, tx, in.DepartureID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, problem.NotFound("departure", in.DepartureID.String())
		}
		return nil, err
	}

	committedSeats := dep.CapacityTotal - dep.CapacityAvailable
	newTotal := dep.CapacityTotal + in.Delta
	if newTotal < committedSeats {
		return nil, problem.CapacityConflict("reducing capacity_total below seats already committed")
	}
	if newTotal < 0 {
		return nil, problem.CapacityConflict("capacity_total cannot go negative")
	}
	newAvailable := dep.CapacityAvailable + in.Delta
	if newAvailable < 0 {
		newAvailable = 0
	}

	if err := e.Departures.SetCapacityTx(ctx, tx, in.DepartureID, newTotal, newAvailable); err != nil {
		return nil, err
	}

	record := &model.InventoryAdjustment{
		ID:                      clock.NewUUID(),
		DepartureID:             in.DepartureID,
		Delta:                   in.Delta,
		Reason:                  in.Reason,
		Actor:                   in.Actor,
		CapacityTotalBefore:     dep.CapacityTotal,
		CapacityTotalAfter:      newTotal,
		CapacityAvailableBefore: dep.CapacityAvailable,
		CapacityAvailableAfter:  newAvailable,
	}
	if err := e.Adjust.CreateTx(ctx, tx, record); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return record, nil
}
