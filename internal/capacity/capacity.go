// Package capacity implements the hold engine (spec §4.C4): creating a hold
// against a departure's available capacity and expiring holds whose TTL has
// passed. Every operation here runs inside a single transaction scoped by
// the departure row lock, opening one *sql.Tx per request and locking the
// relevant departure row with SELECT ... FOR UPDATE before mutating it.
package capacity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/lock"
	"github.com/opsicle/seatkeep/internal/model"
	"github.com/opsicle/seatkeep/internal/problem"
	"github.com/opsicle/seatkeep/internal/repository"
)

const (
	minSeatsPerHold = 1
	maxSeatsPerHold = 10

	minHoldTTL        = 60 * time.Second
	maxHoldTTL        = 3600 * time.Second
	maxCustomerRefLen = 128
)

// Engine creates and expires holds against departure capacity.
type Engine struct {
	DB          *sql.DB
	Departures  *repository.DepartureRepo
	Holds       *repository.HoldRepo
	Clock       clock.Clock
	DefaultTTL  time.Duration
}

// NewEngine returns a capacity Engine wired to the given repositories.
func NewEngine(db *sql.DB, departures *repository.DepartureRepo, holds *repository.HoldRepo, c clock.Clock, defaultTTL time.Duration) *Engine {
	return &Engine{DB: db, Departures: departures, Holds: holds, Clock: c, DefaultTTL: defaultTTL}
}

// CreateHoldInput carries everything needed to place a hold.
type CreateHoldInput struct {
	DepartureID    uuid.UUID
	Seats          int32
	CustomerRef    string
	IdempotencyKey string
	TTL            time.Duration // zero means Engine.DefaultTTL
}

// CreateHold places a hold against a departure's available capacity. It
// locks the departure row (and its advisory-lock counterpart) before
// checking capacity so concurrent callers for the same departure serialize
// rather than race, which is the sole mechanism preventing oversold
// capacity (invariant 1).
func (e *Engine) CreateHold(ctx context.Context, in CreateHoldInput) (*model.Hold, error) {
	if in.Seats < minSeatsPerHold || in.Seats > maxSeatsPerHold {
		return nil, problem.Validation("seats must be between 1 and 10",
			problem.Violation{Field: "seats", Reason: "out of range"})
	}
	if in.CustomerRef == "" {
		return nil, problem.Validation("customer_ref is required",
			problem.Violation{Field: "customer_ref", Reason: "required"})
	}
	if len(in.CustomerRef) > maxCustomerRefLen {
		return nil, problem.Validation("customer_ref must be at most 128 characters",
			problem.Violation{Field: "customer_ref", Reason: "too long"})
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = e.DefaultTTL
	}
	if ttl < minHoldTTL || ttl > maxHoldTTL {
		return nil, problem.Validation("ttl_seconds must be between 60 and 3600",
			problem.Violation{Field: "ttl_seconds", Reason: "out of range"})
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
	if dep.CapacityAvailable < in.Seats {
		return nil, problem.CapacityFull(dep.ID.String())
	}

	h := &model.Hold{
		ID:             clock.NewUUID(),
		DepartureID:    in.DepartureID,
		Seats:          in.Seats,
		CustomerRef:    in.CustomerRef,
		ExpiresAt:      e.Clock.Now().Add(ttl),
		Status:         model.HoldActive,
		IdempotencyKey: in.IdempotencyKey,
	}
	if err := e.Holds.CreateTx(ctx, tx, h); err != nil {
		return nil, err
	}
	if err := e.Departures.AdjustCapacityAvailableTx(ctx, tx, in.DepartureID, -in.Seats); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return h, nil
}

// ExpireDeparture sweeps one departure's ACTIVE holds past their expiry,
// restoring their seats to capacity_available, and returns the expired
// holds. Runs per departure under the same row lock used by CreateHold so
// an in-flight CreateHold and an expiry sweep for the same departure never
// interleave.
func (e *Engine) ExpireDeparture(ctx context.Context, departureID uuid.UUID) ([]model.Hold, error) {
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

	if err := lock.AdvisoryXact(ctx, tx, departureID); err != nil {
		return nil, err
	}
	if _, err := e.Departures.LockForUpdateTx(ctx, tx, departureID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	expired, err := e.Holds.ExpireBatchTx(ctx, tx, departureID, e.Clock.Now())
	if err != nil {
		return nil, err
	}
	var freed int32
	for _, h := range expired {
		freed += h.Seats
	}
	if freed > 0 {
		if err := e.Departures.AdjustCapacityAvailableTx(ctx, tx, departureID, freed); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return expired, nil
}
