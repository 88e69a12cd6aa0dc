// Package booking implements the confirm/cancel lifecycle that turns a hold
// into a durable booking (spec §4.C5): lock the relevant row(s), verify
// their state has not moved out from under the caller, then commit the new
// state in the same transaction.
package booking

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

// Engine confirms and cancels bookings.
type Engine struct {
	DB         *sql.DB
	Departures *repository.DepartureRepo
	Holds      *repository.HoldRepo
	Bookings   *repository.BookingRepo
	Clock      clock.Clock
}

// NewEngine returns a booking Engine wired to the given repositories.
func NewEngine(db *sql.DB, departures *repository.DepartureRepo, holds *repository.HoldRepo, bookings *repository.BookingRepo, c clock.Clock) *Engine {
	return &Engine{DB: db, Departures: departures, Holds: holds, Bookings: bookings, Clock: c}
}

// Confirm turns an ACTIVE hold into a CONFIRMED booking. If the hold was
// already confirmed by a prior call (replay without idempotency coverage,
// or a concurrent duplicate that lost the insert race), the existing
// booking is returned rather than erroring.
func (e *Engine) Confirm(ctx context.Context, holdID uuid.UUID) (*model.Booking, error) {
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

	h, err := e.Holds.GetForUpdateTx(ctx, tx, holdID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, problem.NotFound("hold", holdID.String())
		}
		return nil, err
	}

	switch h.Status {
	case model.HoldConfirmed:
		existing, err := e.Bookings.GetByHoldID(ctx, holdID)
		if err != nil {
			return nil, err
		}
		return existing, nil
	case model.HoldExpired:
		return nil, problem.HoldExpiredErr(holdID.String())
	case model.HoldCanceled:
		return nil, problem.Conflict("hold was canceled")
	}

	if h.Expired(e.Clock.Now()) {
		return nil, problem.HoldExpiredErr(holdID.String())
	}

	code, err := clock.BookingCode()
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		ID:          clock.NewUUID(),
		HoldID:      h.ID,
		DepartureID: h.DepartureID,
		Code:        code,
		Seats:       h.Seats,
		CustomerRef: h.CustomerRef,
		Status:      model.BookingConfirmed,
	}
	if err := e.Bookings.CreateTx(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := e.Holds.SetStatusTx(ctx, tx, h.ID, model.HoldConfirmed); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return b, nil
}

// Cancel reverses a CONFIRMED booking, marking it CANCELED and restoring its
// seats to the departure's available capacity (invariant 6). Canceling an
// already-canceled booking is a no-op that returns the booking unchanged.
func (e *Engine) Cancel(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
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

	b, err := e.Bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, problem.NotFound("booking", bookingID.String())
		}
		return nil, err
	}
	if b.Status == model.BookingCanceled {
		return b, nil
	}

	if err := lock.AdvisoryXact(ctx, tx, b.DepartureID); err != nil {
		return nil, err
	}
	if _, err := e.Departures.LockForUpdateTx(ctx, tx, b.DepartureID); err != nil {
		return nil, err
	}
	if err := e.Departures.AdjustCapacityAvailableTx(ctx, tx, b.DepartureID, b.Seats); err != nil {
		return nil, err
	}
	if err := e.Bookings.SetStatusTx(ctx, tx, b.ID, model.BookingCanceled); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	b.Status = model.BookingCanceled
	return b, nil
}

// Get loads a booking by ID for read-only display.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, err := e.Bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, problem.NotFound("booking", id.String())
	}
	return b, err
}
