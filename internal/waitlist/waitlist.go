// Package waitlist implements joining a departure's waitlist and promoting
// waitlisted customers when capacity frees up (spec §4.C6), grounded on
// original_source's waitlist_service.py: FIFO order by created_at, and
// promotion manufactures a short-TTL hold through the same capacity engine
// used for ordinary holds rather than mutating capacity directly.
package waitlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/capacity"
	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/lock"
	"github.com/opsicle/seatkeep/internal/model"
	"github.com/opsicle/seatkeep/internal/problem"
	"github.com/opsicle/seatkeep/internal/repository"
)

// seatsPerPromotion is the number of seats manufactured per promoted
// waitlist entry. The spec's waitlist entries are per-customer, not
// per-seat-count, so a single seat is held on their behalf; the customer
// can always join a fresh hold for more seats once notified.
const seatsPerPromotion = 1

// Engine joins and promotes waitlist entries.
type Engine struct {
	DB         *sql.DB
	Waitlist   *repository.WaitlistRepo
	Departures *repository.DepartureRepo
	Capacity   *capacity.Engine
	Clock      clock.Clock
	HoldTTL    time.Duration
}

// NewEngine returns a waitlist Engine wired to the given repositories and
// capacity engine.
func NewEngine(db *sql.DB, waitlist *repository.WaitlistRepo, departures *repository.DepartureRepo, cap *capacity.Engine, c clock.Clock, holdTTL time.Duration) *Engine {
	return &Engine{DB: db, Waitlist: waitlist, Departures: departures, Capacity: cap, Clock: c, HoldTTL: holdTTL}
}

// Join adds a customer to a departure's waitlist. Joining twice for the
// same departure is rejected with a conflict (enforced by the unique
// (departure_id, customer_ref) constraint).
func (e *Engine) Join(ctx context.Context, departureID uuid.UUID, customerRef string) (*model.WaitlistEntry, error) {
	if customerRef == "" {
		return nil, problem.Validation("customer_ref is required",
			problem.Violation{Field: "customer_ref", Reason: "required"})
	}
	entry := &model.WaitlistEntry{
		ID:          clock.NewUUID(),
		DepartureID: departureID,
		CustomerRef: customerRef,
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

	if err := e.Waitlist.CreateTx(ctx, tx, entry); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, problem.Conflict("customer already on this departure's waitlist")
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return entry, nil
}

// PromotionResult reports what happened to one waitlist entry during a
// promotion pass.
type PromotionResult struct {
	Entry model.WaitlistEntry
	Hold  *model.Hold
	Err   error
}

// Promote notifies up to k := capacity_available waitlisted customers for a
// departure by manufacturing a short-TTL hold for each, oldest entry first
// (spec §4.C6.2 step 2). safetyCap, if positive, bounds k from above as a
// batch-size guard so a single promotion pass cannot outrun worker capacity;
// it never lets more entries through than capacity actually allows. Per-entry
// failures (most commonly capacity running out again mid-batch) are recorded
// and skipped rather than aborting the whole batch, since later entries in
// the batch may still have a chance once earlier ones fail.
func (e *Engine) Promote(ctx context.Context, departureID uuid.UUID, safetyCap int32, epoch int64) ([]PromotionResult, error) {
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
	dep, err := e.Departures.LockForUpdateTx(ctx, tx, departureID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, problem.NotFound("departure", departureID.String())
		}
		return nil, err
	}

	k := dep.CapacityAvailable
	if safetyCap > 0 && safetyCap < k {
		k = safetyCap
	}

	var entries []model.WaitlistEntry
	if k > 0 {
		entries, err = e.Waitlist.NextUnnotifiedBatchTx(ctx, tx, departureID, k)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true // the lookup transaction is done; each notify runs its own tx below

	results := make([]PromotionResult, 0, len(entries))
	for _, entry := range entries {
		idempotencyKey := fmt.Sprintf("waitlist-%s-%d", entry.ID, epoch)
		h, err := e.Capacity.CreateHold(ctx, capacity.CreateHoldInput{
			DepartureID:    departureID,
			Seats:          seatsPerPromotion,
			CustomerRef:    entry.CustomerRef,
			IdempotencyKey: idempotencyKey,
			TTL:            e.HoldTTL,
		})
		res := PromotionResult{Entry: entry, Hold: h, Err: err}
		if err == nil {
			if markErr := e.markNotified(ctx, entry.ID); markErr != nil {
				res.Err = markErr
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) markNotified(ctx context.Context, id uuid.UUID) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := e.Waitlist.MarkNotifiedTx(ctx, tx, id); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
