// Package worker runs the cooperative background loops that keep capacity
// honest without a client request driving them: hold expiry (spec §4.C8)
// and waitlist promotion (spec §4.C9), plus an idempotency-record cleanup
// sweep. Each loop runs until the context is canceled, logging and
// continuing past a single iteration's error rather than crashing the
// process, with a plain fixed-period ticker poll (no backoff) since there is
// no broker connection to reconnect here.
package worker

import (
	"context"
	"log"
	"time"

	"github.com/opsicle/seatkeep/internal/capacity"
	"github.com/opsicle/seatkeep/internal/idempotency"
	"github.com/opsicle/seatkeep/internal/repository"
	"github.com/opsicle/seatkeep/internal/service"
	"github.com/opsicle/seatkeep/internal/waitlist"
)

// ExpiryWorker periodically sweeps every departure with at least one
// ACTIVE hold past its expiry.
type ExpiryWorker struct {
	Holds     *repository.HoldRepo
	Capacity  *capacity.Engine
	Period    time.Duration
	BatchMax  int
	Heartbeat *Heartbeat
}

// Run blocks until ctx is canceled, expiring holds on every tick.
func (w *ExpiryWorker) Run(ctx context.Context) {
	period := w.Period
	if period <= 0 {
		period = 10 * time.Second
	}
	batchMax := w.BatchMax
	if batchMax <= 0 {
		batchMax = 100
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.tick(ctx, batchMax); err != nil {
				log.Printf("expiry worker: tick failed: %v", err)
			} else if w.Heartbeat != nil {
				w.Heartbeat.Touch()
			}
		}
	}
}

func (w *ExpiryWorker) tick(ctx context.Context, batchMax int) error {
	ids, err := w.Holds.ListExpirableDepartureIDs(ctx, time.Now().UTC(), batchMax)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := w.Capacity.ExpireDeparture(ctx, id); err != nil {
			log.Printf("expiry worker: departure %s: %v", id, err)
		}
	}
	return nil
}

// PromotionWorker periodically promotes waitlisted customers for every
// departure that currently has free capacity. BatchSize is a safety cap on
// top of each departure's own capacity_available, not the selection bound
// itself — waitlist.Engine.Promote derives k from capacity_available.
type PromotionWorker struct {
	Departures *repository.DepartureRepo
	Waitlist   *waitlist.Engine
	Publisher  *service.EventPublisher
	Period     time.Duration
	BatchSize  int32
	ListLimit  int
	Heartbeat  *Heartbeat
}

// Run blocks until ctx is canceled, promoting on every tick.
func (w *PromotionWorker) Run(ctx context.Context) {
	period := w.Period
	if period <= 0 {
		period = 10 * time.Second
	}
	listLimit := w.ListLimit
	if listLimit <= 0 {
		listLimit = 50
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.tick(ctx, listLimit); err != nil {
				log.Printf("promotion worker: tick failed: %v", err)
			} else if w.Heartbeat != nil {
				w.Heartbeat.Touch()
			}
		}
	}
}

func (w *PromotionWorker) tick(ctx context.Context, listLimit int) error {
	ids, err := w.Departures.ListDeparturesWithFreeCapacity(ctx, listLimit)
	if err != nil {
		return err
	}
	epoch := time.Now().UTC().Unix()
	for _, id := range ids {
		results, err := w.Waitlist.Promote(ctx, id, w.BatchSize, epoch)
		if err != nil {
			log.Printf("promotion worker: departure %s: %v", id, err)
			continue
		}
		for _, res := range results {
			if res.Err != nil {
				log.Printf("promotion worker: entry %s: %v", res.Entry.ID, res.Err)
				continue
			}
			if w.Publisher != nil {
				if err := w.Publisher.PublishWaitlistPromoted(res.Entry.ID, res.Entry.DepartureID, res.Entry.CustomerRef, res.Hold.ID); err != nil {
					log.Printf("promotion worker: publish failed for entry %s: %v", res.Entry.ID, err)
				}
			}
		}
	}
	return nil
}

// CleanupWorker periodically deletes expired idempotency records.
type CleanupWorker struct {
	Store  *idempotency.Store
	Period time.Duration
}

// Run blocks until ctx is canceled, sweeping on every tick.
func (w *CleanupWorker) Run(ctx context.Context) {
	period := w.Period
	if period <= 0 {
		period = 10 * time.Minute
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.Store.Sweep(ctx)
			if err != nil {
				log.Printf("cleanup worker: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("cleanup worker: removed %d expired idempotency records", n)
			}
		}
	}
}
