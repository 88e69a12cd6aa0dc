// Command worker runs the expiry, promotion and idempotency-cleanup loops
// as a standalone process, separate from the HTTP server binary, so the
// background sweeps can be scaled or deployed independently of request
// traffic.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/opsicle/seatkeep/internal/capacity"
	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/config"
	"github.com/opsicle/seatkeep/internal/database"
	"github.com/opsicle/seatkeep/internal/idempotency"
	"github.com/opsicle/seatkeep/internal/repository"
	"github.com/opsicle/seatkeep/internal/service"
	"github.com/opsicle/seatkeep/internal/waitlist"
	"github.com/opsicle/seatkeep/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("info: .env not found; using defaults/env")
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer db.Close()

	clk := clock.System{}

	departures := repository.NewDepartureRepo(db)
	holds := repository.NewHoldRepo(db)
	waitlistEntries := repository.NewWaitlistRepo(db)
	idempotencyRecords := repository.NewIdempotencyRepo(db)

	capacityEngine := capacity.NewEngine(db, departures, holds, clk, cfg.DefaultHoldTTL)
	waitlistEngine := waitlist.NewEngine(db, waitlistEntries, departures, capacityEngine, clk, cfg.WaitlistHoldTTL)
	idempotencyStore := idempotency.NewStore(idempotencyRecords, clk, cfg.IdempotencyTTL)
	publisher := service.NewEventPublisher(cfg.AMQPURL, clk)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	expiryWorker := &worker.ExpiryWorker{
		Holds:    holds,
		Capacity: capacityEngine,
		Period:   cfg.ExpiryWorkerPeriod,
	}
	promotionWorker := &worker.PromotionWorker{
		Departures: departures,
		Waitlist:   waitlistEngine,
		Publisher:  publisher,
		Period:     cfg.ExpiryWorkerPeriod,
		BatchSize:  cfg.PromotionWorkerSize,
	}
	cleanupWorker := &worker.CleanupWorker{Store: idempotencyStore}

	go expiryWorker.Run(ctx)
	go promotionWorker.Run(ctx)
	go cleanupWorker.Run(ctx)

	log.Println("worker process started")
	<-ctx.Done()
	log.Println("worker process shutting down")
	os.Exit(0)
}
