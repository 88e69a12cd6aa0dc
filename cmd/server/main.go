package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/opsicle/seatkeep/internal/booking"
	"github.com/opsicle/seatkeep/internal/capacity"
	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/config"
	"github.com/opsicle/seatkeep/internal/database"
	"github.com/opsicle/seatkeep/internal/dispatch"
	"github.com/opsicle/seatkeep/internal/handler"
	"github.com/opsicle/seatkeep/internal/idempotency"
	"github.com/opsicle/seatkeep/internal/inventory"
	"github.com/opsicle/seatkeep/internal/migrate"
	"github.com/opsicle/seatkeep/internal/queue"
	"github.com/opsicle/seatkeep/internal/repository"
	"github.com/opsicle/seatkeep/internal/router"
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

	if err := migrate.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	clk := clock.System{}

	departures := repository.NewDepartureRepo(db)
	tours := repository.NewTourRepo(db)
	holds := repository.NewHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	waitlistEntries := repository.NewWaitlistRepo(db)
	adjustments := repository.NewInventoryRepo(db)
	idempotencyRecords := repository.NewIdempotencyRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	capacityEngine := capacity.NewEngine(db, departures, holds, clk, cfg.DefaultHoldTTL)
	bookingEngine := booking.NewEngine(db, departures, holds, bookings, clk)
	waitlistEngine := waitlist.NewEngine(db, waitlistEntries, departures, capacityEngine, clk, cfg.WaitlistHoldTTL)
	inventoryEngine := inventory.NewEngine(db, departures, adjustments, clk)

	idempotencyStore := idempotency.NewStore(idempotencyRecords, clk, cfg.IdempotencyTTL)
	dispatcher := dispatch.NewDispatcher(idempotencyStore)

	publisher := service.NewEventPublisher(cfg.AMQPURL, clk)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("info: redis unavailable; rate limiting and response caching disabled")
	}

	expiryHeartbeat := &worker.Heartbeat{}
	promotionHeartbeat := &worker.Heartbeat{}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	expiryWorker := &worker.ExpiryWorker{
		Holds:     holds,
		Capacity:  capacityEngine,
		Period:    cfg.ExpiryWorkerPeriod,
		Heartbeat: expiryHeartbeat,
	}
	promotionWorker := &worker.PromotionWorker{
		Departures: departures,
		Waitlist:   waitlistEngine,
		Publisher:  publisher,
		Period:     cfg.ExpiryWorkerPeriod,
		BatchSize:  cfg.PromotionWorkerSize,
		Heartbeat:  promotionHeartbeat,
	}
	cleanupWorker := &worker.CleanupWorker{Store: idempotencyStore}

	go expiryWorker.Run(workerCtx)
	go promotionWorker.Run(workerCtx)
	go cleanupWorker.Run(workerCtx)

	consumerDone := make(chan struct{})
	go func() {
		<-workerCtx.Done()
		close(consumerDone)
	}()
	go queue.StartConsumer(cfg.AMQPURL, "booking.confirmed", consumerDone, queue.BookingConfirmedLogLine)
	go queue.StartConsumer(cfg.AMQPURL, "waitlist.promoted", consumerDone, queue.WaitlistPromotedLogLine)

	deps := router.Dependencies{
		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Booking:   handler.NewBookingHandler(capacityEngine, bookingEngine, dispatcher, publisher),
		Waitlist:  handler.NewWaitlistHandler(waitlistEngine, dispatcher, clk, cfg.PromotionWorkerSize),
		Inventory: handler.NewInventoryHandler(inventoryEngine, dispatcher),
		Tour:      handler.NewTourHandler(tours),
		Departure: handler.NewDepartureHandler(departures),
		Readiness: handler.NewReadinessHandler(expiryHeartbeat, promotionHeartbeat),
	}

	e := echo.New()
	router.RegisterRoutes(e, cfg, rdb, deps)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
