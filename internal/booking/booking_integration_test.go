//go:build integration

package booking

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opsicle/seatkeep/internal/capacity"
	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/migrate"
	"github.com/opsicle/seatkeep/internal/model"
	"github.com/opsicle/seatkeep/internal/problem"
	"github.com/opsicle/seatkeep/internal/repository"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("connect to database: %v", err)
	}
	if err := migrate.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		ctx := context.Background()
		for _, tbl := range []string{"holds", "bookings", "waitlist_entries", "inventory_adjustments", "departures", "tours", "idempotency_records"} {
			db.ExecContext(ctx, "DELETE FROM "+tbl)
		}
		db.Close()
	}
	return db, cleanup
}

func newDeparture(t *testing.T, db *sql.DB, total, available int32) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	var tourID uuid.UUID
	err := db.QueryRowContext(ctx,
		`INSERT INTO tours (name, slug) VALUES ($1, $2) RETURNING id`,
		"test tour", fmt.Sprintf("test-tour-%s", uuid.New())).Scan(&tourID)
	if err != nil {
		t.Fatalf("insert tour: %v", err)
	}

	var depID uuid.UUID
	err = db.QueryRowContext(ctx, `
		INSERT INTO departures (tour_id, starts_at, capacity_total, capacity_available, price_amount, price_currency)
		VALUES ($1, now() + interval '7 days', $2, $3, 5000, 'USD')
		RETURNING id`, tourID, total, available).Scan(&depID)
	if err != nil {
		t.Fatalf("insert departure: %v", err)
	}
	return depID
}

func loadDeparture(t *testing.T, departures *repository.DepartureRepo, id uuid.UUID) *model.Departure {
	t.Helper()
	d, err := departures.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return d
}

// TestConfirmExpiredHold is scenario S4.
func TestConfirmExpiredHold(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	holds := repository.NewHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	fc := &clock.Fixed{T: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	capEngine := capacity.NewEngine(db, departures, holds, fc, 60*time.Second)
	bookEngine := NewEngine(db, departures, holds, bookings, fc)

	depID := newDeparture(t, db, 50, 50)
	h, err := capEngine.CreateHold(context.Background(), capacity.CreateHoldInput{
		DepartureID:    depID,
		Seats:          2,
		CustomerRef:    "alice",
		IdempotencyKey: "k1",
		TTL:            60 * time.Second,
	})
	if err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	fc.Advance(61 * time.Second)

	_, err = bookEngine.Confirm(context.Background(), h.ID)
	pe, ok := problem.As(err)
	if !ok || pe.Code != "HOLD_EXPIRED" {
		t.Fatalf("expected HOLD_EXPIRED error, got %v", err)
	}

	_, err = bookings.GetByHoldID(context.Background(), h.ID)
	if !isNotFound(err) {
		t.Errorf("expected no booking row for an expired hold, got err=%v", err)
	}
}

// TestCancellationReversibility is invariant 6: after confirm then cancel,
// capacity_available equals its pre-hold value.
func TestCancellationReversibility(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	holds := repository.NewHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	clk := clock.System{}

	capEngine := capacity.NewEngine(db, departures, holds, clk, time.Minute)
	bookEngine := NewEngine(db, departures, holds, bookings, clk)

	depID := newDeparture(t, db, 50, 50)
	h, err := capEngine.CreateHold(context.Background(), capacity.CreateHoldInput{
		DepartureID:    depID,
		Seats:          4,
		CustomerRef:    "bob",
		IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	b, err := bookEngine.Confirm(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	mid := loadDeparture(t, departures, depID)
	if mid.CapacityAvailable != 46 {
		t.Fatalf("capacity_available after confirm = %d, want 46", mid.CapacityAvailable)
	}

	cancelled, err := bookEngine.Cancel(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.BookingCanceled {
		t.Errorf("status = %s, want CANCELED", cancelled.Status)
	}

	final := loadDeparture(t, departures, depID)
	if final.CapacityAvailable != 50 {
		t.Errorf("capacity_available after cancel = %d, want 50 (pre-hold value)", final.CapacityAvailable)
	}
}

// TestConfirmIsIdempotentWithoutDispatcher covers the engine-level half of
// the re-confirm guarantee: confirming an already-CONFIRMED hold returns the
// existing booking rather than erroring or creating a second one.
func TestConfirmIsIdempotentWithoutDispatcher(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	holds := repository.NewHoldRepo(db)
	bookings := repository.NewBookingRepo(db)
	clk := clock.System{}

	capEngine := capacity.NewEngine(db, departures, holds, clk, time.Minute)
	bookEngine := NewEngine(db, departures, holds, bookings, clk)

	depID := newDeparture(t, db, 50, 50)
	h, err := capEngine.CreateHold(context.Background(), capacity.CreateHoldInput{
		DepartureID:    depID,
		Seats:          1,
		CustomerRef:    "carol",
		IdempotencyKey: "k1",
	})
	if err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	first, err := bookEngine.Confirm(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	second, err := bookEngine.Confirm(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("re-confirm produced a different booking id: %s != %s", first.ID, second.ID)
	}

	rows, err := bookings.ListByCustomer(context.Background(), "carol")
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected exactly one booking row, got %d", len(rows))
	}
}

func isNotFound(err error) bool {
	return err == repository.ErrNotFound
}
