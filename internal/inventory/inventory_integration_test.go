//go:build integration

package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/migrate"
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

// TestAdjustRefusesReductionBelowCommitted is scenario S6: total=50,
// available=10 (40 seats committed), a -20 delta would drop total to 30,
// below the 40 already committed, and must be refused without writing an
// adjustment row or mutating the departure.
func TestAdjustRefusesReductionBelowCommitted(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	adjustments := repository.NewInventoryRepo(db)
	engine := NewEngine(db, departures, adjustments, clock.System{})

	depID := newDeparture(t, db, 50, 10)

	_, err := engine.Adjust(context.Background(), AdjustInput{
		DepartureID: depID,
		Delta:       -20,
		Reason:      "reduce coach size",
		Actor:       "ops1",
	})
	pe, ok := problem.As(err)
	if !ok || pe.Code != "CAPACITY_CONFLICT" {
		t.Fatalf("expected CAPACITY_CONFLICT, got %v", err)
	}

	dep, err := departures.GetByID(context.Background(), depID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if dep.CapacityTotal != 50 || dep.CapacityAvailable != 10 {
		t.Errorf("departure mutated by a refused adjustment: total=%d available=%d", dep.CapacityTotal, dep.CapacityAvailable)
	}

	rows, err := adjustments.ListByDeparture(context.Background(), depID)
	if err != nil {
		t.Fatalf("ListByDeparture: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no adjustment row written, got %d", len(rows))
	}
}

func TestAdjustAppendsAuditRecord(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	adjustments := repository.NewInventoryRepo(db)
	engine := NewEngine(db, departures, adjustments, clock.System{})

	depID := newDeparture(t, db, 50, 50)

	rec, err := engine.Adjust(context.Background(), AdjustInput{
		DepartureID: depID,
		Delta:       10,
		Reason:      "extra coach added",
		Actor:       "ops1",
	})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if rec.CapacityTotalAfter != 60 || rec.CapacityTotalBefore != 50 {
		t.Errorf("unexpected before/after: %+v", rec)
	}

	dep, err := departures.GetByID(context.Background(), depID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if dep.CapacityTotal != 60 || dep.CapacityAvailable != 60 {
		t.Errorf("departure not updated: total=%d available=%d", dep.CapacityTotal, dep.CapacityAvailable)
	}

	rows, err := adjustments.ListByDeparture(context.Background(), depID)
	if err != nil {
		t.Fatalf("ListByDeparture: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one audit row, got %d", len(rows))
	}
}
