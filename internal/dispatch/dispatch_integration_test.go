//go:build integration

package dispatch

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opsicle/seatkeep/internal/capacity"
	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/idempotency"
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

type holdRequest struct {
	DepartureID uuid.UUID `json:"departure_id"`
	Seats       int32     `json:"seats"`
	CustomerRef string    `json:"customer_ref"`
}

// TestExecuteReplaysIdenticalRequest is invariant 3: calling Execute n times
// with the same key and body yields one state transition and n identical
// responses.
func TestExecuteReplaysIdenticalRequest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	holds := repository.NewHoldRepo(db)
	records := repository.NewIdempotencyRepo(db)
	clk := clock.System{}

	capEngine := capacity.NewEngine(db, departures, holds, clk, 5*time.Minute)
	store := idempotency.NewStore(records, clk, time.Hour)
	d := NewDispatcher(store)

	depID := newDeparture(t, db, 50, 50)
	req := holdRequest{DepartureID: depID, Seats: 5, CustomerRef: "bob"}

	op := func(ctx context.Context) (int, any, error) {
		h, err := capEngine.CreateHold(ctx, capacity.CreateHoldInput{
			DepartureID:    req.DepartureID,
			Seats:          req.Seats,
			CustomerRef:    req.CustomerRef,
			IdempotencyKey: "X",
		})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, h, nil
	}

	status1, body1, err := d.Execute(context.Background(), http.MethodPost, "X", req, op)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	status2, body2, err := d.Execute(context.Background(), http.MethodPost, "X", req, op)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if status1 != status2 || string(body1) != string(body2) {
		t.Errorf("replay returned a different response: (%d,%s) vs (%d,%s)", status1, body1, status2, body2)
	}

	dep, err := departures.GetByID(context.Background(), depID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if dep.CapacityAvailable != 45 {
		t.Errorf("capacity_available = %d, want 45 (hold applied exactly once)", dep.CapacityAvailable)
	}
}

// TestExecuteRejectsMismatchedReplay is invariant 4: the same key reused
// with a different body is rejected with an idempotency mismatch and does
// not mutate state.
func TestExecuteRejectsMismatchedReplay(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	holds := repository.NewHoldRepo(db)
	records := repository.NewIdempotencyRepo(db)
	clk := clock.System{}

	capEngine := capacity.NewEngine(db, departures, holds, clk, 5*time.Minute)
	store := idempotency.NewStore(records, clk, time.Hour)
	d := NewDispatcher(store)

	depID := newDeparture(t, db, 50, 50)

	makeOp := func(req holdRequest) Operation {
		return func(ctx context.Context) (int, any, error) {
			h, err := capEngine.CreateHold(ctx, capacity.CreateHoldInput{
				DepartureID:    req.DepartureID,
				Seats:          req.Seats,
				CustomerRef:    req.CustomerRef,
				IdempotencyKey: "X",
			})
			if err != nil {
				return 0, nil, err
			}
			return http.StatusCreated, h, nil
		}
	}

	req1 := holdRequest{DepartureID: depID, Seats: 5, CustomerRef: "bob"}
	if _, _, err := d.Execute(context.Background(), http.MethodPost, "X", req1, makeOp(req1)); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	req2 := holdRequest{DepartureID: depID, Seats: 7, CustomerRef: "bob"}
	_, _, err := d.Execute(context.Background(), http.MethodPost, "X", req2, makeOp(req2))
	pe, ok := problem.As(err)
	if !ok || pe.Code != "IDEMPOTENCY_KEY_MISMATCH" {
		t.Fatalf("expected IDEMPOTENCY_KEY_MISMATCH, got %v", err)
	}

	dep, err := departures.GetByID(context.Background(), depID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if dep.CapacityAvailable != 45 {
		t.Errorf("capacity_available = %d, want 45 (mismatched replay must not mutate state)", dep.CapacityAvailable)
	}
}

// TestExecuteCachesDomainError covers spec §7: a domain error (here, 409
// FULL) is cached by Execute exactly like a success. Replaying the same
// key+body after capacity frees up must still return the cached 409,
// not actually place a hold.
func TestExecuteCachesDomainError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	departures := repository.NewDepartureRepo(db)
	holds := repository.NewHoldRepo(db)
	records := repository.NewIdempotencyRepo(db)
	clk := clock.System{}

	capEngine := capacity.NewEngine(db, departures, holds, clk, 5*time.Minute)
	store := idempotency.NewStore(records, clk, time.Hour)
	d := NewDispatcher(store)

	depID := newDeparture(t, db, 10, 0)
	req := holdRequest{DepartureID: depID, Seats: 1, CustomerRef: "carol"}

	op := func(ctx context.Context) (int, any, error) {
		h, err := capEngine.CreateHold(ctx, capacity.CreateHoldInput{
			DepartureID:    req.DepartureID,
			Seats:          req.Seats,
			CustomerRef:    req.CustomerRef,
			IdempotencyKey: "Y",
		})
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, h, nil
	}

	status1, body1, err1 := d.Execute(context.Background(), http.MethodPost, "Y", req, op)
	pe, ok := problem.As(err1)
	if !ok || pe.Code != "FULL" || status1 != http.StatusConflict {
		t.Fatalf("first Execute: expected cached FULL problem, got status=%d err=%v", status1, err1)
	}

	// Capacity frees up, but the same idempotency key must still replay
	// the cached 409 rather than actually placing a hold now that it
	// would succeed.
	if _, err := db.ExecContext(context.Background(),
		`UPDATE departures SET capacity_available = 5 WHERE id = $1`, depID); err != nil {
		t.Fatalf("free capacity: %v", err)
	}

	status2, body2, err2 := d.Execute(context.Background(), http.MethodPost, "Y", req, op)
	if err2 == nil {
		t.Fatalf("replay after capacity freed: expected cached FULL error, got success")
	}
	if status1 != status2 || string(body1) != string(body2) {
		t.Errorf("replay returned a different response: (%d,%s) vs (%d,%s)", status1, body1, status2, body2)
	}

	holdCount := 0
	if err := db.QueryRowContext(context.Background(),
		`SELECT count(*) FROM holds WHERE departure_id = $1`, depID).Scan(&holdCount); err != nil {
		t.Fatalf("count holds: %v", err)
	}
	if holdCount != 0 {
		t.Errorf("hold count = %d, want 0 (replay of a cached failure must not execute the operation)", holdCount)
	}
}
