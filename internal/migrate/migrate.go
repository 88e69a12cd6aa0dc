// Package migrate recreates the engine's schema from an ordered list of
// table creations, per spec §6 ("A migration tool must be able to recreate
// the schema from an initial ordered list of table creations"). Translated
// from original_source's Alembic revision 0001 into plain database/sql: a
// small ordered-statement runner in the same hand-written SQL style used
// throughout internal/repository.
package migrate

import (
	"context"
	"database/sql"
)

// statements lists CREATE statements in dependency order: tours before
// departures, departures before holds/waitlist_entries/inventory_adjustments,
// holds before bookings. idempotency_records has no FK and can run anywhere
// after; it is listed last to mirror original_source's revision order.
var statements = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'OPERATOR',
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_refresh_tokens_user_id ON refresh_tokens(user_id)`,

	`CREATE TABLE IF NOT EXISTS tours (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(255) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS departures (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tour_id UUID NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
		starts_at TIMESTAMPTZ NOT NULL,
		capacity_total INTEGER NOT NULL CHECK (capacity_total >= 0),
		capacity_available INTEGER NOT NULL CHECK (capacity_available >= 0),
		price_amount INTEGER NOT NULL CHECK (price_amount >= 0),
		price_currency CHAR(3) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (capacity_available <= capacity_total)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_departures_tour_id ON departures(tour_id)`,
	`CREATE INDEX IF NOT EXISTS ix_departures_starts_at ON departures(starts_at)`,

	`CREATE TABLE IF NOT EXISTS holds (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		departure_id UUID NOT NULL REFERENCES departures(id) ON DELETE CASCADE,
		seats INTEGER NOT NULL CHECK (seats > 0 AND seats <= 10),
		customer_ref VARCHAR(128) NOT NULL CHECK (length(customer_ref) > 0),
		expires_at TIMESTAMPTZ NOT NULL,
		status VARCHAR(20) NOT NULL,
		idempotency_key VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_holds_departure_id ON holds(departure_id)`,
	`CREATE INDEX IF NOT EXISTS ix_holds_status ON holds(status)`,
	`CREATE INDEX IF NOT EXISTS ix_holds_expires_at ON holds(expires_at)`,
	`CREATE INDEX IF NOT EXISTS ix_holds_customer_ref ON holds(customer_ref)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		hold_id UUID NOT NULL UNIQUE REFERENCES holds(id) ON DELETE CASCADE,
		departure_id UUID NOT NULL REFERENCES departures(id) ON DELETE CASCADE,
		code VARCHAR(32) NOT NULL UNIQUE,
		seats INTEGER NOT NULL CHECK (seats > 0),
		customer_ref VARCHAR(128) NOT NULL CHECK (length(customer_ref) > 0),
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_departure_id ON bookings(departure_id)`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_status ON bookings(status)`,
	`CREATE INDEX IF NOT EXISTS ix_bookings_customer_ref ON bookings(customer_ref)`,

	`CREATE TABLE IF NOT EXISTS waitlist_entries (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		departure_id UUID NOT NULL REFERENCES departures(id) ON DELETE CASCADE,
		customer_ref VARCHAR(128) NOT NULL CHECK (length(customer_ref) > 0),
		notified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (departure_id, customer_ref)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_waitlist_entries_departure_id ON waitlist_entries(departure_id)`,
	`CREATE INDEX IF NOT EXISTS ix_waitlist_entries_created_at ON waitlist_entries(created_at)`,

	`CREATE TABLE IF NOT EXISTS inventory_adjustments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		departure_id UUID NOT NULL REFERENCES departures(id) ON DELETE CASCADE,
		delta INTEGER NOT NULL CHECK (delta != 0),
		reason TEXT NOT NULL CHECK (length(reason) > 0),
		actor VARCHAR(255) NOT NULL CHECK (length(actor) > 0),
		capacity_total_before INTEGER NOT NULL,
		capacity_total_after INTEGER NOT NULL,
		capacity_available_before INTEGER NOT NULL,
		capacity_available_after INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (capacity_total_after = capacity_total_before + delta)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_inventory_adjustments_departure_id ON inventory_adjustments(departure_id)`,

	`CREATE TABLE IF NOT EXISTS idempotency_records (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		idempotency_key VARCHAR(255) NOT NULL CHECK (length(idempotency_key) > 0),
		method VARCHAR(100) NOT NULL CHECK (length(method) > 0),
		request_body_hash CHAR(64) NOT NULL,
		response_status_code INTEGER NOT NULL CHECK (response_status_code BETWEEN 100 AND 599),
		response_body TEXT NOT NULL,
		response_headers TEXT,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (idempotency_key, method)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_idempotency_records_expires_at ON idempotency_records(expires_at)`,
}

// Migrate runs every statement in order, each committing on its own, and
// stops at the first error. The statements are not wrapped in one
// transaction, so a failure part-way leaves the earlier statements applied;
// since every statement is IF NOT EXISTS, running Migrate again resumes
// where it stopped.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
