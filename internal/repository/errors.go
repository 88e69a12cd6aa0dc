// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// capacity, booking, waitlist and inventory packages to distinguish between
// different failure scenarios without depending on database/sql directly.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a row does not exist. Callers translate this
// into problem.NotFound.
var ErrNotFound = errors.New("not found")

// pgUniqueViolation is Postgres error code 23505.
const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, used to translate benign insert races (idempotency replay,
// duplicate waitlist join) into ErrConflict instead of a raw driver error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// ErrConflict is returned when an insert cannot proceed because a row with
// the same unique key already exists.
var ErrConflict = errors.New("conflict")
