package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/opsicle/seatkeep/internal/model"
)

// BookingRepo provides CRUD operations for bookings. A booking always
// descends from exactly one hold (hold_id is unique); the seat count lives
// directly on the booking since seats are fungible rather than individually
// addressed.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, hold_id, departure_id, code, seats, customer_ref, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(&b.ID, &b.HoldID, &b.DepartureID, &b.Code, &b.Seats,
		&b.CustomerRef, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a new booking within tx. The caller supplies the
// generated ID and code.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (id, hold_id, departure_id, code, seats, customer_ref, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.HoldID, b.DepartureID, b.Code, b.Seats, b.CustomerRef, b.Status,
	)
	return err
}

// GetByID loads a booking without locking.
func (r *BookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetByHoldID loads the booking descending from a hold, if any. Used to make
// confirmBooking idempotent against a hold that was already confirmed.
func (r *BookingRepo) GetByHoldID(ctx context.Context, holdID uuid.UUID) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE hold_id = $1`, holdID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetForUpdateTx loads a booking within tx with a row lock, for the cancel
// path which transitions status and restores capacity atomically.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Booking, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SetStatusTx transitions a booking's status within tx.
func (r *BookingRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.BookingStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}

// ListByCustomer returns bookings for a customer ordered newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerRef string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE customer_ref = $1 ORDER BY created_at DESC`,
		customerRef,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
