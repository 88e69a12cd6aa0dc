package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/opsicle/seatkeep/internal/model"
)

// IdempotencyRepo provides data access to idempotency_records, grounded on
// original_source's idempotency_service.py: a (key, method) pair maps to at
// most one stored outcome, enforced by a unique constraint rather than
// application-level locking. Concurrent duplicate writers race on the
// insert and the loser's unique-violation is translated to ErrConflict so
// the idempotency store (idempotency.Store.StoreResult) can re-read the
// winner's row.
type IdempotencyRepo struct {
	db *sql.DB
}

// NewIdempotencyRepo returns a new IdempotencyRepo bound to the given database.
func NewIdempotencyRepo(db *sql.DB) *IdempotencyRepo { return &IdempotencyRepo{db: db} }

const idempotencyColumns = `id, idempotency_key, method, request_body_hash, response_status_code, response_body, response_headers, expires_at, created_at`

func scanIdempotencyRecord(row interface{ Scan(...any) error }) (*model.IdempotencyRecord, error) {
	var rec model.IdempotencyRecord
	var headersJSON sql.NullString
	if err := row.Scan(&rec.ID, &rec.Key, &rec.Method, &rec.RequestBodyHash, &rec.StatusCode,
		&rec.ResponseBody, &headersJSON, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if headersJSON.Valid && headersJSON.String != "" {
		if err := json.Unmarshal([]byte(headersJSON.String), &rec.ResponseHeaders); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

// GetByKeyAndMethod looks up a stored outcome for replay detection. Returns
// ErrNotFound when this is the first time the key has been seen.
func (r *IdempotencyRepo) GetByKeyAndMethod(ctx context.Context, key, method string) (*model.IdempotencyRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+idempotencyColumns+` FROM idempotency_records WHERE idempotency_key = $1 AND method = $2`,
		key, method,
	)
	rec, err := scanIdempotencyRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create stores the outcome of a newly-executed operation. If a concurrent
// writer won the race for the same (key, method), this returns ErrConflict
// and the caller should re-read via GetByKeyAndMethod.
func (r *IdempotencyRepo) Create(ctx context.Context, rec *model.IdempotencyRecord) error {
	var headersJSON []byte
	var err error
	if len(rec.ResponseHeaders) > 0 {
		headersJSON, err = json.Marshal(rec.ResponseHeaders)
		if err != nil {
			return err
		}
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO idempotency_records
		 (id, idempotency_key, method, request_body_hash, response_status_code, response_body, response_headers, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Key, rec.Method, rec.RequestBodyHash, rec.StatusCode, rec.ResponseBody, string(headersJSON), rec.ExpiresAt,
	)
	if IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// DeleteExpired removes idempotency records past their TTL, used by the
// cleanup sweep so the table does not grow without bound.
func (r *IdempotencyRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_records WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
