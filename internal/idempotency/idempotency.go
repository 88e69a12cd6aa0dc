// Package idempotency implements the replay-detection layer (spec §4.C2),
// grounded on original_source's idempotency_service.py: canonicalize the
// request body, hash it, and look up any prior outcome recorded for the
// same (key, method) pair. A hash mismatch against a prior record means the
// same key was reused for a logically different request and is rejected;
// a hash match means this is a safe replay and the prior response is
// returned verbatim without re-running the operation.
package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/opsicle/seatkeep/internal/clock"
	"github.com/opsicle/seatkeep/internal/model"
	"github.com/opsicle/seatkeep/internal/problem"
	"github.com/opsicle/seatkeep/internal/repository"
)

// Outcome is what Check reports about a (key, method) pair.
type Outcome int

const (
	// Miss means no record exists yet; the caller should execute the
	// operation and then Store its result.
	Miss Outcome = iota
	// Hit means a prior identical request was already executed; the
	// caller should return the stored response without re-executing.
	Hit
)

// Store checks and records idempotent outcomes against a Postgres-backed
// repository.
type Store struct {
	Records *repository.IdempotencyRepo
	Clock   clock.Clock
	TTL     time.Duration
}

// NewStore returns a Store wired to the given repository.
func NewStore(records *repository.IdempotencyRepo, c clock.Clock, ttl time.Duration) *Store {
	return &Store{Records: records, Clock: c, TTL: ttl}
}

// Hash returns the canonical SHA-256 hex digest of a request body. The body
// is marshalled and decoded back into generic maps (numbers kept verbatim),
// so that re-encoding emits object keys in sorted order regardless of struct
// field order; the compact encoding (no incidental whitespace, no trailing
// newline, no HTML escaping) gives a stable canonical form across
// equivalent encodings of the same logical request.
func Hash(body any) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return "", err
	}
	sum := sha256.Sum256(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return hex.EncodeToString(sum[:]), nil
}

// Check looks up a prior outcome for (key, method). On Hit it returns the
// stored record; on Miss it returns (nil, Miss, nil). A hash mismatch
// against a stored record for the same key yields problem.IdempotencyMismatch.
func (s *Store) Check(ctx context.Context, key, method, requestHash string) (*model.IdempotencyRecord, Outcome, error) {
	rec, err := s.Records.GetByKeyAndMethod(ctx, key, method)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Miss, nil
	}
	if err != nil {
		return nil, Miss, err
	}
	if rec.RequestBodyHash != requestHash {
		return nil, Miss, problem.IdempotencyMismatch(key, method)
	}
	return rec, Hit, nil
}

// StoreResult persists the outcome of a freshly-executed operation. If a
// concurrent caller won the race to store first (ErrConflict from the
// unique (key, method) constraint), the benign race is resolved by
// re-reading and returning the winner's record instead of erroring.
func (s *Store) StoreResult(ctx context.Context, key, method, requestHash string, statusCode int, responseBody []byte, headers map[string]string) (*model.IdempotencyRecord, error) {
	rec := &model.IdempotencyRecord{
		ID:              clock.NewUUID(),
		Key:             key,
		Method:          method,
		RequestBodyHash: requestHash,
		StatusCode:      statusCode,
		ResponseBody:    responseBody,
		ResponseHeaders: headers,
		ExpiresAt:       s.Clock.Now().Add(s.TTL),
	}
	err := s.Records.Create(ctx, rec)
	if errors.Is(err, repository.ErrConflict) {
		existing, getErr := s.Records.GetByKeyAndMethod(ctx, key, method)
		if getErr != nil {
			return nil, getErr
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Sweep deletes records past their TTL, keeping the table bounded.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	return s.Records.DeleteExpired(ctx, s.Clock.Now())
}
