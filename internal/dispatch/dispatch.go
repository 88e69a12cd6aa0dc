// Package dispatch implements the operation dispatcher (spec §4.C10): it
// wraps the idempotency check/store cycle around a single domain operation
// so every mutating endpoint gets replay safety for free, rather than each
// handler reimplementing the check itself. Grounded on original_source's
// idempotency_service.py pattern of "look up outcome, else execute and
// record outcome" lifted one layer up to a generic dispatcher.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/opsicle/seatkeep/internal/idempotency"
	"github.com/opsicle/seatkeep/internal/problem"
)

// Operation is a domain call that the dispatcher wraps with idempotency.
// It returns the HTTP status code to report and the response value to
// marshal to JSON.
type Operation func(ctx context.Context) (statusCode int, response any, err error)

// Dispatcher executes Operations behind an idempotency check.
type Dispatcher struct {
	Store *idempotency.Store
}

// NewDispatcher returns a Dispatcher backed by the given idempotency store.
func NewDispatcher(store *idempotency.Store) *Dispatcher {
	return &Dispatcher{Store: store}
}

// Execute runs op under idempotency protection. On a replay hit it returns
// the previously stored response without calling op again. On a miss it
// calls op. A domain error (a *problem.Error — CapacityFull, HoldExpiredErr,
// Conflict, and the like) is translated to its problem-details body and
// persisted exactly like a success, so a replay of the same key+body keeps
// returning that same error until the idempotency TTL elapses rather than
// re-executing once the underlying condition clears. An infra-level error
// (a plain error: a dropped connection, a context timeout) is never
// persisted, so the caller can simply retry the same key once the
// infrastructure recovers.
func (d *Dispatcher) Execute(ctx context.Context, method, idempotencyKey string, requestBody any, op Operation) (int, []byte, error) {
	hash, err := idempotency.Hash(requestBody)
	if err != nil {
		return 0, nil, err
	}

	rec, outcome, err := d.Store.Check(ctx, idempotencyKey, method, hash)
	if err != nil {
		return 0, nil, err
	}
	if outcome == idempotency.Hit {
		if rec.StatusCode >= 400 {
			var d problem.Details
			if err := json.Unmarshal(rec.ResponseBody, &d); err == nil {
				return rec.StatusCode, rec.ResponseBody, &problem.Error{Details: d}
			}
		}
		return rec.StatusCode, rec.ResponseBody, nil
	}

	status, response, opErr := op(ctx)
	if opErr != nil {
		pe, ok := problem.As(opErr)
		if !ok {
			return 0, nil, opErr
		}
		status = pe.Status
		response = pe.Details
	}

	body, err := json.Marshal(response)
	if err != nil {
		return 0, nil, err
	}
	stored, err := d.Store.StoreResult(ctx, idempotencyKey, method, hash, status, body, nil)
	if err != nil {
		return 0, nil, err
	}
	return stored.StatusCode, stored.ResponseBody, opErr
}
