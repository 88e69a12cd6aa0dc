// Package lock provides the per-departure serialization primitives that
// back the capacity engine's core invariant: no two concurrent writers may
// read-modify-write the same departure's capacity counters. Every such path
// takes pg_advisory_xact_lock immediately before the SELECT ... FOR UPDATE
// on the departure row (internal/repository's
// DepartureRepo.LockForUpdateTx); the advisory lock adds a second
// serialization point that holds even across statements issued against
// rows that do not yet exist (e.g. before a hold's insert), something a
// row lock alone cannot provide. The package also has a sharded in-process
// mutex map, Table, which no Postgres-backed path uses.
package lock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

// AdvisoryXact acquires a transaction-scoped Postgres advisory lock keyed on
// the departure ID, released automatically at COMMIT or ROLLBACK. The key is
// folded to a single int64 via FNV-1a since pg_advisory_xact_lock takes one
// bigint rather than the 128-bit UUID directly.
func AdvisoryXact(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, foldKey(id))
	return err
}

func foldKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(id[:])
	return int64(h.Sum64())
}

// Table is an in-process sharded mutex map that serializes callers per key
// within one process, without a Postgres session. Each key gets its own
// mutex, created lazily; the zero value is ready to use.
type Table struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// Lock blocks until the mutex for id is acquired and returns an unlock func.
func (t *Table) Lock(id uuid.UUID) func() {
	t.mu.Lock()
	if t.locks == nil {
		t.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	m, ok := t.locks[id]
	if !ok {
		m = &sync.Mutex{}
		t.locks[id] = m
	}
	t.mu.Unlock()

	m.Lock()
	return m.Unlock
}
