package taskq

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Store is the persistence contract of the durable queue. The database
// backend writes through it and the worker claims from it; the store is the
// sole writer of persisted state.
//
// Implementations must provide the skip-locked claim semantics described on
// ClaimNext: concurrent workers never block on or double-claim a row.
type Store interface {
	// CreateResult inserts a new NEW row.
	CreateResult(ctx context.Context, r *Result) error

	// GetResult fetches a row by id, ErrResultDoesNotExist when absent.
	GetResult(ctx context.Context, id uuid.UUID) (*Result, error)

	// ClaimNext atomically claims the next ready row for the given backend
	// alias and queue filter and transitions it to RUNNING. A row is ready
	// when its status is NEW and its run_after is unset or reached. Ordering
	// is priority descending (unset sorts last), then the ready instant
	// ascending, then insertion order. Rows locked by another claim are
	// skipped, not waited on. ErrNoReadyTasks when nothing is claimable.
	ClaimNext(ctx context.Context, backendAlias string, queues []string) (*Result, error)

	// FinishResult transitions a RUNNING row to a terminal status exactly
	// once, persisting the payload or the error info. A row that is not
	// RUNNING (already terminal, or never claimed) yields ErrResultNotRunning
	// and is left untouched.
	FinishResult(ctx context.Context, id uuid.UUID, status Status, payload json.RawMessage, errInfo *ErrorInfo) error

	// ListResults returns every row of a backend in claim order. Ordering is
	// part of the contract: it is how the claim sequence is observed.
	ListResults(ctx context.Context, backendAlias string) ([]*Result, error)
}
