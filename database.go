package taskq

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DatabaseBackend persists invocations through a Store. It is the durable
// production backend: enqueue inserts a NEW row and returns immediately,
// execution is left to workers polling the same store.
type DatabaseBackend struct {
	store Store
	alias string
}

// NewDatabaseBackend creates a backend writing through the given store under
// the given alias. Rows carry the alias so workers for one alias never see
// rows belonging to another.
func NewDatabaseBackend(store Store, alias string) (*DatabaseBackend, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if alias == "" {
		return nil, errors.New("backend alias must not be empty")
	}
	return &DatabaseBackend{store: store, alias: alias}, nil
}

// Enqueue implements Backend.
func (b *DatabaseBackend) Enqueue(ctx context.Context, task *Task, args []any, kwargs map[string]any) (*Result, error) {
	if err := task.validate(); err != nil {
		return nil, err
	}
	args, kwargs = normalizeArgs(args, kwargs)

	res := &Result{
		ID:           uuid.New(),
		TaskPath:     task.path,
		BackendAlias: b.alias,
		QueueName:    task.queueName,
		Priority:     task.priority,
		Args:         args,
		Kwargs:       kwargs,
		Status:       StatusNew,
		EnqueuedAt:   time.Now(),
		RunAfter:     task.runAfter,
		backend:      b,
	}
	if err := b.store.CreateResult(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetResult implements Backend.
func (b *DatabaseBackend) GetResult(ctx context.Context, id string) (*Result, error) {
	parsed, err := parseResultID(id)
	if err != nil {
		return nil, err
	}
	res, err := b.store.GetResult(ctx, parsed)
	if err != nil {
		return nil, err
	}
	res.backend = b
	return res, nil
}
