package taskq

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ImmediateBackend executes tasks synchronously inside Enqueue, in the
// calling goroutine. The returned result is always terminal: a raised error
// or panic is captured into a FAILED result instead of propagating to the
// caller.
type ImmediateBackend struct {
	alias   string
	mu      sync.Mutex
	results map[uuid.UUID]*Result
}

// NewImmediateBackend creates an immediate backend registered under the
// given alias.
func NewImmediateBackend(alias string) *ImmediateBackend {
	return &ImmediateBackend{
		alias:   alias,
		results: make(map[uuid.UUID]*Result),
	}
}

// Enqueue implements Backend.
func (b *ImmediateBackend) Enqueue(ctx context.Context, task *Task, args []any, kwargs map[string]any) (*Result, error) {
	if err := task.validate(); err != nil {
		return nil, err
	}
	args, kwargs = normalizeArgs(args, kwargs)

	enqueuedAt := time.Now()
	started := enqueuedAt
	out := callTask(ctx, task.fn, args, kwargs)
	finished := time.Now()

	res := &Result{
		ID:           uuid.New(),
		TaskPath:     task.path,
		BackendAlias: b.alias,
		QueueName:    task.queueName,
		Priority:     task.priority,
		Args:         args,
		Kwargs:       kwargs,
		Status:       out.status(),
		EnqueuedAt:   enqueuedAt,
		RunAfter:     task.runAfter,
		StartedAt:    &started,
		FinishedAt:   &finished,
		Payload:      out.payload,
		Error:        out.errInfo,
		backend:      b,
	}

	b.mu.Lock()
	b.results[res.ID] = res.clone()
	b.mu.Unlock()

	return res, nil
}

// GetResult implements Backend.
func (b *ImmediateBackend) GetResult(ctx context.Context, id string) (*Result, error) {
	parsed, err := parseResultID(id)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	res, ok := b.results[parsed]
	if !ok {
		return nil, ErrResultDoesNotExist
	}
	cp := res.clone()
	cp.backend = b
	return cp, nil
}
