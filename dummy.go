package taskq

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DummyBackend records enqueued invocations without ever executing them.
// Results stay NEW forever, which makes the backend useful for asserting
// what would have been queued.
type DummyBackend struct {
	alias   string
	mu      sync.Mutex
	results []*Result
}

// NewDummyBackend creates a dummy backend registered under the given alias.
func NewDummyBackend(alias string) *DummyBackend {
	return &DummyBackend{alias: alias}
}

// Enqueue implements Backend.
func (b *DummyBackend) Enqueue(ctx context.Context, task *Task, args []any, kwargs map[string]any) (*Result, error) {
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

	b.mu.Lock()
	b.results = append(b.results, res.clone())
	b.mu.Unlock()

	return res, nil
}

// GetResult implements Backend.
func (b *DummyBackend) GetResult(ctx context.Context, id string) (*Result, error) {
	parsed, err := parseResultID(id)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.results {
		if r.ID == parsed {
			cp := r.clone()
			cp.backend = b
			return cp, nil
		}
	}
	return nil, ErrResultDoesNotExist
}

// Results returns copies of everything enqueued so far.
func (b *DummyBackend) Results() []*Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Result, 0, len(b.results))
	for _, r := range b.results {
		out = append(out, r.clone())
	}
	return out
}

// Clear drops all recorded results.
func (b *DummyBackend) Clear() {
	b.mu.Lock()
	b.results = nil
	b.mu.Unlock()
}
