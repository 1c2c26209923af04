package taskq

import (
	"context"
	"errors"
	"time"
)

// Func is the signature of a task body. Arguments mirror the persisted form
// of an invocation: positional args plus keyword args, both JSON-representable.
// The returned value is serialized into the result payload.
type Func func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// Task is the immutable definition of a registered task: a globally
// addressable function reference plus its default scheduling parameters.
// Using returns an overridden copy; a Task is never mutated after creation.
type Task struct {
	path      string
	name      string
	priority  *int
	queueName string
	backend   string
	runAfter  *time.Time

	fn  Func
	reg *Registry
}

// Path returns the globally addressable function reference.
func (t *Task) Path() string { return t.path }

// Name returns the human readable task name.
func (t *Task) Name() string { return t.name }

// Priority returns the default priority, nil when unset.
func (t *Task) Priority() *int { return t.priority }

// QueueName returns the default queue the task is enqueued on.
func (t *Task) QueueName() string { return t.queueName }

// BackendAlias returns the alias of the backend the task enqueues through.
func (t *Task) BackendAlias() string { return t.backend }

// RunAfter returns the default earliest run time, nil when runnable immediately.
func (t *Task) RunAfter() *time.Time { return t.runAfter }

// Using returns a new, independent Task with only the given fields
// overridden. The receiver keeps its values and can be reused as a template.
// A backend override is validated against the registry here, not at enqueue.
func (t *Task) Using(opts ...TaskOption) (*Task, error) {
	cp := *t
	for _, opt := range opts {
		if err := opt(&cp); err != nil {
			return nil, err
		}
	}
	if cp.backend != t.backend {
		if _, err := t.reg.Backend(cp.backend); err != nil {
			return nil, err
		}
	}
	if err := cp.validate(); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Enqueue submits one invocation of the task through its backend and returns
// the freshly persisted result with status NEW.
func (t *Task) Enqueue(ctx context.Context, args []any, kwargs map[string]any) (*Result, error) {
	backend, err := t.reg.Backend(t.backend)
	if err != nil {
		return nil, err
	}
	return backend.Enqueue(ctx, t, args, kwargs)
}

// GetResult fetches a result by identifier through the task's backend.
// A result that belongs to a different task definition is reported as
// not-found to prevent cross-task result confusion.
func (t *Task) GetResult(ctx context.Context, id string) (*Result, error) {
	backend, err := t.reg.Backend(t.backend)
	if err != nil {
		return nil, err
	}
	res, err := backend.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.TaskPath != t.path {
		return nil, ErrResultDoesNotExist
	}
	return res, nil
}

// Call invokes the task function directly, bypassing any backend.
func (t *Task) Call(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	args, kwargs = normalizeArgs(args, kwargs)
	return t.fn(ctx, args, kwargs)
}

// validate enforces the descriptor invariants. Backends call it again before
// persisting so a violation can never reach the store.
func (t *Task) validate() error {
	if t.fn == nil || t.path == "" {
		return errors.Join(ErrInvalidTask, errors.New("task function must be a globally addressable function"))
	}
	if t.priority != nil && *t.priority <= 0 {
		return errors.Join(ErrInvalidTask, errors.New("priority must be positive"))
	}
	if t.runAfter != nil && t.runAfter.IsZero() {
		return errors.Join(ErrInvalidTask, errors.New("run_after must be a non-zero time"))
	}
	if t.queueName == "" {
		return errors.Join(ErrInvalidTask, errors.New("queue name must not be empty"))
	}
	return nil
}
