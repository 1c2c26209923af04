package taskq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorInfo is the structured failure payload persisted with a FAILED result.
type ErrorInfo struct {
	Kind    string `json:"kind"` // "error", "panic" or "resolution"
	Message string `json:"message"`
}

// Err converts the stored failure into an error value for callers.
func (e *ErrorInfo) Err() error {
	return fmt.Errorf("task failed (%s): %s", e.Kind, e.Message)
}

// Result is the record of one task invocation: its identity, inputs and
// lifecycle state. The persisted row is owned by the store; a Result held by
// a caller is a read-through cache that only changes when Refresh is called.
type Result struct {
	ID           uuid.UUID
	TaskPath     string
	BackendAlias string
	QueueName    string
	Priority     *int // nil sorts below every explicit priority
	Args         []any
	Kwargs       map[string]any
	Status       Status
	EnqueuedAt   time.Time
	RunAfter     *time.Time // nil means runnable immediately
	StartedAt    *time.Time
	FinishedAt   *time.Time
	Payload      json.RawMessage
	Error        *ErrorInfo

	backend Backend
}

// Value returns the decoded return value of a completed task.
//
// Accessing the value before the task reached a terminal status is an error,
// not a blocking wait. For a FAILED result the stored error is returned.
func (r *Result) Value() (any, error) {
	switch r.Status {
	case StatusComplete:
		if len(r.Payload) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(r.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode task result payload: %w", err)
		}
		return v, nil
	case StatusFailed:
		if r.Error != nil {
			return nil, r.Error.Err()
		}
		return nil, errors.New("task failed")
	default:
		return nil, ErrResultNotReady
	}
}

// Refresh re-reads the persisted state of the result through its backend and
// replaces the cached fields in place.
func (r *Result) Refresh(ctx context.Context) error {
	if r.backend == nil {
		return errors.New("result is not attached to a backend")
	}
	fresh, err := r.backend.GetResult(ctx, r.ID.String())
	if err != nil {
		return err
	}
	backend := r.backend
	*r = *fresh
	r.backend = backend
	return nil
}

// clone returns a deep-enough copy so stores and backends never hand out
// aliased mutable state.
func (r *Result) clone() *Result {
	cp := *r
	if r.Priority != nil {
		p := *r.Priority
		cp.Priority = &p
	}
	if r.RunAfter != nil {
		t := *r.RunAfter
		cp.RunAfter = &t
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		cp.StartedAt = &t
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		cp.FinishedAt = &t
	}
	if r.Error != nil {
		e := *r.Error
		cp.Error = &e
	}
	if r.Args != nil {
		cp.Args = make([]any, len(r.Args))
		copy(cp.Args, r.Args)
	}
	if r.Kwargs != nil {
		kw := make(map[string]any, len(r.Kwargs))
		for k, v := range r.Kwargs {
			kw[k] = v
		}
		cp.Kwargs = kw
	}
	if r.Payload != nil {
		cp.Payload = make(json.RawMessage, len(r.Payload))
		copy(cp.Payload, r.Payload)
	}
	return &cp
}

// readyAt is the instant the row becomes claimable: run_after when scheduled,
// enqueued_at otherwise.
func (r *Result) readyAt() time.Time {
	if r.RunAfter != nil {
		return *r.RunAfter
	}
	return r.EnqueuedAt
}

// effectivePriority maps an unset priority below every explicit value.
func (r *Result) effectivePriority() int {
	if r.Priority == nil {
		return -1 << 31
	}
	return *r.Priority
}
