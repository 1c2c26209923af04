package taskq

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Backend is a pluggable enqueue/lookup strategy. The context-aware methods
// cover both synchronous and asynchronous call sites with a single code path.
//
// Enqueue validates the task, persists a new result with status NEW and
// returns it. It never executes the task inline; ImmediateBackend is the one
// deliberate exception and returns a terminal result instead.
type Backend interface {
	Enqueue(ctx context.Context, task *Task, args []any, kwargs map[string]any) (*Result, error)
	GetResult(ctx context.Context, id string) (*Result, error)
}

// parseResultID parses a caller supplied identifier. A string that is not a
// well-formed UUID can never name a stored row, so it reports not-found
// rather than a validation error.
func parseResultID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.Join(ErrResultDoesNotExist, err)
	}
	return parsed, nil
}

// normalizeArgs replaces nil inputs with their empty forms so every persisted
// record carries a JSON-representable args/kwargs pair.
func normalizeArgs(args []any, kwargs map[string]any) ([]any, map[string]any) {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return args, kwargs
}
