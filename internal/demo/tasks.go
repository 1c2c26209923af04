// Package demo registers the sample tasks used by the shipped binaries.
// Real deployments register their own task functions instead.
package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/taskq"
)

// Heartbeat logs nothing and returns the current time; useful for smoke
// testing a worker deployment end to end.
func Heartbeat(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

// MeaningOfLife returns the canonical answer.
func MeaningOfLife(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return 42, nil
}

// Fail always fails; useful for exercising the failure path of a deployment.
func Fail(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return nil, errors.New("this task always fails")
}

// Register adds the demo tasks to the registry.
func Register(reg *taskq.Registry) error {
	for _, fn := range []taskq.Func{Heartbeat, MeaningOfLife, Fail} {
		if _, err := reg.New(fn); err != nil {
			return fmt.Errorf("register demo task: %w", err)
		}
	}
	return nil
}
