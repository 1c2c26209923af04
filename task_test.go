package taskq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq"
)

// Package-level task functions: only globally addressable functions are
// accepted as tasks.
func noopTask(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return nil, nil
}

func meaningOfLife(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return 42, nil
}

func failingTask(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return nil, errors.New("failing task failed")
}

func panickingTask(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	panic("boom")
}

func sleepyTask(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	time.Sleep(10 * time.Millisecond)
	return "done", nil
}

type methodHolder struct{}

func (methodHolder) Run(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	return nil, nil
}

func newTestRegistry(t *testing.T) (*taskq.Registry, *taskq.DummyBackend) {
	t.Helper()

	reg := taskq.NewRegistry()
	backend := taskq.NewDummyBackend(taskq.DefaultBackendAlias)
	require.NoError(t, reg.AddBackend(taskq.DefaultBackendAlias, backend))
	return reg, backend
}

func TestRegistry_New(t *testing.T) {
	t.Parallel()

	t.Run("derives path and name from the function", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		assert.Equal(t, "github.com/dmitrymomot/taskq_test.noopTask", task.Path())
		assert.Equal(t, "noopTask", task.Name())
		assert.Equal(t, taskq.DefaultQueueName, task.QueueName())
		assert.Equal(t, taskq.DefaultBackendAlias, task.BackendAlias())
		assert.Nil(t, task.Priority())
		assert.Nil(t, task.RunAfter())
	})

	t.Run("rejects nil function", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		_, err := reg.New(nil)
		assert.ErrorIs(t, err, taskq.ErrInvalidTask)
	})

	t.Run("rejects closures", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		_, err := reg.New(func(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
			return nil, nil
		})
		assert.ErrorIs(t, err, taskq.ErrInvalidTask)
	})

	t.Run("rejects method values", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		_, err := reg.New(methodHolder{}.Run)
		assert.ErrorIs(t, err, taskq.ErrInvalidTask)
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		_, err := reg.New(noopTask)
		require.NoError(t, err)
		_, err = reg.New(noopTask)
		assert.ErrorIs(t, err, taskq.ErrTaskAlreadyRegistered)
	})

	t.Run("rejects invalid default priority", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		_, err := reg.New(noopTask, taskq.WithPriority(0))
		assert.ErrorIs(t, err, taskq.ErrInvalidTask)
	})

	t.Run("rejects unknown default backend alias", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		_, err := reg.New(noopTask, taskq.WithBackendAlias("unknown"))
		require.Error(t, err)

		var backendErr *taskq.InvalidTaskBackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, "unknown", backendErr.Alias)
	})

	t.Run("rejects registration before any backend is configured", func(t *testing.T) {
		t.Parallel()

		reg := taskq.NewRegistry()
		_, err := reg.New(noopTask)
		assert.ErrorIs(t, err, taskq.ErrInvalidTaskBackend)
	})
}

func TestRegistry_Backend(t *testing.T) {
	t.Parallel()

	t.Run("unknown alias names the alias", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		_, err := reg.Backend("unknown")
		require.Error(t, err)
		assert.ErrorIs(t, err, taskq.ErrInvalidTaskBackend)

		var backendErr *taskq.InvalidTaskBackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, "unknown", backendErr.Alias)
		assert.Contains(t, err.Error(), `"unknown"`)
	})

	t.Run("duplicate alias rejected", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		err := reg.AddBackend(taskq.DefaultBackendAlias, taskq.NewDummyBackend(taskq.DefaultBackendAlias))
		assert.ErrorIs(t, err, taskq.ErrBackendAlreadyRegistered)
	})

	t.Run("nil backend rejected", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		assert.ErrorIs(t, reg.AddBackend("other", nil), taskq.ErrBackendNil)
	})
}

func TestTask_Using(t *testing.T) {
	t.Parallel()

	t.Run("overrides produce a new descriptor", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		withPriority, err := task.Using(taskq.WithPriority(1))
		require.NoError(t, err)
		require.NotNil(t, withPriority.Priority())
		assert.Equal(t, 1, *withPriority.Priority())

		// The original is untouched and reusable as a template.
		assert.Nil(t, task.Priority())
		assert.Equal(t, task.Path(), withPriority.Path())
	})

	t.Run("no overrides still returns a distinct instance", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(meaningOfLife)
		require.NoError(t, err)

		clone, err := task.Using()
		require.NoError(t, err)
		assert.NotSame(t, task, clone)
		assert.Equal(t, task.Path(), clone.Path())
		assert.Equal(t, task.QueueName(), clone.QueueName())
	})

	t.Run("queue name override", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		routed, err := task.Using(taskq.WithQueueName("queue-1"))
		require.NoError(t, err)
		assert.Equal(t, "queue-1", routed.QueueName())
		assert.Equal(t, taskq.DefaultQueueName, task.QueueName())
	})

	t.Run("relative run_after is normalized to absolute", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		delayed, err := task.Using(taskq.WithRunAfterDelay(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, delayed.RunAfter())
		assert.WithinDuration(t, time.Now().Add(time.Hour), *delayed.RunAfter(), time.Minute)
		assert.Nil(t, task.RunAfter())
	})

	t.Run("zero run_after rejected", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		_, err = task.Using(taskq.WithRunAfter(time.Time{}))
		assert.ErrorIs(t, err, taskq.ErrInvalidTask)
	})

	t.Run("non-positive priority rejected before persistence", func(t *testing.T) {
		t.Parallel()

		reg, backend := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		for _, p := range []int{0, -5} {
			_, err = task.Using(taskq.WithPriority(p))
			assert.ErrorIs(t, err, taskq.ErrInvalidTask)
		}
		assert.Empty(t, backend.Results())
	})

	t.Run("unknown backend alias fails at Using time", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		_, err = task.Using(taskq.WithBackendAlias("unknown"))
		require.Error(t, err)

		var backendErr *taskq.InvalidTaskBackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, "unknown", backendErr.Alias)
	})

	t.Run("known backend alias accepted", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		require.NoError(t, reg.AddBackend("immediate", taskq.NewImmediateBackend("immediate")))

		task, err := reg.New(noopTask)
		require.NoError(t, err)

		immediate, err := task.Using(taskq.WithBackendAlias("immediate"))
		require.NoError(t, err)
		assert.Equal(t, "immediate", immediate.BackendAlias())
		assert.Equal(t, taskq.DefaultBackendAlias, task.BackendAlias())
	})
}

func TestTask_Call(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(t)
	task, err := reg.New(meaningOfLife)
	require.NoError(t, err)

	v, err := task.Call(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestTask_GetResult(t *testing.T) {
	t.Parallel()

	t.Run("round trip through the backend", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		res, err := task.Enqueue(context.Background(), []any{float64(1)}, map[string]any{"two": float64(3)})
		require.NoError(t, err)

		fetched, err := task.GetResult(context.Background(), res.ID.String())
		require.NoError(t, err)
		assert.Equal(t, res.ID, fetched.ID)
		assert.Equal(t, taskq.StatusNew, fetched.Status)
	})

	t.Run("malformed identifier reports not found", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		_, err = task.GetResult(context.Background(), "123")
		assert.ErrorIs(t, err, taskq.ErrResultDoesNotExist)
	})

	t.Run("result of a different task reports not found", func(t *testing.T) {
		t.Parallel()

		reg, _ := newTestRegistry(t)
		taskA, err := reg.New(noopTask)
		require.NoError(t, err)
		taskB, err := reg.New(meaningOfLife)
		require.NoError(t, err)

		res, err := taskB.Enqueue(context.Background(), nil, nil)
		require.NoError(t, err)

		_, err = taskA.GetResult(context.Background(), res.ID.String())
		assert.ErrorIs(t, err, taskq.ErrResultDoesNotExist)
	})
}
