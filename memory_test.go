package taskq_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq"
)

func newMemoryQueue(t *testing.T) (*taskq.MemoryStore, *taskq.Registry) {
	t.Helper()

	store := taskq.NewMemoryStore()
	reg := taskq.NewRegistry()
	backend, err := taskq.NewDatabaseBackend(store, taskq.DefaultBackendAlias)
	require.NoError(t, err)
	require.NoError(t, reg.AddBackend(taskq.DefaultBackendAlias, backend))
	return store, reg
}

func TestMemoryStore_ClaimOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, reg := newMemoryQueue(t)

	task, err := reg.New(noopTask)
	require.NoError(t, err)

	enqueue := func(opts ...taskq.TaskOption) uuid.UUID {
		variant, err := task.Using(opts...)
		require.NoError(t, err)
		res, err := variant.Enqueue(ctx, nil, nil)
		require.NoError(t, err)
		return res.ID
	}

	farFuture := enqueue(taskq.WithRunAfterDelay(10 * time.Hour))
	highFarFuture := enqueue(taskq.WithPriority(10), taskq.WithRunAfterDelay(10*time.Hour))
	future := enqueue(taskq.WithRunAfterDelay(2 * time.Hour))
	high := enqueue(taskq.WithPriority(10))
	low := enqueue(taskq.WithPriority(2))

	t.Run("listing follows claim order", func(t *testing.T) {
		results, err := store.ListResults(ctx, taskq.DefaultBackendAlias)
		require.NoError(t, err)
		require.Len(t, results, 5)

		got := make([]uuid.UUID, len(results))
		for i, r := range results {
			got[i] = r.ID
		}
		// Priority descending with unset last, then the ready instant, then
		// enqueue time.
		assert.Equal(t, []uuid.UUID{high, highFarFuture, low, future, farFuture}, got)
	})

	t.Run("claims only ready rows, highest priority first", func(t *testing.T) {
		first, err := store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.DefaultQueueName})
		require.NoError(t, err)
		assert.Equal(t, high, first.ID)
		assert.Equal(t, taskq.StatusRunning, first.Status)
		require.NotNil(t, first.StartedAt)

		second, err := store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.DefaultQueueName})
		require.NoError(t, err)
		assert.Equal(t, low, second.ID)

		// The scheduled rows are not ready yet.
		_, err = store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.DefaultQueueName})
		assert.ErrorIs(t, err, taskq.ErrNoReadyTasks)
	})
}

func TestMemoryStore_InsertionOrderTieBreak(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, reg := newMemoryQueue(t)

	task, err := reg.New(noopTask)
	require.NoError(t, err)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		res, err := task.Enqueue(ctx, nil, nil)
		require.NoError(t, err)
		ids = append(ids, res.ID)
	}

	for _, want := range ids {
		claimed, err := store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.DefaultQueueName})
		require.NoError(t, err)
		assert.Equal(t, want, claimed.ID)
	}
}

func TestMemoryStore_QueueIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, reg := newMemoryQueue(t)

	task, err := reg.New(noopTask)
	require.NoError(t, err)

	routed, err := task.Using(taskq.WithQueueName("queue-1"))
	require.NoError(t, err)

	onDefault, err := task.Enqueue(ctx, nil, nil)
	require.NoError(t, err)
	onQueue1, err := routed.Enqueue(ctx, nil, nil)
	require.NoError(t, err)

	claimed, err := store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{"queue-1"})
	require.NoError(t, err)
	assert.Equal(t, onQueue1.ID, claimed.ID)

	_, err = store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{"queue-1"})
	assert.ErrorIs(t, err, taskq.ErrNoReadyTasks)

	// The wildcard filter sees every queue.
	claimed, err = store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.AllQueues})
	require.NoError(t, err)
	assert.Equal(t, onDefault.ID, claimed.ID)
}

func TestMemoryStore_BackendIsolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, reg := newMemoryQueue(t)
	other, err := taskq.NewDatabaseBackend(store, "other")
	require.NoError(t, err)
	require.NoError(t, reg.AddBackend("other", other))

	task, err := reg.New(noopTask)
	require.NoError(t, err)
	onOther, err := task.Using(taskq.WithBackendAlias("other"))
	require.NoError(t, err)

	_, err = task.Enqueue(ctx, nil, nil)
	require.NoError(t, err)
	otherRes, err := onOther.Enqueue(ctx, nil, nil)
	require.NoError(t, err)

	claimed, err := store.ClaimNext(ctx, "other", []string{taskq.AllQueues})
	require.NoError(t, err)
	assert.Equal(t, otherRes.ID, claimed.ID)

	_, err = store.ClaimNext(ctx, "other", []string{taskq.AllQueues})
	assert.ErrorIs(t, err, taskq.ErrNoReadyTasks)

	results, err := store.ListResults(ctx, "other")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, otherRes.ID, results[0].ID)
}

func TestMemoryStore_FinishResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("only running rows can be finalized", func(t *testing.T) {
		t.Parallel()

		store, reg := newMemoryQueue(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		res, err := task.Enqueue(ctx, nil, nil)
		require.NoError(t, err)

		err = store.FinishResult(ctx, res.ID, taskq.StatusComplete, nil, nil)
		assert.ErrorIs(t, err, taskq.ErrResultNotRunning)
	})

	t.Run("terminal rows stay terminal", func(t *testing.T) {
		t.Parallel()

		store, reg := newMemoryQueue(t)
		task, err := reg.New(noopTask)
		require.NoError(t, err)

		res, err := task.Enqueue(ctx, nil, nil)
		require.NoError(t, err)

		_, err = store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.AllQueues})
		require.NoError(t, err)

		require.NoError(t, store.FinishResult(ctx, res.ID, taskq.StatusComplete, []byte(`"ok"`), nil))

		err = store.FinishResult(ctx, res.ID, taskq.StatusFailed, nil, &taskq.ErrorInfo{Kind: "error", Message: "late"})
		assert.ErrorIs(t, err, taskq.ErrResultNotRunning)

		stored, err := store.GetResult(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, taskq.StatusComplete, stored.Status)
		assert.Nil(t, stored.Error)
	})

	t.Run("unknown row", func(t *testing.T) {
		t.Parallel()

		store, _ := newMemoryQueue(t)
		err := store.FinishResult(ctx, uuid.New(), taskq.StatusComplete, nil, nil)
		assert.ErrorIs(t, err, taskq.ErrResultDoesNotExist)
	})
}

func TestMemoryStore_EmptyArgsSurviveCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, reg := newMemoryQueue(t)

	task, err := reg.New(noopTask)
	require.NoError(t, err)

	res, err := task.Enqueue(ctx, nil, nil)
	require.NoError(t, err)

	// Every copy handed out keeps the normalized empty collections; they must
	// never degrade back to nil.
	stored, err := store.GetResult(ctx, res.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.Args)
	assert.Empty(t, stored.Args)
	assert.NotNil(t, stored.Kwargs)
	assert.Empty(t, stored.Kwargs)

	claimed, err := store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.AllQueues})
	require.NoError(t, err)
	assert.NotNil(t, claimed.Args)
	assert.Empty(t, claimed.Args)
}

func TestMemoryStore_ConcurrentClaims(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, reg := newMemoryQueue(t)

	task, err := reg.New(noopTask)
	require.NoError(t, err)

	const total = 20
	for i := 0; i < total; i++ {
		_, err := task.Enqueue(ctx, nil, nil)
		require.NoError(t, err)
	}

	var (
		mu      sync.Mutex
		claimed = make(map[uuid.UUID]int)
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				res, err := store.ClaimNext(ctx, taskq.DefaultBackendAlias, []string{taskq.DefaultQueueName})
				if err != nil {
					return
				}
				mu.Lock()
				claimed[res.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, claimed, total)
	for id, n := range claimed {
		assert.Equalf(t, 1, n, "row %s claimed %d times", id, n)
	}
}
