package taskq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Worker is the polling scheduler of the durable queue. It claims ready rows
// one at a time, executes them with failure isolation and persists the
// terminal state. Throughput is scaled by running more worker processes, not
// by in-process concurrency: multiple workers share the store safely through
// the skip-locked claim protocol.
type Worker struct {
	store        Store
	reg          *Registry
	backendAlias string
	queues       []string
	interval     time.Duration
	batch        bool
	logger       *slog.Logger
}

// NewWorker creates a worker. Configuration errors, including a non-positive
// poll interval, are rejected here, before any polling begins.
func NewWorker(store Store, reg *Registry, opts ...WorkerOption) (*Worker, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if reg == nil {
		return nil, ErrRegistryNil
	}

	options := &workerOptions{
		backendAlias: DefaultBackendAlias,
		queues:       []string{DefaultQueueName},
		interval:     time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if len(options.queues) == 0 {
		return nil, errors.New("worker needs at least one queue name")
	}

	return &Worker{
		store:        store,
		reg:          reg,
		backendAlias: options.backendAlias,
		queues:       options.queues,
		interval:     options.interval,
		batch:        options.batch,
		logger:       options.logger,
	}, nil
}

// Run polls the store until the context is cancelled, or, in batch mode,
// until no ready row remains. Task failures are persisted and never abort
// the loop; only an unreachable store terminates the run with an error.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker",
		slog.String("queues", strings.Join(w.queues, ",")),
		slog.String("backend", w.backendAlias))

	for {
		claimed, err := w.store.ClaimNext(ctx, w.backendAlias, w.queues)
		switch {
		case errors.Is(err, ErrNoReadyTasks):
			if w.batch {
				w.logger.Info("no more tasks to run, exiting gracefully")
				return nil
			}
			select {
			case <-ctx.Done():
				w.logger.Info("worker stopped")
				return nil
			case <-time.After(w.interval):
			}
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			w.logger.Info("worker stopped")
			return nil
		case err != nil:
			return fmt.Errorf("claim next task: %w", err)
		}

		w.logTaskState(claimed, StatusRunning)

		out := w.execute(ctx, claimed)
		// A graceful stop must not lose the outcome of in-flight work: the
		// terminal write goes through even when ctx was cancelled mid-task,
		// otherwise the row would be stuck RUNNING forever.
		finishCtx := context.WithoutCancel(ctx)
		if err := w.store.FinishResult(finishCtx, claimed.ID, out.status(), out.payload, out.errInfo); err != nil {
			if errors.Is(err, ErrResultNotRunning) {
				// The row left RUNNING underneath us, e.g. an administrative
				// update. The terminal state wins; skip and keep going.
				w.logger.Warn("task already finalized",
					slog.String("id", claimed.ID.String()),
					slog.String("path", claimed.TaskPath))
				continue
			}
			return fmt.Errorf("finalize task %s: %w", claimed.ID, err)
		}

		w.logTaskState(claimed, out.status())

		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return nil
		default:
		}
	}
}

// execute resolves the claimed row's task path and runs the task body.
// A path that does not resolve to a registered task is a task-body failure,
// not a worker failure: the row is marked FAILED and the loop continues.
func (w *Worker) execute(ctx context.Context, claimed *Result) outcome {
	task, err := w.reg.Task(claimed.TaskPath)
	if err != nil {
		return outcome{errInfo: &ErrorInfo{
			Kind:    "resolution",
			Message: fmt.Sprintf("task path %q does not point to a registered task", claimed.TaskPath),
		}}
	}
	return callTask(ctx, task.fn, claimed.Args, claimed.Kwargs)
}

func (w *Worker) logTaskState(r *Result, state Status) {
	w.logger.Info("task state changed",
		slog.String("id", r.ID.String()),
		slog.String("path", r.TaskPath),
		slog.String("state", string(state)))
}
