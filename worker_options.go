package taskq

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	backendAlias string
	queues       []string
	interval     time.Duration
	batch        bool
	logger       *slog.Logger
}

// WithWorkerBackend restricts the worker to rows owned by the given backend
// alias.
func WithWorkerBackend(alias string) WorkerOption {
	return func(o *workerOptions) {
		if alias != "" {
			o.backendAlias = alias
		}
	}
}

// WithWorkerQueues sets the queue filter. Pass AllQueues to claim from every
// queue. The list is validated by NewWorker: an empty filter is a
// configuration error.
func WithWorkerQueues(queues ...string) WorkerOption {
	return func(o *workerOptions) {
		o.queues = queues
	}
}

// WithPollInterval sets the sleep between empty polls. The value is
// validated by NewWorker: zero or negative intervals are configuration
// errors.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		o.interval = d
	}
}

// WithBatchMode makes Run process all currently-ready rows once and return
// instead of polling forever.
func WithBatchMode() WorkerOption {
	return func(o *workerOptions) {
		o.batch = true
	}
}

// WithWorkerLogger sets the logger for the worker.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
