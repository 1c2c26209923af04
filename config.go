package taskq

import "time"

// WorkerConfig holds the environment-driven worker settings. Command line
// flags take precedence over these values in the shipped binaries.
type WorkerConfig struct {
	BackendAlias string        `env:"TASKQ_BACKEND" envDefault:"default"`                     // BackendAlias is the backend the worker claims rows for.
	QueueNames   []string      `env:"TASKQ_QUEUES" envSeparator:"," envDefault:"default"`     // QueueNames is the queue filter, "*" matches all queues.
	PollInterval time.Duration `env:"TASKQ_POLL_INTERVAL" envDefault:"1s"`                    // PollInterval is the sleep between empty polls, must be positive.
	Batch        bool          `env:"TASKQ_BATCH" envDefault:"false"`                         // Batch makes the worker drain ready rows once and exit.
}
