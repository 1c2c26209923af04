package taskq

import "time"

// TaskOption overrides a single field of a task descriptor. Options are
// applied to a copy by Registry.New and Task.Using; they never touch the
// original descriptor.
type TaskOption func(*Task) error

// WithName sets the human readable task name.
func WithName(name string) TaskOption {
	return func(t *Task) error {
		if name != "" {
			t.name = name
		}
		return nil
	}
}

// WithPriority sets the task priority. Higher runs earlier; the value must
// be positive.
func WithPriority(priority int) TaskOption {
	return func(t *Task) error {
		t.priority = &priority
		return nil
	}
}

// WithQueueName routes the task to a named queue.
func WithQueueName(queue string) TaskOption {
	return func(t *Task) error {
		t.queueName = queue
		return nil
	}
}

// WithBackendAlias selects the backend the task enqueues through. The alias
// is checked against the registry when the option is applied.
func WithBackendAlias(alias string) TaskOption {
	return func(t *Task) error {
		t.backend = alias
		return nil
	}
}

// WithRunAfter defers execution until the given absolute time.
func WithRunAfter(at time.Time) TaskOption {
	return func(t *Task) error {
		t.runAfter = &at
		return nil
	}
}

// WithRunAfterDelay defers execution by a relative duration, normalized to
// an absolute time when the option is applied.
func WithRunAfterDelay(d time.Duration) TaskOption {
	return func(t *Task) error {
		at := time.Now().Add(d)
		t.runAfter = &at
		return nil
	}
}
