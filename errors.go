package taskq

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidTask is returned when a task descriptor fails validation
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidTaskBackend is returned when a backend alias cannot be resolved
	ErrInvalidTaskBackend = errors.New("invalid task backend")

	// ErrResultDoesNotExist is returned when a result lookup finds nothing,
	// is given a malformed identifier, or the result belongs to another task
	ErrResultDoesNotExist = errors.New("task result does not exist")

	// ErrResultNotReady is returned when accessing the value of a result
	// that has not reached a terminal status yet
	ErrResultNotReady = errors.New("task has not finished yet")

	// ErrResultNotRunning is returned when a terminal transition is attempted
	// on a row that is not in the RUNNING state
	ErrResultNotRunning = errors.New("task result is not running")

	// ErrTaskNotFound is returned when a stored task path does not point to
	// a registered task
	ErrTaskNotFound = errors.New("task path does not point to a registered task")

	// ErrTaskAlreadyRegistered is returned when registering a duplicate task path
	ErrTaskAlreadyRegistered = errors.New("task already registered")

	// ErrBackendAlreadyRegistered is returned when registering a duplicate backend alias
	ErrBackendAlreadyRegistered = errors.New("backend alias already registered")

	// ErrNoReadyTasks is returned by a store claim when no row is ready
	ErrNoReadyTasks = errors.New("no ready tasks to claim")

	// ErrInvalidInterval is returned when a worker poll interval is not positive
	ErrInvalidInterval = errors.New("poll interval must be greater than zero")

	// ErrStoreNil is returned when a nil store is provided
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrRegistryNil is returned when a nil registry is provided
	ErrRegistryNil = errors.New("registry cannot be nil")

	// ErrBackendNil is returned when a nil backend is provided
	ErrBackendNil = errors.New("backend cannot be nil")
)

// InvalidTaskBackendError reports a backend alias that is not present in the
// registry. It is raised eagerly, at Using time, never deferred to enqueue.
type InvalidTaskBackendError struct {
	Alias string
}

func (e *InvalidTaskBackendError) Error() string {
	return fmt.Sprintf("task backend %q is not configured", e.Alias)
}

func (e *InvalidTaskBackendError) Unwrap() error {
	return ErrInvalidTaskBackend
}
