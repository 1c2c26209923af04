package taskq

// DefaultQueueName is used when a task does not override its queue.
const DefaultQueueName = "default"

// DefaultBackendAlias is the alias tasks enqueue through unless overridden.
const DefaultBackendAlias = "default"

// AllQueues is the queue filter that matches every queue.
const AllQueues = "*"

// Status represents the lifecycle state of an enqueued task invocation.
//
// The only legal transitions are NEW -> RUNNING -> {COMPLETE, FAILED}.
// Terminal states are never left: a finished result is immutable.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusRunning  Status = "RUNNING"
	StatusComplete Status = "COMPLETE"
	StatusFailed   Status = "FAILED"
)

// Terminal reports whether the status is COMPLETE or FAILED.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// queueMatches reports whether a queue name passes the worker's queue filter.
// The filter AllQueues ("*") matches everything.
func queueMatches(filter []string, queue string) bool {
	for _, q := range filter {
		if q == AllQueues || q == queue {
			return true
		}
	}
	return false
}
