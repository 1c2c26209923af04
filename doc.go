// Package taskq is a database-backed task queue: callers submit a deferred
// function call to a named backend, receive a result handle, and poll or
// refresh that handle to observe completion. Workers poll the durable store,
// claim ready rows under skip-locked row locking and persist terminal state
// exactly once per row.
//
// The package is organised around four cooperating pieces:
//
//   - Registry — explicit configuration mapping backend aliases and task paths
//   - Task     — immutable descriptor of a registered, path-addressable function
//   - Backend  — the enqueue/lookup contract (database, dummy, immediate)
//   - Worker   — the polling scheduler claiming and executing ready rows
//
// Persistence sits behind the small Store interface, implemented by
// PostgresStore for production and MemoryStore for tests and local runs.
//
// # Usage
//
//	reg := taskq.NewRegistry()
//	store := taskq.NewMemoryStore()
//
//	backend, _ := taskq.NewDatabaseBackend(store, taskq.DefaultBackendAlias)
//	_ = reg.AddBackend(taskq.DefaultBackendAlias, backend)
//
//	sendEmail, err := reg.New(SendEmail, taskq.WithQueueName("emails"))
//	if err != nil {
//	    return err
//	}
//
//	// Enqueue with per-call overrides; the descriptor itself never changes.
//	urgent, _ := sendEmail.Using(taskq.WithPriority(10))
//	res, _ := urgent.Enqueue(ctx, []any{42}, nil)
//
//	// Later, observe progress explicitly.
//	_ = res.Refresh(ctx)
//	if res.Status.Terminal() {
//	    v, _ := res.Value()
//	    _ = v
//	}
//
// A worker drains the queue:
//
//	w, _ := taskq.NewWorker(store, reg, taskq.WithBatchMode())
//	_ = w.Run(ctx)
//
// # Guarantees and gaps
//
// Execution is at-least-once per ready row per worker invocation; idempotency
// is the task author's concern. A row claimed by a worker that dies before
// finalizing stays RUNNING — there is no lease or heartbeat reclaim.
//
// # Error Handling
//
// Package-level sentinel errors (ErrInvalidTask, ErrResultDoesNotExist, ...)
// signal contract violations and can be checked with errors.Is. Validation
// errors surface at the call site before anything is persisted; task body
// failures are captured into the persisted FAILED state and never crash the
// worker.
package taskq
