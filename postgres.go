package taskq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool. Claims rely on
// row-level locking with FOR UPDATE SKIP LOCKED inside a single short
// statement, so task execution never holds a lock and concurrent workers
// skip rows instead of blocking on them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on top of an established pool. The
// task_results schema is managed by the goose migrations shipped in the
// migrations directory.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("pgx pool cannot be nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const resultColumns = `id, task_path, backend_name, queue_name, priority, args_kwargs,
	status, enqueued_at, run_after, started_at, finished_at, result, error`

// argsKwargs is the persisted form of an invocation's inputs.
type argsKwargs struct {
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// CreateResult implements Store.
func (s *PostgresStore) CreateResult(ctx context.Context, r *Result) error {
	inputs, err := json.Marshal(argsKwargs{Args: r.Args, Kwargs: r.Kwargs})
	if err != nil {
		return fmt.Errorf("encode task args: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO task_results (id, task_path, backend_name, queue_name, priority, args_kwargs, status, enqueued_at, run_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.TaskPath, r.BackendAlias, r.QueueName, r.Priority, inputs, string(r.Status), r.EnqueuedAt, r.RunAfter,
	)
	if err != nil {
		return fmt.Errorf("insert task result: %w", err)
	}
	return nil
}

// GetResult implements Store.
func (s *PostgresStore) GetResult(ctx context.Context, id uuid.UUID) (*Result, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM task_results WHERE id = $1`, id)

	res, err := scanResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultDoesNotExist
		}
		return nil, fmt.Errorf("select task result: %w", err)
	}
	return res, nil
}

// ClaimNext implements Store. The subselect picks the next ready row under
// the claim ordering and locks it with SKIP LOCKED; the enclosing UPDATE
// transitions it to RUNNING in the same statement, so the lock is held only
// for the duration of the claim, never across task execution.
func (s *PostgresStore) ClaimNext(ctx context.Context, backendAlias string, queues []string) (*Result, error) {
	allQueues := containsAllQueues(queues)

	row := s.pool.QueryRow(ctx, `
		UPDATE task_results SET status = $1, started_at = now()
		WHERE id = (
			SELECT id FROM task_results
			WHERE status = $2
			  AND backend_name = $3
			  AND ($4 OR queue_name = ANY($5))
			  AND (run_after IS NULL OR run_after <= now())
			ORDER BY priority DESC NULLS LAST, COALESCE(run_after, enqueued_at) ASC, enqueued_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+resultColumns,
		string(StatusRunning), string(StatusNew), backendAlias, allQueues, queues,
	)

	res, err := scanResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoReadyTasks
		}
		return nil, fmt.Errorf("claim task result: %w", err)
	}
	return res, nil
}

// FinishResult implements Store. The status guard makes the terminal write
// exactly-once: rows that already left RUNNING are never rewritten.
func (s *PostgresStore) FinishResult(ctx context.Context, id uuid.UUID, status Status, payload json.RawMessage, errInfo *ErrorInfo) error {
	var encodedErr []byte
	if errInfo != nil {
		var err error
		encodedErr, err = json.Marshal(errInfo)
		if err != nil {
			return fmt.Errorf("encode task error: %w", err)
		}
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE task_results
		SET status = $1, finished_at = now(), result = $2, error = $3
		WHERE id = $4 AND status = $5`,
		string(status), []byte(payload), encodedErr, id, string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("finalize task result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrResultNotRunning
	}
	return nil
}

// ListResults implements Store.
func (s *PostgresStore) ListResults(ctx context.Context, backendAlias string) ([]*Result, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+resultColumns+` FROM task_results
		WHERE backend_name = $1
		ORDER BY priority DESC NULLS LAST, COALESCE(run_after, enqueued_at) ASC, enqueued_at ASC`,
		backendAlias,
	)
	if err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	return out, nil
}

func containsAllQueues(queues []string) bool {
	for _, q := range queues {
		if q == AllQueues {
			return true
		}
	}
	return false
}

func scanResult(row pgx.Row) (*Result, error) {
	var (
		r       Result
		status  string
		inputs  []byte
		payload []byte
		errInfo []byte
	)
	if err := row.Scan(
		&r.ID, &r.TaskPath, &r.BackendAlias, &r.QueueName, &r.Priority, &inputs,
		&status, &r.EnqueuedAt, &r.RunAfter, &r.StartedAt, &r.FinishedAt, &payload, &errInfo,
	); err != nil {
		return nil, err
	}

	r.Status = Status(status)
	if len(inputs) > 0 {
		var ak argsKwargs
		if err := json.Unmarshal(inputs, &ak); err != nil {
			return nil, fmt.Errorf("decode task args: %w", err)
		}
		r.Args = ak.Args
		r.Kwargs = ak.Kwargs
	}
	if len(payload) > 0 {
		r.Payload = json.RawMessage(payload)
	}
	if len(errInfo) > 0 {
		var e ErrorInfo
		if err := json.Unmarshal(errInfo, &e); err != nil {
			return nil, fmt.Errorf("decode task error: %w", err)
		}
		r.Error = &e
	}
	return &r, nil
}
