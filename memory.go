package taskq

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in process memory. It honors the same claim
// contract as the Postgres store (ready predicate, ordering, compare-and-swap
// transitions) and exists for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	results map[uuid.UUID]*Result
	order   []uuid.UUID // insertion order, the final tie-breaker
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[uuid.UUID]*Result),
	}
}

// CreateResult implements Store.
func (s *MemoryStore) CreateResult(ctx context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[r.ID] = r.clone()
	s.order = append(s.order, r.ID)
	return nil
}

// GetResult implements Store.
func (s *MemoryStore) GetResult(ctx context.Context, id uuid.UUID) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[id]
	if !ok {
		return nil, ErrResultDoesNotExist
	}
	return r.clone(), nil
}

// ClaimNext implements Store. The mutex stands in for the row lock: the
// candidate scan and the NEW -> RUNNING transition are a single critical
// section, so two concurrent claims can never pick the same row.
func (s *MemoryStore) ClaimNext(ctx context.Context, backendAlias string, queues []string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var best *Result
	for _, id := range s.order {
		r := s.results[id]
		if r.Status != StatusNew || r.BackendAlias != backendAlias {
			continue
		}
		if !queueMatches(queues, r.QueueName) {
			continue
		}
		if r.RunAfter != nil && r.RunAfter.After(now) {
			continue
		}
		if best == nil || claimBefore(r, best) {
			best = r
		}
	}
	if best == nil {
		return nil, ErrNoReadyTasks
	}

	started := time.Now()
	best.Status = StatusRunning
	best.StartedAt = &started
	return best.clone(), nil
}

// FinishResult implements Store. Terminal rows are never rewritten.
func (s *MemoryStore) FinishResult(ctx context.Context, id uuid.UUID, status Status, payload json.RawMessage, errInfo *ErrorInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[id]
	if !ok {
		return ErrResultDoesNotExist
	}
	if r.Status != StatusRunning {
		return ErrResultNotRunning
	}

	finished := time.Now()
	r.Status = status
	r.FinishedAt = &finished
	r.Payload = payload
	r.Error = errInfo
	return nil
}

// ListResults implements Store.
func (s *MemoryStore) ListResults(ctx context.Context, backendAlias string) ([]*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Result, 0, len(s.results))
	for _, id := range s.order {
		r := s.results[id]
		if r.BackendAlias == backendAlias {
			out = append(out, r.clone())
		}
	}
	// Stable sort over the insertion-ordered slice keeps insertion order as
	// the final tie-breaker.
	sort.SliceStable(out, func(i, j int) bool {
		return claimBefore(out[i], out[j])
	})
	return out, nil
}

// claimBefore is the claim ordering: priority descending with unset last,
// then the ready instant ascending, then enqueue time ascending.
func claimBefore(a, b *Result) bool {
	if pa, pb := a.effectivePriority(), b.effectivePriority(); pa != pb {
		return pa > pb
	}
	if ra, rb := a.readyAt(), b.readyAt(); !ra.Equal(rb) {
		return ra.Before(rb)
	}
	return a.EnqueuedAt.Before(b.EnqueuedAt)
}
