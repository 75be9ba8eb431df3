package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
	rows map[string][]store.Row
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs: make(map[string]store.Run),
		rows: make(map[string][]store.Row),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun implements store.Store.
func (s *Store) SaveRun(ctx context.Context, run store.Run, rows []store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s: %w", run.ID, internalerr.ErrDuplicate)
	}
	s.runs[run.ID] = run
	s.rows[run.ID] = append([]store.Row(nil), rows...)
	return nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return run, nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Rows implements store.Store.
func (s *Store) Rows(ctx context.Context, runID string) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.rows[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	return append([]store.Row(nil), rows...), nil
}
