// Package memory provides an in-memory checkpoint store for tests and
// single-process deployments. All reads and writes are copy-on-write:
// the store never aliases a caller's checkpoint, so callers can keep
// mutating their copy after a Put.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/id"
	"github.com/xraph/invoiceflow/run"
)

// Store is an in-memory run.Store implementation.
type Store struct {
	mu          sync.RWMutex
	checkpoints map[string]*run.Checkpoint
	closed      bool
}

var _ run.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{checkpoints: make(map[string]*run.Checkpoint)}
}

// Put implements run.Store.
func (s *Store) Put(_ context.Context, cp *run.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoiceflow.ErrStoreClosed
	}

	s.checkpoints[cp.RunID.String()] = cp.Clone()

	return nil
}

// Get implements run.Store.
func (s *Store) Get(_ context.Context, runID id.RunID) (*run.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoiceflow.ErrStoreClosed
	}

	cp, ok := s.checkpoints[runID.String()]
	if !ok {
		return nil, invoiceflow.ErrRunNotFound
	}

	return cp.Clone(), nil
}

// List implements run.Store. Results are ordered newest first by
// update time.
func (s *Store) List(_ context.Context, opts run.ListOpts) ([]*run.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, invoiceflow.ErrStoreClosed
	}

	out := make([]*run.Checkpoint, 0, len(s.checkpoints))
	for _, cp := range s.checkpoints {
		if opts.Suspended != nil && cp.Suspended != *opts.Suspended {
			continue
		}
		if opts.Status != "" && (cp.Record == nil || cp.Record.Status != opts.Status) {
			continue
		}
		out = append(out, cp.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	return out, nil
}

// Delete implements run.Store.
func (s *Store) Delete(_ context.Context, runID id.RunID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return invoiceflow.ErrStoreClosed
	}

	key := runID.String()
	if _, ok := s.checkpoints[key]; !ok {
		return invoiceflow.ErrRunNotFound
	}
	delete(s.checkpoints, key)

	return nil
}

// Close implements run.Store. Further calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	return nil
}
