package runlog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps runs in memory, oldest first. When full, recording a
// run evicts the oldest one.
type MemoryStore struct {
	mu         sync.RWMutex
	runs       []*Run
	maxRecords int
}

// NewMemoryStore creates a memory store holding at most maxRecords runs.
// Zero means unlimited.
func NewMemoryStore(maxRecords int) *MemoryStore {
	return &MemoryStore{maxRecords: maxRecords}
}

// Record stores a copy of run.
func (s *MemoryStore) Record(_ context.Context, run *Run) error {
	cp := *run
	cp.Roles = append([]string(nil), run.Roles...)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep the slice ordered by start time even if runs finish out of order.
	i := sort.Search(len(s.runs), func(i int) bool { return s.runs[i].StartedAt.After(cp.StartedAt) })
	s.runs = append(s.runs, nil)
	copy(s.runs[i+1:], s.runs[i:])
	s.runs[i] = &cp

	if s.maxRecords > 0 && len(s.runs) > s.maxRecords {
		s.runs = append([]*Run(nil), s.runs[len(s.runs)-s.maxRecords:]...)
	}
	return nil
}

// List returns matching runs, newest first.
func (s *MemoryStore) List(_ context.Context, query *Query) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offset := 0
	if query != nil {
		offset = query.Offset
	}
	limit := query.limit()

	results := make([]*Run, 0)
	skipped := 0
	for i := len(s.runs) - 1; i >= 0 && len(results) < limit; i-- {
		run := s.runs[i]
		if !matches(run, query) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		cp := *run
		results = append(results, &cp)
	}
	return results, nil
}

// Count returns the number of matching runs.
func (s *MemoryStore) Count(_ context.Context, query *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, run := range s.runs {
		if matches(run, query) {
			n++
		}
	}
	return n, nil
}

// DeleteBefore removes runs started before t.
func (s *MemoryStore) DeleteBefore(_ context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.runs), func(i int) bool { return !s.runs[i].StartedAt.Before(t) })
	s.runs = append([]*Run(nil), s.runs[i:]...)
	return int64(i), nil
}

// DeleteOldest keeps the newest keep runs.
func (s *MemoryStore) DeleteOldest(_ context.Context, keep int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	excess := int64(len(s.runs)) - keep
	if excess <= 0 {
		return 0, nil
	}
	s.runs = append([]*Run(nil), s.runs[excess:]...)
	return excess, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close releases nothing.
func (s *MemoryStore) Close() error { return nil }

func matches(run *Run, query *Query) bool {
	if query == nil {
		return true
	}
	if query.Model != "" && run.Model != query.Model {
		return false
	}
	if query.Mode != "" && run.Mode != query.Mode {
		return false
	}
	if query.Status != "" && run.Status() != query.Status {
		return false
	}
	if !query.Since.IsZero() && run.StartedAt.Before(query.Since) {
		return false
	}
	return true
}
