package storage

import (
	"context"
	"sync"
	"time"

	"meridian-hq/meridian/pkg/usage"
)

// MemoryStorage keeps usage records in memory. Records are copied on
// the way in and out so callers never share mutable state with the
// store.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*usage.Record
}

// NewMemoryStorage creates an empty in-memory ledger.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Save appends a copy of the record.
func (s *MemoryStorage) Save(ctx context.Context, record *usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.records = append(s.records, &stored)
	return nil
}

// List returns up to limit records, newest first.
func (s *MemoryStorage) List(ctx context.Context, limit int) ([]*usage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*usage.Record, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		rec := *s.records[i]
		out = append(out, &rec)
	}
	return out, nil
}

// Cleanup deletes records older than the cutoff.
func (s *MemoryStorage) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, rec := range s.records {
		if rec.Timestamp.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// Close implements usage.Storage. There is nothing to release.
func (s *MemoryStorage) Close() error {
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
