package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps hits in process memory. State is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]time.Time)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := prune(s.entries[key], now.Add(-window))
	if len(ts) >= limit {
		s.entries[key] = ts
		return false, len(ts), nil
	}

	ts = append(ts, now)
	s.entries[key] = ts
	return true, len(ts), nil
}

// Sweep drops expired hits from every key and forgets keys left empty.
// It returns the number of keys forgotten.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-window)
	var removed int64
	for key, ts := range s.entries {
		ts = prune(ts, cutoff)
		if len(ts) == 0 {
			delete(s.entries, key)
			removed++
			continue
		}
		s.entries[key] = ts
	}
	return removed, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// prune filters ts in place, keeping timestamps strictly after cutoff.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
