package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore is an in-memory sliding-window counter for
// rate limiting. Timestamps are kept as unix nanos per key and stale
// entries are trimmed on every access.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]int64
}

// NewRateLimitMemoryStore creates an empty window store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string][]int64),
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixNano()
	cutoff := now - window.Nanoseconds()

	entries := s.windows[key]

	// Entries are appended in order, so everything before the first
	// in-window timestamp is stale.
	start := 0
	for start < len(entries) && entries[start] <= cutoff {
		start++
	}

	entries = append(entries[start:], now)
	s.windows[key] = entries

	return int64(len(entries)), nil
}
