package rotation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory rotation store for tests and single-instance
// deployments.
type MemoryStore struct {
	mu    sync.Mutex
	used  map[string]time.Time
	clock func() time.Time
}

// NewMemoryStore constructs an empty in-memory rotation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		used:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// WithClock sets the clock function for testability.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	s.clock = clock
	return s
}

func (s *MemoryStore) MarkUsed(_ context.Context, jti string, ttl time.Duration) (bool, error) {
	if jti == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	for id, expiry := range s.used {
		if now.After(expiry) {
			delete(s.used, id)
		}
	}

	if expiry, ok := s.used[jti]; ok && now.Before(expiry) {
		return true, nil
	}
	s.used[jti] = now.Add(ttl)
	return false, nil
}
