package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used in development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]User
	proofs []Proof
	hashes map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]User),
		hashes: make(map[string]struct{}),
	}
}

func (s *MemoryStore) InsertUser(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return nil
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) InsertProof(_ context.Context, proof Proof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[proof.RawProofHash]; ok {
		return ErrConflict
	}
	if proof.CreatedAt.IsZero() {
		proof.CreatedAt = time.Now().UTC()
	}
	s.hashes[proof.RawProofHash] = struct{}{}
	s.proofs = append(s.proofs, proof)
	return nil
}

func (s *MemoryStore) DeleteProofByHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[hash]; !ok {
		return nil
	}
	delete(s.hashes, hash)
	for i, p := range s.proofs {
		if p.RawProofHash == hash {
			s.proofs = append(s.proofs[:i], s.proofs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ProofExistsByHash(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hashes[hash]
	return ok, nil
}

func (s *MemoryStore) ListProofsByUser(_ context.Context, userID string) ([]Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Proof
	for _, p := range s.proofs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ProofStatsByProvider(_ context.Context) ([]ProviderStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, p := range s.proofs {
		counts[p.Provider]++
	}
	stats := make([]ProviderStat, 0, len(counts))
	for provider, n := range counts {
		stats = append(stats, ProviderStat{Provider: provider, Count: n})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Provider < stats[j].Provider })
	return stats, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
