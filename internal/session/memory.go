package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for single-instance deployments
// without Redis, and for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	bags map[int64]Bag
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bags: make(map[int64]Bag)}
}

// Get returns a copy of the session's bag, empty when unknown.
func (s *MemoryStore) Get(ctx context.Context, sessionID int64) (*Bag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bag := s.bags[sessionID]
	return &bag, nil
}

// Set stores a copy of the bag.
func (s *MemoryStore) Set(ctx context.Context, sessionID int64, bag *Bag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bags[sessionID] = *bag
	return nil
}

// Clear discards the session's working memory.
func (s *MemoryStore) Clear(ctx context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.bags, sessionID)
	return nil
}
