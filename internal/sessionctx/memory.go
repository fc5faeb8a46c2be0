package sessionctx

import (
	"context"
	"sync"
)

// MemoryStore keeps contexts in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contexts: make(map[string]map[string]string)}
}

// Get returns the value of key in the context.
func (s *MemoryStore) Get(_ context.Context, contextID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.contexts[contextID][key]
	return value, ok, nil
}

// Set stores value under key in the context.
func (s *MemoryStore) Set(_ context.Context, contextID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, ok := s.contexts[contextID]
	if !ok {
		values = make(map[string]string)
		s.contexts[contextID] = values
	}
	values[key] = value
	return nil
}

// Clear removes the context.
func (s *MemoryStore) Clear(_ context.Context, contextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.contexts, contextID)
	return nil
}

// Exists reports whether the context holds any value.
func (s *MemoryStore) Exists(_ context.Context, contextID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.contexts[contextID]) > 0, nil
}
