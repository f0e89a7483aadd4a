package localstore

import (
	"context"
	"sync"
)

// InMemStore implements Store using an in-memory map.
type InMemStore struct {
	values map[string][]byte
	mu     sync.Mutex
}

// NewInMemStore creates a new in-memory store.
func NewInMemStore() *InMemStore {
	return &InMemStore{
		values: make(map[string][]byte),
	}
}

// Get retrieves the value for a key.
func (s *InMemStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, exists := s.values[key]
	if !exists {
		return nil, ErrNotFound
	}

	// Return a copy so callers cannot mutate stored state.
	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Set stores a value under a key, overwriting any existing value.
func (s *InMemStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *InMemStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Keys returns all keys currently in the store.
func (s *InMemStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	return keys, nil
}
