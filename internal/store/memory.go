package store

import (
	"strings"
	"sync"
)

// MemoryStore is an in-process Store. Values are copied on the way in
// and out so callers can never alias the stored bytes.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	usage int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns the value for a key, or ErrNotFound.
func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a value under a key.
func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.usage -= int64(len(key) + len(old))
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored
	s.usage += int64(len(key) + len(stored))
	return nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data[key]; ok {
		s.usage -= int64(len(key) + len(old))
		delete(s.data, key)
	}
	return nil
}

// ListKeys returns every key with the given prefix.
func (s *MemoryStore) ListKeys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// MemoryUsage returns the approximate bytes held across keys and
// values.
func (s *MemoryStore) MemoryUsage() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage, nil
}
