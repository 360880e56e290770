package blob

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps uploads in memory. Used by tests and as the default
// when no bucket is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailNext makes the next upload fail, for failure-path tests.
	FailNext bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, key, contentType string, data []byte) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return "", fmt.Errorf("%w: simulated failure", ErrUnavailable)
	}
	s.data[key] = append([]byte(nil), data...)
	return "mem://" + key, nil
}

// Get returns a stored payload, for test assertions.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), raw...), true
}

// Len reports how many objects were stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
