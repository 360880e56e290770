package session

import (
	"strings"
	"sync"
)

// Registry tracks live chat sessions by id. Each session is owned by one
// connection; the registry only mediates lookup and teardown.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Session)}
}

func (r *Registry) Put(s *Session) {
	if r == nil || s == nil || s.ID == "" {
		return
	}
	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*Session, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	s, ok := r.byID[strings.TrimSpace(id)]
	r.mu.RUnlock()
	return s, ok
}

// Remove drops a session from the registry and returns it so the caller
// can tear it down.
func (r *Registry) Remove(id string) (*Session, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if ok {
		delete(r.byID, id)
	}
	return s, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
