package answer

import "sync"

// Store is the keyed answer map of one response session. Writes are
// last-write-wins per question id; reads return exactly the value last
// written.
type Store struct {
	mu     sync.RWMutex
	values map[string]Value
}

func NewStore() *Store {
	return &Store{values: make(map[string]Value)}
}

func (s *Store) Set(questionID string, v Value) {
	if s == nil || questionID == "" {
		return
	}
	s.mu.Lock()
	s.values[questionID] = v
	s.mu.Unlock()
}

func (s *Store) Get(questionID string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	s.mu.RLock()
	v, ok := s.values[questionID]
	s.mu.RUnlock()
	return v, ok
}

// Media returns the media lifecycle of a question, StageIdle when the
// question has no media value yet.
func (s *Store) Media(questionID string) Media {
	v, ok := s.Get(questionID)
	if !ok || v.Kind != KindMedia {
		return Media{Stage: StageIdle}
	}
	return v.Media
}

func (s *Store) Delete(questionID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.values, questionID)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Snapshot freezes the store into its wire form: question id to
// string / []string / tagged media string / nil. Unresolved media values
// are omitted, skipped optional questions appear as nil.
func (s *Store) Snapshot() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for id, v := range s.values {
		if v.Kind == KindMedia && v.Media.Stage != StageResolved {
			continue
		}
		out[id] = v.Wire()
	}
	return out
}

// Reset discards every answer. Used on session teardown.
func (s *Store) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.values = make(map[string]Value)
	s.mu.Unlock()
}
