package survey

import (
	"context"
	"strings"
	"sync"

	"leadform/internal/question"
)

// MemoryStore is an in-memory Store for tests and single-node demos.
type MemoryStore struct {
	mu            sync.RWMutex
	byID          map[string]Questionnaire
	byToken       map[string]string // direct token -> questionnaire id
	distributions map[string]Distribution
	questions     map[string][]question.Question // questionnaire id -> questions
	options       map[string][]question.Option   // question id -> options

	// call counters, read by cache tests
	questionnaireReads int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:          make(map[string]Questionnaire),
		byToken:       make(map[string]string),
		distributions: make(map[string]Distribution),
		questions:     make(map[string][]question.Question),
		options:       make(map[string][]question.Option),
	}
}

func (s *MemoryStore) AddQuestionnaire(q Questionnaire) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[q.ID] = q
	if q.Token != "" {
		s.byToken[q.Token] = q.ID
	}
}

func (s *MemoryStore) AddDistribution(d Distribution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distributions[d.Token] = d
}

func (s *MemoryStore) AddQuestions(questionnaireID string, qs ...question.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[questionnaireID] = append(s.questions[questionnaireID], qs...)
	for _, q := range qs {
		if len(q.Options) > 0 {
			s.options[q.ID] = append(s.options[q.ID], q.Options...)
		}
	}
}

func (s *MemoryStore) QuestionnaireByID(_ context.Context, id string) (Questionnaire, error) {
	s.mu.Lock()
	s.questionnaireReads++
	s.mu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Questionnaire{}, ErrNotFound
	}
	return q, nil
}

func (s *MemoryStore) QuestionnaireByToken(_ context.Context, token string) (Questionnaire, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byToken[strings.TrimSpace(token)]
	if !ok {
		return Questionnaire{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) DistributionByToken(_ context.Context, token string) (Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.distributions[strings.TrimSpace(token)]
	if !ok {
		return Distribution{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) Questions(_ context.Context, questionnaireID string) ([]question.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs, ok := s.questions[questionnaireID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]question.Question, len(qs))
	copy(out, qs)
	return out, nil
}

func (s *MemoryStore) Options(_ context.Context, questionIDs []string) ([]question.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []question.Option
	for _, id := range questionIDs {
		out = append(out, s.options[id]...)
	}
	return out, nil
}

// QuestionnaireReads reports how many by-id reads hit this store.
func (s *MemoryStore) QuestionnaireReads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questionnaireReads
}
