package record

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadform/internal/lead"
)

// Response is one stored raw submission.
type Response struct {
	ID              string
	QuestionnaireID string
	Answers         map[string]any
	SubmittedAt     time.Time
}

// MemoryStore keeps submissions in memory and counts calls, which is what
// the coordinator tests assert against.
type MemoryStore struct {
	mu        sync.RWMutex
	responses []Response
	leads     []lead.Lead

	// FailNextResponse makes the next CreateResponse fail once.
	FailNextResponse bool
	// FailNextLead makes the next CreateLead fail once.
	FailNextLead bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CreateResponse(_ context.Context, questionnaireID string, answers map[string]any, submittedAt time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextResponse {
		s.FailNextResponse = false
		return "", fmt.Errorf("record: simulated response failure")
	}
	r := Response{
		ID:              uuid.NewString(),
		QuestionnaireID: questionnaireID,
		Answers:         answers,
		SubmittedAt:     submittedAt,
	}
	s.responses = append(s.responses, r)
	return r.ID, nil
}

func (s *MemoryStore) CreateLead(_ context.Context, l lead.Lead) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextLead {
		s.FailNextLead = false
		return "", fmt.Errorf("record: simulated lead failure")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	s.leads = append(s.leads, l)
	return l.ID, nil
}

func (s *MemoryStore) Responses() []Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Response, len(s.responses))
	copy(out, s.responses)
	return out
}

func (s *MemoryStore) Leads() []lead.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]lead.Lead, len(s.leads))
	copy(out, s.leads)
	return out
}
