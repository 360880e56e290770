// Package survey is the read-only store the runtime loads questionnaires
// from. The authoring side owns every write; nothing here mutates.
package survey

import (
	"context"
	"errors"

	"leadform/internal/question"
)

var ErrNotFound = errors.New("survey: not found")

// Questionnaire is the runtime view of a stored question set.
type Questionnaire struct {
	ID               string
	OwnerID          string
	Token            string
	Title            string
	Description      string
	Language         string
	ShowLogo         bool
	ShowProfileImage bool
	LinkURL          string
	FileURL          string
}

// Distribution is one publication channel of a questionnaire, addressed by
// its own token.
type Distribution struct {
	Token           string
	QuestionnaireID string
	Channel         string
	Active          bool
}

// Store is the survey read model.
type Store interface {
	QuestionnaireByID(ctx context.Context, id string) (Questionnaire, error)
	QuestionnaireByToken(ctx context.Context, token string) (Questionnaire, error)
	DistributionByToken(ctx context.Context, token string) (Distribution, error)
	Questions(ctx context.Context, questionnaireID string) ([]question.Question, error)
	Options(ctx context.Context, questionIDs []string) ([]question.Option, error)
}

// LoadQuestions fetches a questionnaire's questions with their options
// attached and kinds normalized. This is the one place raw storage kinds
// are classified; callers past this point only see canonical kinds.
func LoadQuestions(ctx context.Context, s Store, questionnaireID string) ([]question.Question, error) {
	qs, err := s.Questions(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	opts, err := s.Options(ctx, ids)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[string][]question.Option, len(qs))
	for _, o := range opts {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	for i := range qs {
		qs[i].Options = byQuestion[qs[i].ID]
	}
	if err := question.Normalize(qs); err != nil {
		return nil, err
	}
	return qs, nil
}
