package survey

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"leadform/internal/question"
)

// CachedStore is a read-through LRU wrapper over a Store. The runtime
// never writes survey data, so entries need no invalidation: the cache is
// only bounded, not expired.
type CachedStore struct {
	inner Store

	questionnaires *lru.Cache[string, Questionnaire]
	tokens         *lru.Cache[string, string] // direct token -> questionnaire id
	questions      *lru.Cache[string, []question.Question]
}

func NewCached(inner Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 256
	}
	qc, err := lru.New[string, Questionnaire](size)
	if err != nil {
		return nil, err
	}
	tc, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	qsc, err := lru.New[string, []question.Question](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, questionnaires: qc, tokens: tc, questions: qsc}, nil
}

func (c *CachedStore) QuestionnaireByID(ctx context.Context, id string) (Questionnaire, error) {
	if q, ok := c.questionnaires.Get(id); ok {
		return q, nil
	}
	q, err := c.inner.QuestionnaireByID(ctx, id)
	if err != nil {
		return Questionnaire{}, err
	}
	c.questionnaires.Add(q.ID, q)
	return q, nil
}

func (c *CachedStore) QuestionnaireByToken(ctx context.Context, token string) (Questionnaire, error) {
	if id, ok := c.tokens.Get(token); ok {
		return c.QuestionnaireByID(ctx, id)
	}
	q, err := c.inner.QuestionnaireByToken(ctx, token)
	if err != nil {
		return Questionnaire{}, err
	}
	c.tokens.Add(token, q.ID)
	c.questionnaires.Add(q.ID, q)
	return q, nil
}

// DistributionByToken is never cached: activation flips must take effect
// immediately.
func (c *CachedStore) DistributionByToken(ctx context.Context, token string) (Distribution, error) {
	return c.inner.DistributionByToken(ctx, token)
}

func (c *CachedStore) Questions(ctx context.Context, questionnaireID string) ([]question.Question, error) {
	if qs, ok := c.questions.Get(questionnaireID); ok {
		out := make([]question.Question, len(qs))
		copy(out, qs)
		return out, nil
	}
	qs, err := c.inner.Questions(ctx, questionnaireID)
	if err != nil {
		return nil, err
	}
	stored := make([]question.Question, len(qs))
	copy(stored, qs)
	c.questions.Add(questionnaireID, stored)
	return qs, nil
}

func (c *CachedStore) Options(ctx context.Context, questionIDs []string) ([]question.Option, error) {
	return c.inner.Options(ctx, questionIDs)
}
