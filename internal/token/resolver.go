// Package token maps inbound link identifiers to questionnaire ids. Three
// schemes coexist in the wild: raw questionnaire UUIDs, distribution
// tokens with the "d_" prefix, and legacy direct survey tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadform/internal/repository/survey"
)

var (
	// ErrNotFound means the identifier is unknown or its distribution is
	// inactive: the link is invalid and retrying will not help.
	ErrNotFound = errors.New("token: questionnaire not found")
	// ErrUnavailable means the survey store failed: the caller may retry.
	ErrUnavailable = errors.New("token: survey store unavailable")
)

// DistributionPrefix marks a distribution token.
const DistributionPrefix = "d_"

const defaultTimeout = 5 * time.Second

// Resolver resolves identifiers read-only and idempotently: the same
// input yields the same questionnaire id absent external state changes.
type Resolver struct {
	store   survey.Store
	timeout time.Duration
	logger  *slog.Logger
}

func NewResolver(store survey.Store, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, timeout: timeout, logger: logger}
}

// Resolve returns the questionnaire id an identifier points at.
// Order: UUID -> direct id lookup; "d_" prefix -> distribution lookup
// (inactive or unknown fails, no fallback); anything else -> legacy direct
// token lookup.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := uuid.Parse(raw); err == nil {
		q, err := r.store.QuestionnaireByID(ctx, raw)
		if err != nil {
			return "", classify(err)
		}
		return q.ID, nil
	}

	if strings.HasPrefix(raw, DistributionPrefix) {
		return r.resolveDistribution(ctx, raw)
	}

	q, err := r.store.QuestionnaireByToken(ctx, raw)
	if err != nil {
		return "", classify(err)
	}
	return q.ID, nil
}

func (r *Resolver) resolveDistribution(ctx context.Context, raw string) (string, error) {
	d, err := r.store.DistributionByToken(ctx, raw)
	switch {
	case errors.Is(err, survey.ErrNotFound):
		// An unknown distribution token never falls back to a legacy
		// lookup: the link is simply invalid.
		return "", fmt.Errorf("%w: distribution %q", ErrNotFound, raw)
	case err != nil:
		// The distribution lookup itself is down. One logged, degraded
		// attempt against the direct-token path keeps old links alive.
		r.logger.Warn("distribution lookup unavailable, degrading to direct token",
			"token", raw, "err", err)
		q, derr := r.store.QuestionnaireByToken(ctx, raw)
		if derr != nil {
			return "", classify(err)
		}
		return q.ID, nil
	}
	if !d.Active {
		return "", fmt.Errorf("%w: distribution %q inactive", ErrNotFound, raw)
	}
	return d.QuestionnaireID, nil
}

func classify(err error) error {
	if errors.Is(err, survey.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
