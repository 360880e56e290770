// Package automation is the follow-up messaging collaborator. The
// submission coordinator notifies it fire-and-forget: a failure here is
// logged and nothing else.
package automation

import (
	"context"
	"log/slog"

	"leadform/internal/lead"
)

// Trigger is notified once per persisted lead.
type Trigger interface {
	Notify(ctx context.Context, l lead.Lead) error
}

// Noop is the default trigger when no automation backend is configured.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) Notify(_ context.Context, l lead.Lead) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("automation disabled, lead not notified", "lead", l.ID, "questionnaire", l.QuestionnaireID)
	return nil
}
