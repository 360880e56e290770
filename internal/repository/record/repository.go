// Package record persists the artifacts of a completed session: the raw
// Response snapshot and the derived Lead.
package record

import (
	"context"
	"time"

	"leadform/internal/lead"
)

// Store is the write model for submissions.
type Store interface {
	CreateResponse(ctx context.Context, questionnaireID string, answers map[string]any, submittedAt time.Time) (string, error)
	CreateLead(ctx context.Context, l lead.Lead) (string, error)
}
