// Package submit finalizes a session: last-line validation, persistence
// of the Response and the derived Lead, and the fire-and-forget automation
// notification.
package submit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leadform/internal/automation"
	"leadform/internal/lead"
	"leadform/internal/repository/record"
	"leadform/internal/session"
)

const notifyTimeout = 15 * time.Second

// Result reports what a submission produced. Preview submissions produce
// nothing but the terminal state.
type Result struct {
	ResponseID string
	LeadID     string
	Preview    bool
}

type Coordinator struct {
	records record.Store
	trigger automation.Trigger
	logger  *slog.Logger
	clock   func() time.Time
}

func NewCoordinator(records record.Store, trigger automation.Trigger, logger *slog.Logger) *Coordinator {
	if trigger == nil {
		trigger = automation.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		records: records,
		trigger: trigger,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Submit drives a session to its terminal state. Chat sessions must be at
// the terminal position; batch sessions are validated over the full set
// here, collecting every violation. A prior successful submission makes
// this a rejected retry; a prior failed one may retry safely because the
// terminal state was never entered.
func (c *Coordinator) Submit(ctx context.Context, s *session.Session) (Result, error) {
	if err := s.BeginSubmit(); err != nil {
		return Result{}, err
	}

	// Full-set validation covers batch answers and re-checks question
	// integrity (missing options, inverted rating bounds) for both modes.
	if viol := s.ValidateAll(); viol != nil {
		verr := &session.ValidationError{Codes: viol}
		s.FailSubmit(verr)
		return Result{}, verr
	}

	if s.Preview {
		// The owner's dry run: terminal state and a success transcript
		// entry, but no persistence and no automation.
		s.CompleteSubmit()
		return Result{Preview: true}, nil
	}

	snapshot := s.Answers().Snapshot()
	submittedAt := c.clock()

	responseID, err := c.records.CreateResponse(ctx, s.QuestionnaireID, snapshot, submittedAt)
	if err != nil {
		err = fmt.Errorf("submit: persist response: %w", err)
		s.FailSubmit(err)
		return Result{}, err
	}

	ld := lead.Derive(s.QuestionnaireID, s.Questions(), snapshot, s.Channel)
	ld.CreatedAt = submittedAt

	// The response is already committed; a lead write failure is logged
	// and triaged from the raw response rather than failing the
	// respondent's submission.
	leadID, err := c.records.CreateLead(ctx, ld)
	if err != nil {
		c.logger.Error("submit: persist lead failed, response kept",
			"response", responseID, "questionnaire", s.QuestionnaireID, "err", err)
	}
	ld.ID = leadID

	s.CompleteSubmit()

	c.notifyAsync(ld)

	return Result{ResponseID: responseID, LeadID: leadID}, nil
}

// notifyAsync fires the automation trigger on a detached context.
// Failures are swallowed after logging; nothing can roll back the
// committed submission.
func (c *Coordinator) notifyAsync(ld lead.Lead) {
	if ld.ID == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("automation trigger panicked", "lead", ld.ID, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := c.trigger.Notify(ctx, ld); err != nil {
			c.logger.Warn("automation notify failed", "lead", ld.ID, "err", err)
		}
	}()
}
