package automation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	genai "google.golang.org/genai"

	"leadform/internal/lead"
)

const defaultModel = "gemini-2.0-flash"

// Gemini composes a short follow-up message for a fresh lead. The message
// is logged for the owner's outreach queue; composing it must never block
// or fail a submission, which the coordinator guarantees by calling
// Notify from a detached goroutine.
type Gemini struct {
	cli    *genai.Client
	model  string
	logger *slog.Logger
}

func NewGemini(ctx context.Context, model string, logger *slog.Logger) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{cli: cli, model: model, logger: logger}, nil
}

func (g *Gemini) Notify(ctx context.Context, l lead.Lead) error {
	prompt := fmt.Sprintf(
		"Write one short, friendly follow-up message (max 2 sentences) to a new lead named %q who arrived via %q. Plain text only.",
		fallback(l.ClientName, "there"), fallback(l.Channel, "a direct link"))

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "text/plain"},
		)
		if err != nil {
			lastErr = err
			continue
		}
		msg := strings.TrimSpace(resp.Text())
		if msg == "" {
			lastErr = fmt.Errorf("automation: empty follow-up from model")
			continue
		}
		g.logger.Info("follow-up composed", "lead", l.ID, "channel", l.Channel, "message", msg)
		return nil
	}
	return fmt.Errorf("automation: compose follow-up: %w", lastErr)
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
