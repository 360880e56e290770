package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"leadform/internal/channel"
	"leadform/internal/question"
	"leadform/internal/repository/survey"
	"leadform/internal/session"
	"leadform/internal/token"
)

type questionnaireView struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	Language         string         `json:"language,omitempty"`
	ShowLogo         bool           `json:"showLogo"`
	ShowProfileImage bool           `json:"showProfileImage"`
	LinkURL          string         `json:"linkUrl,omitempty"`
	FileURL          string         `json:"fileUrl,omitempty"`
	Questions        []questionView `json:"questions"`
}

type questionView struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Kind     string       `json:"kind"`
	RawKind  string       `json:"rawKind,omitempty"`
	Required bool         `json:"required"`
	Min      int          `json:"min,omitempty"`
	Max      int          `json:"max,omitempty"`
	Options  []optionView `json:"options,omitempty"`
}

type optionView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

func viewOf(qn survey.Questionnaire, qs []question.Question) questionnaireView {
	view := questionnaireView{
		ID:               qn.ID,
		Title:            qn.Title,
		Description:      qn.Description,
		Language:         qn.Language,
		ShowLogo:         qn.ShowLogo,
		ShowProfileImage: qn.ShowProfileImage,
		LinkURL:          qn.LinkURL,
		FileURL:          qn.FileURL,
		Questions:        make([]questionView, 0, len(qs)),
	}
	for _, q := range qs {
		qv := questionView{
			ID:       q.ID,
			Text:     q.Text,
			Kind:     string(q.Kind),
			RawKind:  q.RawKind,
			Required: q.Required,
			Min:      q.Min,
			Max:      q.Max,
		}
		for _, opt := range q.Options {
			qv.Options = append(qv.Options, optionView{ID: opt.ID, Label: opt.Label, Value: opt.Value})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// GetQuestionnaire serves the public form for a share token, legacy token,
// distribution token or raw questionnaire id.
func (h *Handler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := chi.URLParam(r, "token")

	id, err := h.resolver.Resolve(ctx, raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	qn, err := h.surveys.QuestionnaireByID(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	qs, err := survey.LoadQuestions(ctx, h.surveys, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, viewOf(qn, qs))
}

type submitRequest struct {
	Answers map[string]any `json:"answers"`
	PageURL string         `json:"pageUrl,omitempty"`
}

type submitResponse struct {
	ResponseID string `json:"responseId,omitempty"`
	LeadID     string `json:"leadId,omitempty"`
	Preview    bool   `json:"preview,omitempty"`
}

// SubmitQuestionnaire accepts a batch submission: all answers in one
// request, validated together. Preview submissions require the owner key
// and persist nothing.
func (h *Handler) SubmitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := chi.URLParam(r, "token")

	var req submitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "malformed body"})
		return
	}

	id, err := h.resolver.Resolve(ctx, raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	qs, err := survey.LoadQuestions(ctx, h.surveys, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	preview := r.URL.Query().Get("preview") != "" && h.previewAllowed(r)

	sess, err := session.New(session.Config{
		QuestionnaireID:   id,
		Questions:         qs,
		Mode:              session.ModeBatch,
		Preview:           preview,
		Channel:           h.resolveChannel(ctx, raw, req.PageURL, r.Referer()),
		DistributionToken: distributionToken(raw),
		Engine:            h.engine,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sess.Start()

	for _, q := range qs {
		v, ok := req.Answers[q.ID]
		if !ok {
			continue
		}
		if err := sess.SetAnswer(q.ID, valueFor(q, v)); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	result, err := h.submit.Submit(ctx, sess)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, submitResponse{
		ResponseID: result.ResponseID,
		LeadID:     result.LeadID,
		Preview:    result.Preview,
	})
}

// resolveChannel prefers the distribution's declared channel, then falls
// back to landing-page attribution.
func (h *Handler) resolveChannel(ctx context.Context, rawToken, pageURL, referrer string) string {
	if t := distributionToken(rawToken); t != "" {
		if dist, err := h.surveys.DistributionByToken(ctx, t); err == nil && strings.TrimSpace(dist.Channel) != "" {
			return dist.Channel
		}
	}
	return channel.Detect(pageURL, referrer)
}

func distributionToken(raw string) string {
	if strings.HasPrefix(raw, token.DistributionPrefix) {
		return raw
	}
	return ""
}
