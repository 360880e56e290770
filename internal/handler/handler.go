// Package handler exposes the questionnaire runtime over HTTP: public
// questionnaire fetch, batch submission, media upload and the chat-mode
// websocket.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"leadform/internal/media"
	"leadform/internal/repository/survey"
	"leadform/internal/session"
	"leadform/internal/submit"
	"leadform/internal/token"
	"leadform/internal/validate"
)

type Handler struct {
	resolver *token.Resolver
	surveys  survey.Store
	sessions *session.Registry
	media    *media.Adapter
	submit   *submit.Coordinator
	engine   *validate.Engine
	ownerKey string
	logger   *slog.Logger
}

func New(
	resolver *token.Resolver,
	surveys survey.Store,
	sessions *session.Registry,
	adapter *media.Adapter,
	coordinator *submit.Coordinator,
	engine *validate.Engine,
	ownerKey string,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		resolver: resolver,
		surveys:  surveys,
		sessions: sessions,
		media:    adapter,
		submit:   coordinator,
		engine:   engine,
		ownerKey: ownerKey,
		logger:   logger,
	}
}

// previewAllowed reports whether the request may open a preview session.
// Preview requires the owner key to be configured and presented.
func (h *Handler) previewAllowed(r *http.Request) bool {
	if h.ownerKey == "" {
		return false
	}
	key := strings.TrimSpace(r.Header.Get("X-Owner-Key"))
	if key == "" {
		key = strings.TrimSpace(r.URL.Query().Get("owner_key"))
	}
	return key == h.ownerKey
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Codes))
		for id, code := range verr.Codes {
			fields[id] = string(code)
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorBody{Error: "validation failed", Fields: fields})
	case errors.Is(err, token.ErrNotFound), errors.Is(err, survey.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "questionnaire not found"})
	case errors.Is(err, token.ErrUnavailable):
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, errorBody{Error: "temporarily unavailable"})
	case errors.Is(err, session.ErrTerminal):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorBody{Error: "already submitted"})
	case errors.Is(err, media.ErrUploadFailed):
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, errorBody{Error: "upload failed"})
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorBody{Error: "internal error"})
	}
}
