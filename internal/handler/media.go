package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"leadform/internal/answer"
)

// maxUploadBytes bounds a single media upload.
const maxUploadBytes = 32 << 20

type mediaResponse struct {
	Value string `json:"value"`
}

// UploadMedia stores one file answer. With a session_id query parameter the
// resolved value is written through to the live session's answer store;
// without one the file is stored and the tagged value returned for a later
// batch submission.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := chi.URLParam(r, "token")
	questionID := chi.URLParam(r, "questionID")

	if _, err := h.resolver.Resolve(ctx, raw); err != nil {
		h.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "malformed upload"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "file field is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorBody{Error: "unreadable upload"})
		return
	}
	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))

	store, sessionID := h.uploadTarget(r, questionID, w)
	if store == nil {
		return
	}

	m, err := h.media.UploadFile(ctx, store, sessionID, questionID, header.Filename, contentType, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, mediaResponse{Value: m.Tagged()})
}

// uploadTarget picks where the resolved value lands. A nil store means the
// response has already been written.
func (h *Handler) uploadTarget(r *http.Request, questionID string, w http.ResponseWriter) (*answer.Store, string) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		return answer.NewStore(), "direct/" + uuid.NewString()
	}
	sess, ok := h.sessions.Get(sessionID)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "unknown session"})
		return nil, ""
	}
	hasQuestion := false
	for _, q := range sess.Questions() {
		if q.ID == questionID {
			hasQuestion = true
			break
		}
	}
	if !hasQuestion {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorBody{Error: "unknown question"})
		return nil, ""
	}
	return sess.Answers(), sess.ID
}
