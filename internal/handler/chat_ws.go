package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"leadform/internal/question"
	"leadform/internal/repository/survey"
	"leadform/internal/session"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type       string `json:"type"`
	QuestionID string `json:"questionId,omitempty"`
	Value      any    `json:"value,omitempty"`
	Index      int    `json:"index,omitempty"`
}

type chatWSOutbound struct {
	Type       string            `json:"type"`
	SessionID  string            `json:"sessionId,omitempty"`
	Question   *questionView     `json:"question,omitempty"`
	Index      int               `json:"index,omitempty"`
	Value      any               `json:"value,omitempty"`
	ResponseID string            `json:"responseId,omitempty"`
	LeadID     string            `json:"leadId,omitempty"`
	Preview    bool              `json:"preview,omitempty"`
	Code       string            `json:"code,omitempty"`
	Message    string            `json:"message,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func questionFrame(q question.Question, index int) chatWSOutbound {
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
	return chatWSOutbound{Type: "question", Question: &qv, Index: index}
}

// ChatSession runs a one-question-at-a-time session over a websocket. The
// session lives for the connection: closing the socket tears it down unless
// it was submitted.
func (h *Handler) ChatSession(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "token")

	id, err := h.resolver.Resolve(r.Context(), raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	qs, err := survey.LoadQuestions(r.Context(), h.surveys, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	preview := r.URL.Query().Get("preview") != "" && h.previewAllowed(r)
	sess, err := session.New(session.Config{
		QuestionnaireID:   id,
		Questions:         qs,
		Mode:              session.ModeChat,
		Preview:           preview,
		Channel:           h.resolveChannel(r.Context(), raw, r.URL.Query().Get("page"), r.Referer()),
		DistributionToken: distributionToken(raw),
		Engine:            h.engine,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.sessions.Put(sess)
	defer func() {
		h.sessions.Remove(sess.ID)
		h.media.Teardown(sess.ID)
		sess.Teardown()
	}()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	sess.Start()
	pushChatWS(ctx, writeCh, chatWSOutbound{Type: "started", SessionID: sess.ID, Preview: sess.Preview})
	if q, ok := sess.Current(); ok {
		pushChatWS(ctx, writeCh, questionFrame(q, sess.Index()))
	}

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushChatWS(ctx, writeCh, chatWSOutbound{Type: "pong"})
		case "answer":
			h.chatAnswer(ctx, writeCh, sess, in)
		case "skip":
			h.chatSkip(ctx, writeCh, sess)
		case "seek":
			h.chatSeek(ctx, writeCh, sess, in.Index)
		case "submit":
			h.chatSubmit(ctx, writeCh, sess)
		default:
			pushChatWS(ctx, writeCh, chatWSOutbound{Type: "error", Code: "invalid_argument", Message: "unknown frame type"})
		}
	}
}

func (h *Handler) chatAnswer(ctx context.Context, writeCh chan<- chatWSOutbound, sess *session.Session, in chatWSInbound) {
	current, ok := sess.Current()
	if !ok {
		pushChatWS(ctx, writeCh, chatWSOutbound{Type: "error", Code: "failed_precondition", Message: "no current question"})
		return
	}
	if err := sess.Answer(in.QuestionID, valueFor(current, in.Value)); err != nil {
		pushChatWS(ctx, writeCh, chatErrorFrame(err))
		return
	}
	h.chatAdvance(ctx, writeCh, sess)
}

func (h *Handler) chatSkip(ctx context.Context, writeCh chan<- chatWSOutbound, sess *session.Session) {
	if err := sess.Skip(); err != nil {
		pushChatWS(ctx, writeCh, chatErrorFrame(err))
		return
	}
	h.chatAdvance(ctx, writeCh, sess)
}

func (h *Handler) chatAdvance(ctx context.Context, writeCh chan<- chatWSOutbound, sess *session.Session) {
	if q, ok := sess.Current(); ok {
		pushChatWS(ctx, writeCh, questionFrame(q, sess.Index()))
		return
	}
	pushChatWS(ctx, writeCh, chatWSOutbound{Type: "done", Index: sess.Index()})
}

func (h *Handler) chatSeek(ctx context.Context, writeCh chan<- chatWSOutbound, sess *session.Session, index int) {
	q, v, err := sess.Seek(index)
	if err != nil {
		pushChatWS(ctx, writeCh, chatErrorFrame(err))
		return
	}
	frame := questionFrame(q, index)
	frame.Value = v.Wire()
	pushChatWS(ctx, writeCh, frame)
}

func (h *Handler) chatSubmit(ctx context.Context, writeCh chan<- chatWSOutbound, sess *session.Session) {
	result, err := h.submit.Submit(ctx, sess)
	if err != nil {
		pushChatWS(ctx, writeCh, chatErrorFrame(err))
		return
	}
	pushChatWS(ctx, writeCh, chatWSOutbound{
		Type:       "submitted",
		ResponseID: result.ResponseID,
		LeadID:     result.LeadID,
		Preview:    result.Preview,
	})
}

func chatErrorFrame(err error) chatWSOutbound {
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Codes))
		for id, code := range verr.Codes {
			fields[id] = string(code)
		}
		return chatWSOutbound{Type: "error", Code: "invalid_answer", Message: "validation failed", Fields: fields}
	case errors.Is(err, session.ErrCannotSkip):
		return chatWSOutbound{Type: "error", Code: "required", Message: "question is required"}
	case errors.Is(err, session.ErrNotCurrent):
		return chatWSOutbound{Type: "error", Code: "out_of_turn", Message: "not the current question"}
	case errors.Is(err, session.ErrPreviewOnly), errors.Is(err, session.ErrBadIndex):
		return chatWSOutbound{Type: "error", Code: "invalid_argument", Message: err.Error()}
	case errors.Is(err, session.ErrTerminal):
		return chatWSOutbound{Type: "error", Code: "already_submitted", Message: "already submitted"}
	case errors.Is(err, session.ErrNotTerminal):
		return chatWSOutbound{Type: "error", Code: "questions_remain", Message: "answer every question before submitting"}
	default:
		return chatWSOutbound{Type: "error", Code: "internal", Message: "submission failed, try again"}
	}
}

// pushChatWS blocks until the writer goroutine takes the frame or the
// connection is gone. Dropping frames would desynchronize the client from
// the transcript.
func pushChatWS(ctx context.Context, ch chan<- chatWSOutbound, out chatWSOutbound) {
	select {
	case ch <- out:
	case <-ctx.Done():
	}
}
