package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"leadform/internal/handler"
	"leadform/internal/middleware"
)

func NewMux(h *handler.Handler) http.Handler {
	root := chi.NewRouter()
	root.Use(chimiddleware.RequestID, chimiddleware.Recoverer)

	root.Route("/s/{token}", func(r chi.Router) {
		r.Get("/", h.GetQuestionnaire)
		r.Post("/submit", h.SubmitQuestionnaire)
		r.Post("/media/{questionID}", h.UploadMedia)
		r.Get("/chat", h.ChatSession)
	})

	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(root)
}
