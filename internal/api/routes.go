package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterRoutes mounts the service routes. The chat endpoint answers
// cross-origin callers from corsOrigins ("*" allows any origin).
func RegisterRoutes(mux *chi.Mux, h *Handlers, corsOrigins []string) {
	mux.Get("/healthz", h.Health)
	mux.Get("/version", h.Version)

	mux.Group(func(r chi.Router) {
		r.Use(CORS(corsOrigins))
		r.Get("/api/chat", h.ChatInfo)
		r.Post("/api/chat", h.Chat)
		// preflights are answered by the CORS middleware before this runs
		r.Options("/api/chat", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}
