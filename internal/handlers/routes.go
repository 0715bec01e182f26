package handlers

import (
	"net/http"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/auth"
	"github.com/go-chi/chi/v5"
)

// Register mounts the API routes on r. authenticate attaches the caller's
// identity and runs on every /api/v1 route; tag mutations additionally
// require a user.
func (h *Handler) Register(r chi.Router, authenticate func(http.Handler) http.Handler) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		if authenticate != nil {
			r.Use(authenticate)
		}

		// Global
		r.Get("/global/replay_count", h.GetReplayCount)

		// Replays
		r.Get("/replays", h.SearchReplays)
		r.Get("/replays/{id}", h.GetReplay)
		r.Get("/replays/{id}/positions", h.GetPositions)
		r.Get("/replays/{id}/positions/players/{name}", h.GetPlayerPositions)

		// Players
		r.Get("/players/{player_id}/replays", h.GetPlayerReplays)

		// Tags
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Put("/tags/{name}", h.CreateTag)
			r.Put("/tags/{name}/replays/{id}", h.TagReplay)
			r.Delete("/tags/{name}/replays/{id}", h.UntagReplay)
		})
	})
}
