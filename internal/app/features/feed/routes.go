// internal/app/features/feed/routes.go
package feed

import (
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /feed.
func Routes(h *Handler, sm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Get("/couplets", h.ServePage)
	r.Group(func(r chi.Router) {
		r.Use(sm.RequireSignedIn)
		r.Post("/couplets/next", h.HandleNext)
		r.Post("/couplets/reset", h.HandleReset)
	})
	return r
}
