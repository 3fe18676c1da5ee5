// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /me. Every route requires a
// signed-in caller.
func Routes(h *Handler, sm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Post("/collection/items", h.HandleAddItem)
	r.Delete("/collection/items/{coupletID}", h.HandleRemoveItem)
	return r
}
