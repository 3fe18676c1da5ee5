// internal/app/features/collections/routes.go
package collections

import (
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /collections.
func Routes(h *Handler, sm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Get("/{userID}/{name}/items", h.ServeItems)
	r.With(sm.RequireSignedIn).Post("/{userID}/{name}/follow", h.HandleFollow)
	return r
}
