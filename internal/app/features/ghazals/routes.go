// internal/app/features/ghazals/routes.go
package ghazals

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /ghazals.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{ghazalID}", h.ServeGhazal)
	return r
}
