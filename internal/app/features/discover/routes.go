// internal/app/features/discover/routes.go
package discover

import "github.com/go-chi/chi/v5"

// Routes returns the public discover router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/collections", h.ServeCollections)
	r.Get("/couplets", h.ServeCouplets)
	return r
}
