// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /admin. The admin check happens in the
// verification service so refused decisions can be audited.
func Routes(h *Handler, sm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Route("/verification-requests", func(r chi.Router) {
		r.Get("/", h.ServePending)
		r.Post("/{id}/approve", h.HandleApprove)
		r.Post("/{id}/reject", h.HandleReject)
	})
	return r
}
