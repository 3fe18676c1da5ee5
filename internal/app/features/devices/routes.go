// internal/app/features/devices/routes.go
package devices

import (
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /devices.
func Routes(h *Handler, sm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Post("/", h.HandleRegister)
	return r
}
