// internal/app/features/poets/routes.go
package poets

import (
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Get("/{poetID}", h.ServePoet)
	r.With(sm.RequireSignedIn).Post("/{poetID}/follow", h.HandleFollow)
	return r
}
