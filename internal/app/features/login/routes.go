// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/intikhab/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for /auth. It expects the session middleware
// to have run.
func Routes(h *Handler, sm *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignUp)
	r.Post("/signin", h.HandleSignIn)
	r.Post("/signout", h.HandleSignOut)
	r.With(sm.RequireSignedIn).Get("/me", h.ServeMe)
	return r
}
