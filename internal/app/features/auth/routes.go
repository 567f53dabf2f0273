// internal/app/features/auth/routes.go
package auth

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes returns the router for login and session endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// OAuth flow, driven by the browser before a token exists.
	r.Get("/login", h.ServeLogin)
	r.Get("/callback", h.ServeCallback)

	r.Group(func(pr chi.Router) {
		pr.Use(sysauth.RequireUser)

		pr.Get("/me", h.ServeMe)
		pr.Post("/sync-roles", h.ServeSyncRoles)
		pr.Post("/refresh", h.ServeRefresh)
		pr.Post("/logout", h.ServeLogout)
	})

	return r
}
