// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes returns the router for profile and leaderboard endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public profiles and the leaderboard.
	r.Get("/leaderboard/xp", h.ServeLeaderboard)
	r.Get("/{user_id}", h.ServeByID)

	r.Group(func(pr chi.Router) {
		pr.Use(sysauth.RequireUser)

		pr.Get("/me", h.ServeMe)
		pr.Get("/dashboard", h.ServeDashboard)
		pr.Put("/update", h.ServeUpdate)
		pr.Post("/add-xp", h.ServeAddXP)
	})

	return r
}
