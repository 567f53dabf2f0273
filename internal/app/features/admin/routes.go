// internal/app/features/admin/routes.go
package admin

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes wires the admin surface. Everything here is admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireUser, h.Checker.RequireAdmin)

	r.Get("/users", h.ServeUsers)
	r.Get("/applications", h.ServeApplications)
	r.Put("/applications/{application_id}/review", h.ServeReview)
	r.Post("/users/{discord_id}/xp", h.ServeAwardXP)
	r.Post("/users/{discord_id}/badge", h.ServeAwardBadge)
	r.Delete("/users/{discord_id}/badge", h.ServeRemoveBadge)
	r.Get("/logs", h.ServeLogs)
	r.Get("/stats", h.ServeStats)

	return r
}
