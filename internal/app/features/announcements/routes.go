// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes wires the announcement composer, all manager only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireUser, h.Checker.RequireManager)

	r.Get("/guilds", h.ServeGuilds)
	r.Get("/guilds/{guild_id}/channels", h.ServeChannels)
	r.Get("/guilds/{guild_id}/roles", h.ServeRoles)
	r.Get("/guilds/{guild_id}/members/search", h.ServeMemberSearch)
	r.Post("/send", h.ServeSend)
	r.Get("/logs", h.ServeLogs)
	r.Get("/logs/{log_id}", h.ServeLogByID)

	return r
}
