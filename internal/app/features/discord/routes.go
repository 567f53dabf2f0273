// internal/app/features/discord/routes.go
package discord

import "github.com/go-chi/chi/v5"

// Routes returns the router for live guild state endpoints. All public;
// the data mirrors what any guild member can see in Discord itself.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/stats", h.ServeStats)
	r.Get("/status", h.ServeStatus)
	r.Get("/guild/members", h.ServeGuildMembers)
	r.Get("/guilds", h.ServeGuilds)
	r.Get("/guilds/{guild_id}/channels", h.ServeGuildChannels)
	r.Get("/guilds/{guild_id}/roles", h.ServeGuildRoles)
	r.Get("/user/{discord_id}", h.ServeUser)

	return r
}
