// internal/app/features/discord/handler.go

// Package discord exposes live guild state through the bot bridge. Every
// endpoint that needs the gateway returns 503 until the bot is READY.
package discord

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
)

// Handler holds the bridge-backed guild endpoints.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler constructs the discord Handler.
func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// ServeStats handles GET /discord/stats: the snapshot the bot refreshes
// every few seconds. Served even while the bot is down — the frontend
// widget degrades on zeros rather than erroring.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.OK(w, bridge.StatsSnapshot{
			CEOOnline:       []bridge.MemberInfo{},
			ManagerOnline:   []bridge.MemberInfo{},
			CommunityOnline: []bridge.MemberInfo{},
		})
		return
	}
	httpjson.OK(w, b.Stats())
}

// ServeStatus handles GET /discord/status.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.OK(w, map[string]any{"online": false})
		return
	}
	stats := b.Stats()
	httpjson.OK(w, map[string]any{
		"online":      true,
		"last_update": stats.LastUpdate,
	})
}

// ServeGuildMembers handles GET /discord/guild/members: every human
// member holding a community role, with online state and site profile.
func (h *Handler) ServeGuildMembers(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	members, err := b.Members()
	if err != nil {
		h.Log.Error("guild members: reading guild state failed", zap.Error(err))
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return
	}
	httpjson.OK(w, map[string]any{
		"total_members": len(members),
		"members":       members,
	})
}

// ServeGuilds handles GET /discord/guilds. The bot serves a single
// configured guild, so the list has at most one entry.
func (h *Handler) ServeGuilds(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	g, err := b.Guild()
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return
	}
	httpjson.OK(w, map[string]any{"guilds": []bridge.GuildInfo{g}})
}

// ServeGuildChannels handles GET /discord/guilds/{guild_id}/channels.
func (h *Handler) ServeGuildChannels(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	if !h.guildMatches(b, chi.URLParam(r, "guild_id")) {
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return
	}
	channels, err := b.Channels()
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return
	}
	httpjson.OK(w, map[string]any{"channels": channels})
}

// ServeGuildRoles handles GET /discord/guilds/{guild_id}/roles.
func (h *Handler) ServeGuildRoles(w http.ResponseWriter, r *http.Request) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	if !h.guildMatches(b, chi.URLParam(r, "guild_id")) {
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return
	}
	roles, err := b.Roles()
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return
	}
	httpjson.OK(w, map[string]any{"roles": roles})
}

func (h *Handler) guildMatches(b bridge.Bot, guildID string) bool {
	g, err := b.Guild()
	return err == nil && g.ID == guildID
}

// ServeUser handles GET /discord/user/{discord_id}: the stored site
// profile for a Discord ID. Not bridge-dependent.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.ByDiscordID(ctx, chi.URLParam(r, "discord_id"))
	if err == mongo.ErrNoDocuments {
		httpjson.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		httpjson.Error(w, http.StatusInternalServerError, "could not load user")
		return
	}
	httpjson.OK(w, u)
}
