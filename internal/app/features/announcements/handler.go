// internal/app/features/announcements/handler.go

// Package announcements lets managers compose rich Discord announcements
// from the site: guild/channel/role discovery for the editor, sending
// through the bot, and a full audit trail of every attempt.
package announcements

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	announcementstore "github.com/maestros-community/backend/internal/app/store/announcements"
	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
	"github.com/maestros-community/backend/internal/app/system/authz"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/paging"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
	"github.com/maestros-community/backend/internal/domain/models"
)

// defaultEmbedColor is Discord blurple.
const defaultEmbedColor = 0x5865F2

// Handler holds the announcement dependencies.
type Handler struct {
	Logs    *announcementstore.Store
	Checker *authz.Checker
	Log     *zap.Logger
}

func NewHandler(logs *announcementstore.Store, checker *authz.Checker, logger *zap.Logger) *Handler {
	return &Handler{Logs: logs, Checker: checker, Log: logger}
}

func botOrFail(w http.ResponseWriter) (bridge.Bot, bool) {
	b, err := bridge.Get()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return nil, false
	}
	return b, true
}

// guildOrFail resolves the {guild_id} path param against the one guild
// the bot serves.
func guildOrFail(w http.ResponseWriter, r *http.Request, b bridge.Bot) (bridge.GuildInfo, bool) {
	g, err := b.Guild()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return bridge.GuildInfo{}, false
	}
	if g.ID != chi.URLParam(r, "guild_id") {
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return bridge.GuildInfo{}, false
	}
	return g, true
}

// ServeGuilds handles GET /announcements/guilds.
func (h *Handler) ServeGuilds(w http.ResponseWriter, r *http.Request) {
	b, ok := botOrFail(w)
	if !ok {
		return
	}
	g, err := b.Guild()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	httpjson.OK(w, map[string]any{"guilds": []bridge.GuildInfo{g}})
}

// ServeChannels handles GET /announcements/guilds/{guild_id}/channels.
func (h *Handler) ServeChannels(w http.ResponseWriter, r *http.Request) {
	b, ok := botOrFail(w)
	if !ok {
		return
	}
	if _, ok := guildOrFail(w, r, b); !ok {
		return
	}
	channels, err := b.Channels()
	if err != nil {
		httpjson.Error(w, http.StatusBadGateway, "could not list channels")
		return
	}
	httpjson.OK(w, map[string]any{"channels": channels})
}

// ServeRoles handles GET /announcements/guilds/{guild_id}/roles.
func (h *Handler) ServeRoles(w http.ResponseWriter, r *http.Request) {
	b, ok := botOrFail(w)
	if !ok {
		return
	}
	if _, ok := guildOrFail(w, r, b); !ok {
		return
	}
	roles, err := b.Roles()
	if err != nil {
		httpjson.Error(w, http.StatusBadGateway, "could not list roles")
		return
	}
	httpjson.OK(w, map[string]any{"roles": roles})
}

// ServeMemberSearch handles GET /announcements/guilds/{guild_id}/members/search.
func (h *Handler) ServeMemberSearch(w http.ResponseWriter, r *http.Request) {
	b, ok := botOrFail(w)
	if !ok {
		return
	}
	if _, ok := guildOrFail(w, r, b); !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		httpjson.Error(w, http.StatusBadRequest, "Search query is required")
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	members, err := b.SearchMembers(query, limit)
	if err != nil {
		httpjson.Error(w, http.StatusBadGateway, "could not search members")
		return
	}
	httpjson.OK(w, map[string]any{"members": members, "count": len(members)})
}

type sendRequest struct {
	GuildID   string          `json:"guild_id"`
	ChannelID string          `json:"channel_id"`
	Content   string          `json:"content"`
	Embed     models.Embed    `json:"embed"`
	Mentions  models.Mentions `json:"mentions"`
}

// parseColor turns "#5865F2" (or "5865F2") into the embed color int.
func parseColor(hex string) int {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if s == "" {
		return defaultEmbedColor
	}
	n, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return defaultEmbedColor
	}
	return int(n)
}

// buildEmbed converts the composer's embed into the discordgo shape.
// Returns nil when the embed carries nothing to render.
func buildEmbed(e models.Embed) *discordgo.MessageEmbed {
	if e.Title == "" && e.Description == "" && len(e.Fields) == 0 &&
		e.ImageURL == "" && e.ThumbnailURL == "" {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       parseColor(e.Color),
	}
	if e.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	if e.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	if e.FooterText != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    e.FooterText,
			IconURL: e.FooterIconURL,
		}
	}
	if e.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    e.AuthorName,
			IconURL: e.AuthorIconURL,
		}
	}
	if e.Timestamp {
		embed.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}

// mentionString builds the ping line that precedes the embed.
func mentionString(m models.Mentions) string {
	var parts []string
	if m.Everyone {
		parts = append(parts, "@everyone")
	}
	if m.Here {
		parts = append(parts, "@here")
	}
	for _, id := range m.RoleIDs {
		parts = append(parts, fmt.Sprintf("<@&%s>", id))
	}
	for _, id := range m.UserIDs {
		parts = append(parts, fmt.Sprintf("<@%s>", id))
	}
	return strings.Join(parts, " ")
}

// embedSummary is the compact form stored in the audit log.
func embedSummary(e models.Embed) map[string]any {
	desc := e.Description
	if len(desc) > 100 {
		desc = desc[:100]
	}
	return map[string]any{
		"title":        e.Title,
		"description":  desc,
		"fields_count": len(e.Fields),
	}
}

// ServeSend handles POST /announcements/send.
func (h *Handler) ServeSend(w http.ResponseWriter, r *http.Request) {
	manager, _ := sysauth.CurrentUser(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var req sendRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ChannelID == "" {
		httpjson.Error(w, http.StatusBadRequest, "Channel is required")
		return
	}

	b, err := bridge.Get()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	guild, err := b.Guild()
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Discord bot not connected")
		return
	}
	if req.GuildID != "" && req.GuildID != guild.ID {
		httpjson.Error(w, http.StatusNotFound, "Guild not found")
		return
	}

	channels, err := b.Channels()
	if err != nil {
		httpjson.Error(w, http.StatusBadGateway, "could not list channels")
		return
	}
	channelName := ""
	for _, ch := range channels {
		if ch.ID == req.ChannelID {
			channelName = ch.Name
			break
		}
	}
	if channelName == "" {
		httpjson.Error(w, http.StatusNotFound, "Channel not found")
		return
	}

	embed := buildEmbed(req.Embed)
	content := req.Content
	if pings := mentionString(req.Mentions); pings != "" {
		if content != "" {
			content = pings + "\n" + content
		} else {
			content = pings
		}
	}
	if embed == nil && strings.TrimSpace(content) == "" {
		httpjson.Error(w, http.StatusBadRequest, "Announcement needs content or an embed")
		return
	}

	audit := &models.AnnouncementLog{
		ManagerID:       manager.DiscordID,
		ManagerUsername: manager.Username,
		GuildID:         guild.ID,
		GuildName:       guild.Name,
		ChannelID:       req.ChannelID,
		ChannelName:     channelName,
		EmbedSummary:    embedSummary(req.Embed),
		Mentions:        req.Mentions,
		Content:         req.Content,
	}

	msgID, err := b.Announce(req.ChannelID, content, embed)
	if err != nil {
		audit.Success = false
		audit.ErrorMessage = err.Error()
		if recErr := h.Logs.Record(ctx, audit); recErr != nil {
			h.Log.Warn("recording failed announcement failed", zap.Error(recErr))
		}
		h.Log.Error("announcement failed",
			zap.String("channel_id", req.ChannelID), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "could not send announcement")
		return
	}

	audit.Success = true
	if err := h.Logs.Record(ctx, audit); err != nil {
		h.Log.Warn("recording announcement failed", zap.Error(err))
	}

	h.Log.Info("announcement sent",
		zap.String("manager_id", manager.DiscordID),
		zap.String("channel", channelName),
		zap.String("message_id", msgID))

	httpjson.OK(w, map[string]any{
		"success":      true,
		"message_id":   msgID,
		"channel_name": channelName,
		"guild_name":   guild.Name,
		"message_url": fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
			guild.ID, req.ChannelID, msgID),
	})
}

// ServeLogs handles GET /announcements/logs.
func (h *Handler) ServeLogs(w http.ResponseWriter, r *http.Request) {
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	logs, err := h.Logs.Recent(ctx, r.URL.Query().Get("manager_id"), page.Limit, page.Skip)
	if err != nil {
		h.Log.Error("announcement logs: query failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load logs")
		return
	}
	httpjson.OK(w, map[string]any{"logs": logs, "count": len(logs)})
}

// ServeLogByID handles GET /announcements/logs/{log_id}.
func (h *Handler) ServeLogByID(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "log_id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Invalid log ID")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	log, err := h.Logs.ByID(ctx, id)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "Log not found")
		return
	}
	httpjson.OK(w, log)
}
