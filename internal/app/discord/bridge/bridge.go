// Package bridge hands the HTTP layer a process-wide handle on the running
// Discord bot. The bot registers itself after the gateway READY; until then
// every accessor reports ErrUnavailable and the API answers 503 instead of
// touching a half-initialized session.
package bridge

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrUnavailable means the bot is not connected (yet, or anymore).
var ErrUnavailable = errors.New("discord bot is not available")

// MemberInfo is one online member inside a stats snapshot.
type MemberInfo struct {
	DisplayName   string         `json:"display_name"`
	Username      string         `json:"username"`
	Discriminator string         `json:"discriminator,omitempty"`
	DiscordID     string         `json:"discord_id"`
	Avatar        string         `json:"avatar,omitempty"`
	Level         int            `json:"level,omitempty"`
	XP            int            `json:"xp,omitempty"`
	Badges        []string       `json:"badges,omitempty"`
	GuildRoles    []string       `json:"guild_roles,omitempty"`
	IsOnline      bool           `json:"is_online"`
	Permissions   map[string]bool `json:"permissions,omitempty"`
}

// StatsSnapshot is the guild overview the bot refreshes on a fixed cadence.
type StatsSnapshot struct {
	Total           int          `json:"total"`
	Online          int          `json:"online"`
	CEOOnline       []MemberInfo `json:"ceo_online"`
	ManagerOnline   []MemberInfo `json:"manager_online"`
	CommunityOnline []MemberInfo `json:"community_member_online"`
	LastUpdate      time.Time    `json:"last_update"`
}

// GuildInfo is the basic shape of the configured guild.
type GuildInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
	IconURL     string `json:"icon_url,omitempty"`
}

// ChannelInfo is a text channel offered as an announcement target.
type ChannelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Position int    `json:"position"`
}

// RoleInfo is a guild role, for the announcement mention picker.
type RoleInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
}

// Bot is the surface the HTTP layer is allowed to touch.
type Bot interface {
	Ready() bool
	Username() string
	Latency() time.Duration
	Stats() StatsSnapshot
	Guild() (GuildInfo, error)
	Channels() ([]ChannelInfo, error)
	Roles() ([]RoleInfo, error)
	MemberRoleIDs(discordID string) ([]string, error)
	Members() ([]MemberInfo, error)
	SearchMembers(query string, limit int) ([]MemberInfo, error)
	AssignRole(discordID, roleID string) error
	DirectMessage(discordID, content string) error
	Announce(channelID, content string, embed *discordgo.MessageEmbed) (messageID string, err error)
}

var (
	mu  sync.RWMutex
	bot Bot
)

// Set registers the running bot. Called once from startup after READY.
func Set(b Bot) {
	mu.Lock()
	bot = b
	mu.Unlock()
}

// Clear drops the handle during shutdown.
func Clear() {
	mu.Lock()
	bot = nil
	mu.Unlock()
}

// Get returns the bot, or ErrUnavailable when it is absent or not ready.
func Get() (Bot, error) {
	mu.RLock()
	b := bot
	mu.RUnlock()
	if b == nil || !b.Ready() {
		return nil, ErrUnavailable
	}
	return b, nil
}
