// Package botcore runs the community's Discord bot inside the API process:
// gateway session, slash commands, guild stats collection, role sync, and
// voice playback.
package botcore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/maestros-community/backend/internal/app/discord/bridge"
	"github.com/maestros-community/backend/internal/app/discord/music"
	"github.com/maestros-community/backend/internal/app/music/saavn"
	eventstore "github.com/maestros-community/backend/internal/app/store/events"
	syslogstore "github.com/maestros-community/backend/internal/app/store/syslogs"
	userstore "github.com/maestros-community/backend/internal/app/store/users"
	"github.com/maestros-community/backend/internal/app/system/authz"
)

// Config carries everything the bot needs at construction time.
type Config struct {
	Token       string
	GuildID     string
	Status      string
	FrontendURL string
}

// Deps are the shared services the bot works against.
type Deps struct {
	Users   *userstore.Store
	Events  *eventstore.Store
	Syslogs *syslogstore.Store
	Saavn   *saavn.Client
	Checker *authz.Checker
	Logger  *zap.Logger
}

// Bot is the running Discord bot. It satisfies bridge.Bot.
type Bot struct {
	cfg     Config
	session *discordgo.Session
	player  *music.Player

	users   *userstore.Store
	events  *eventstore.Store
	syslogs *syslogstore.Store
	saavn   *saavn.Client
	checker *authz.Checker
	logger  *zap.Logger

	ready atomic.Bool

	statsMu sync.RWMutex
	stats   bridge.StatsSnapshot

	commands map[string]commandHandler
}

type commandHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)

// New builds the bot and its session but does not connect.
func New(cfg Config, deps Deps) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsGuildVoiceStates

	b := &Bot{
		cfg:     cfg,
		session: session,
		player:  music.NewPlayer(session, deps.Logger),
		users:   deps.Users,
		events:  deps.Events,
		syslogs: deps.Syslogs,
		saavn:   deps.Saavn,
		checker: deps.Checker,
		logger:  deps.Logger,
	}
	b.commands = b.commandHandlers()

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMemberJoin)
	session.AddHandler(b.onMemberRemove)

	return b, nil
}

// Run opens the gateway and drives the background loops until ctx is
// canceled. It blocks; callers run it in a goroutine.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer func() {
		b.ready.Store(false)
		if err := b.session.Close(); err != nil {
			b.logger.Warn("closing discord session", zap.Error(err))
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.statsLoop(ctx) })
	g.Go(func() error { return b.roleSyncLoop(ctx) })
	g.Go(func() error { return b.presenceLoop(ctx) })

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

// Ready reports whether the gateway READY has arrived.
func (b *Bot) Ready() bool { return b.ready.Load() }

// Username is the bot account's name, empty before READY.
func (b *Bot) Username() string {
	if b.session.State.User == nil {
		return ""
	}
	return b.session.State.User.Username
}

// Latency is the gateway heartbeat round trip.
func (b *Bot) Latency() time.Duration { return b.session.HeartbeatLatency() }

// Stats returns the latest guild snapshot.
func (b *Bot) Stats() bridge.StatsSnapshot {
	b.statsMu.RLock()
	defer b.statsMu.RUnlock()
	return b.stats
}

// Guild describes the configured guild.
func (b *Bot) Guild() (bridge.GuildInfo, error) {
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return bridge.GuildInfo{}, err
	}
	info := bridge.GuildInfo{
		ID:          guild.ID,
		Name:        guild.Name,
		MemberCount: guild.MemberCount,
	}
	if guild.Icon != "" {
		info.IconURL = guild.IconURL("256")
	}
	return info, nil
}

// Channels lists the guild's text channels, ordered by position.
func (b *Bot) Channels() ([]bridge.ChannelInfo, error) {
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]string)
	for _, ch := range guild.Channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories[ch.ID] = ch.Name
		}
	}

	var channels []bridge.ChannelInfo
	for _, ch := range guild.Channels {
		if ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews {
			continue
		}
		channels = append(channels, bridge.ChannelInfo{
			ID:       ch.ID,
			Name:     ch.Name,
			Category: categories[ch.ParentID],
			Position: ch.Position,
		})
	}
	return channels, nil
}

// Roles lists the guild's roles for the mention picker, skipping @everyone.
func (b *Bot) Roles() ([]bridge.RoleInfo, error) {
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return nil, err
	}
	var roles []bridge.RoleInfo
	for _, r := range guild.Roles {
		if r.ID == guild.ID { // @everyone shares the guild ID
			continue
		}
		roles = append(roles, bridge.RoleInfo{
			ID:       r.ID,
			Name:     r.Name,
			Color:    r.Color,
			Position: r.Position,
		})
	}
	return roles, nil
}

// MemberRoleIDs fetches a member's current role IDs from the guild.
func (b *Bot) MemberRoleIDs(discordID string) ([]string, error) {
	member, err := b.session.State.Member(b.cfg.GuildID, discordID)
	if err != nil {
		member, err = b.session.GuildMember(b.cfg.GuildID, discordID)
		if err != nil {
			return nil, err
		}
	}
	if member.Roles == nil {
		return []string{}, nil
	}
	return member.Roles, nil
}

// Members returns every human member of the guild that carries one of the
// configured community roles, with their online state. Reads the session
// state cache; RequestGuildMembers on READY keeps it warm.
func (b *Bot) Members() ([]bridge.MemberInfo, error) {
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return nil, err
	}

	online := make(map[string]bool, len(guild.Presences))
	for _, p := range guild.Presences {
		if p.Status != discordgo.StatusOffline {
			online[p.User.ID] = true
		}
	}

	members := []bridge.MemberInfo{}
	for _, m := range guild.Members {
		if m.User.Bot {
			continue
		}
		if !hasRoleID(m.Roles, b.checker.CEORoleID()) &&
			!hasRoleID(m.Roles, b.checker.ManagerRoleID()) &&
			!hasRoleID(m.Roles, b.checker.MemberRoleID()) {
			continue
		}
		info := b.memberInfo(context.Background(), m)
		info.GuildRoles = m.Roles
		info.IsOnline = online[m.User.ID]
		members = append(members, info)
	}
	return members, nil
}

// SearchMembers finds guild members whose username or display name
// contains the query, for the announcement mention picker.
func (b *Bot) SearchMembers(query string, limit int) ([]bridge.MemberInfo, error) {
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	q := strings.ToLower(query)
	matches := []bridge.MemberInfo{}
	for _, m := range guild.Members {
		if m.User.Bot {
			continue
		}
		display := m.Nick
		if display == "" {
			display = m.User.Username
		}
		if !strings.Contains(strings.ToLower(m.User.Username), q) &&
			!strings.Contains(strings.ToLower(display), q) {
			continue
		}
		info := bridge.MemberInfo{
			DisplayName: display,
			Username:    m.User.Username,
			DiscordID:   m.User.ID,
			Avatar:      m.User.Avatar,
		}
		if m.User.Discriminator != "0" {
			info.Discriminator = m.User.Discriminator
		}
		matches = append(matches, info)
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// AssignRole grants a guild role to a member.
func (b *Bot) AssignRole(discordID, roleID string) error {
	return b.session.GuildMemberRoleAdd(b.cfg.GuildID, discordID, roleID)
}

// DirectMessage sends a DM to a user. Fails silently for users whose
// privacy settings block DMs from server bots; callers treat that as
// best-effort.
func (b *Bot) DirectMessage(discordID, content string) error {
	ch, err := b.session.UserChannelCreate(discordID)
	if err != nil {
		return err
	}
	_, err = b.session.ChannelMessageSend(ch.ID, content)
	return err
}

// Announce sends a message with an optional embed to a channel and returns
// the message ID.
func (b *Bot) Announce(channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	send := &discordgo.MessageSend{Content: content}
	if embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}
	msg, err := b.session.ChannelMessageSendComplex(channelID, send)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}
