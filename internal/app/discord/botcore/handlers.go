package botcore

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const embedColor = 0xFFD363

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("discord bot connected",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))

	if err := s.UpdateWatchStatus(0, b.cfg.Status); err != nil {
		b.logger.Warn("setting presence", zap.Error(err))
	}

	if err := b.registerCommands(); err != nil {
		b.logger.Error("registering slash commands", zap.Error(err))
	}

	// Pull the full member list so stats and role sync see everyone, not
	// just members who have been active since the gateway connected.
	if err := s.RequestGuildMembers(b.cfg.GuildID, "", 0, "", false); err != nil {
		b.logger.Warn("requesting guild members", zap.Error(err))
	}

	b.ready.Store(true)
	b.logger.Info("discord bot ready")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	handler, ok := b.commands[name]
	if !ok {
		b.logger.Warn("unknown slash command", zap.String("name", name))
		return
	}
	handler(s, i)
}

func (b *Bot) onMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.syslogs.Record(ctx, "member_join", "info", map[string]any{
		"user_id":  m.User.ID,
		"username": m.User.Username,
		"guild_id": m.GuildID,
	}); err != nil {
		b.logger.Warn("logging member join", zap.Error(err))
	}

	guild, err := s.State.Guild(m.GuildID)
	if err != nil || guild.SystemChannelID == "" {
		return
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🎮 Welcome to Maestros!",
		Description: "Welcome <@" + m.User.ID + ">! Check out the rules and introduce yourself!",
		Color:       embedColor,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: m.User.AvatarURL("256")},
	}
	if _, err := s.ChannelMessageSendEmbed(guild.SystemChannelID, embed); err != nil {
		b.logger.Warn("sending welcome message", zap.Error(err))
	}
}

func (b *Bot) onMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.syslogs.Record(ctx, "member_leave", "info", map[string]any{
		"user_id":  m.User.ID,
		"username": m.User.Username,
		"guild_id": m.GuildID,
	}); err != nil {
		b.logger.Warn("logging member leave", zap.Error(err))
	}
}

// presenceLoop rotates the watching status between the configured text and
// a live member count.
func (b *Bot) presenceLoop(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	flip := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if !b.ready.Load() {
			continue
		}

		status := b.cfg.Status
		if flip {
			if guild, err := b.session.State.Guild(b.cfg.GuildID); err == nil {
				status = formatMemberCount(guild.MemberCount)
			}
		}
		flip = !flip

		if err := b.session.UpdateWatchStatus(0, status); err != nil {
			b.logger.Warn("rotating presence", zap.Error(err))
		}
	}
}
