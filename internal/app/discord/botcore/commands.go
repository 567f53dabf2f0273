package botcore

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// registerCommands overwrites the guild's slash command set on READY, so
// removed commands disappear without a manual cleanup step.
func (b *Bot) registerCommands() error {
	defs := []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Check bot latency"},
		{Name: "stats", Description: "Show server statistics"},
		{Name: "help", Description: "Show bot commands"},
		{Name: "apply", Description: "Get the application link"},
		{Name: "events", Description: "Show upcoming events"},
		{
			Name:        "announce",
			Description: "Make an announcement (Admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Channel to announce in",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "Announcement text",
					Required:    true,
				},
			},
		},
		{
			Name:        "play",
			Description: "Play a song in your voice channel",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "song",
				Description: "Song name or JioSaavn link",
				Required:    true,
			}},
		},
		{
			Name:        "playlist",
			Description: "Play a playlist in your voice channel",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "playlist",
				Description: "Playlist name or JioSaavn link",
				Required:    true,
			}},
		},
		{
			Name:        "album",
			Description: "Play an album in your voice channel",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "album",
				Description: "Album name or JioSaavn link",
				Required:    true,
			}},
		},
		{Name: "skip", Description: "Skip to the next song"},
		{Name: "queue", Description: "Show the current queue"},
		{Name: "stop", Description: "Stop playback and clear the queue"},
		{Name: "leave", Description: "Leave the voice channel"},
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.cfg.GuildID, defs)
	return err
}

func (b *Bot) commandHandlers() map[string]commandHandler {
	return map[string]commandHandler{
		"ping":     b.cmdPing,
		"stats":    b.cmdStats,
		"help":     b.cmdHelp,
		"apply":    b.cmdApply,
		"events":   b.cmdEvents,
		"announce": b.cmdAnnounce,
		"play":     b.cmdPlay,
		"playlist": b.cmdPlaylist,
		"album":    b.cmdAlbum,
		"skip":     b.cmdSkip,
		"queue":    b.cmdQueue,
		"stop":     b.cmdStop,
		"leave":    b.cmdLeave,
	}
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if err != nil {
		b.logger.Warn("responding to interaction", zap.Error(err))
	}
}

func (b *Bot) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
	if err != nil {
		b.logger.Warn("responding to interaction", zap.Error(err))
	}
}

func (b *Bot) cmdPing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🏓 Pong!",
		Description: fmt.Sprintf("Latency: %dms", s.HeartbeatLatency().Milliseconds()),
		Color:       embedColor,
	})
}

func (b *Bot) cmdStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guild, err := s.State.Guild(b.cfg.GuildID)
	if err != nil {
		b.respondText(s, i, "❌ Guild data not available yet.")
		return
	}

	online := 0
	for _, p := range guild.Presences {
		if p.Status != discordgo.StatusOffline {
			online++
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: "📊 Server Statistics",
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Members", Value: fmt.Sprint(guild.MemberCount), Inline: true},
			{Name: "Online", Value: fmt.Sprint(online), Inline: true},
			{Name: "Channels", Value: fmt.Sprint(len(guild.Channels)), Inline: true},
			{Name: "Roles", Value: fmt.Sprint(len(guild.Roles)), Inline: true},
			{Name: "Boost Level", Value: fmt.Sprint(guild.PremiumTier), Inline: true},
			{Name: "Boosts", Value: fmt.Sprint(guild.PremiumSubscriptionCount), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Server ID: " + guild.ID},
	}
	if guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("256")}
	}
	b.respondEmbed(s, i, embed)
}

func (b *Bot) cmdHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	entries := []struct{ cmd, desc string }{
		{"/ping", "Check bot latency"},
		{"/stats", "Show server statistics"},
		{"/apply", "Get the application link"},
		{"/events", "Show upcoming events"},
		{"/play", "Play a song in your voice channel"},
		{"/playlist", "Play a playlist"},
		{"/album", "Play an album"},
		{"/queue", "Show the current queue"},
		{"/skip", "Skip to the next song"},
		{"/stop", "Stop playback and clear the queue"},
		{"/leave", "Leave the voice channel"},
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🤖 Maestros Bot Commands",
		Description: "Here are the available commands:",
		Color:       embedColor,
	}
	for _, e := range entries {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: e.cmd, Value: e.desc})
	}
	b.respondEmbed(s, i, embed)
}

func (b *Bot) cmdApply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📝 Apply to Maestros",
		Description: "Ready to join our elite community? Apply now!",
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Application Portal",
				Value: "[Click here to apply](" + b.cfg.FrontendURL + "/apply)",
			},
			{
				Name:  "Requirements",
				Value: "• Active Discord member\n• Positive attitude\n• Team player\n• Gaming experience",
			},
		},
	})
}

func (b *Bot) cmdEvents(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	upcoming, err := b.events.Upcoming(ctx, 5)
	if err != nil {
		b.respondText(s, i, "❌ Could not load events.")
		return
	}
	if len(upcoming) == 0 {
		b.respondText(s, i, "No upcoming events at the moment.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:  "📅 Upcoming Events",
		Color:  embedColor,
		Footer: &discordgo.MessageEmbedFooter{Text: "Visit the website to register"},
	}
	for _, e := range upcoming {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: e.Title,
			Value: fmt.Sprintf("📅 %s\n🎮 %s\n👥 %d/%d\n🏆 %s",
				e.Date.UTC().Format("2006-01-02 15:04 UTC"),
				orNA(e.Game), len(e.Participants), e.MaxParticipants, orNA(e.Prize)),
		})
	}
	b.respondEmbed(s, i, embed)
}

func (b *Bot) cmdAnnounce(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		b.respondText(s, i, "❌ You don't have permission to use this command.")
		return
	}

	opts := optionMap(i)
	channel := opts["channel"].ChannelValue(s)
	message := opts["message"].StringValue()

	embed := &discordgo.MessageEmbed{
		Title:       "📢 Announcement",
		Description: message,
		Color:       embedColor,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "By " + i.Member.User.Username},
	}
	_, err := s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content: "@everyone",
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		b.logger.Warn("sending announcement", zap.Error(err))
		b.respondText(s, i, "❌ Failed to send the announcement.")
		return
	}
	b.respondText(s, i, "✅ Announcement sent to <#"+channel.ID+">")
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
