package botcore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/discord/music"
	"github.com/maestros-community/backend/internal/app/music/saavn"
)

const (
	nowPlayingColor = 0x1DB954
	playlistColor   = 0x9B59B6
	albumColor      = 0xFFD700
)

// voiceChannelOf finds the voice channel the invoking member is in.
func (b *Bot) voiceChannelOf(s *discordgo.Session, i *discordgo.InteractionCreate) (string, bool) {
	vs, err := s.State.VoiceState(b.cfg.GuildID, i.Member.User.ID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

func (b *Bot) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.logger.Warn("deferring interaction", zap.Error(err))
		return false
	}
	return true
}

func (b *Bot) followupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		b.logger.Warn("sending followup", zap.Error(err))
	}
}

func errorEmbed(desc string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: "❌ Error", Description: desc, Color: 0xE74C3C}
}

func songEmbed(title string, color int, song saavn.Song, requester, channelName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: "**" + song.Title + "**",
		Color:       color,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: song.Image},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💿 Album", Value: orNA(song.Album), Inline: true},
			{Name: "📅 Year", Value: orNA(song.Year), Inline: true},
			{Name: "⏱️ Duration", Value: fmt.Sprintf("%.2f min", song.Duration), Inline: true},
			{Name: "🎼 Music", Value: orNA(song.Music), Inline: true},
			{Name: "📢 Channel", Value: orNA(channelName), Inline: true},
			{Name: "🎤 Singers", Value: orNA(song.Singers)},
			{Name: "👤 Requested by", Value: requester},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "🎶 Enjoy the music!"},
	}
}

func (b *Bot) cmdPlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !b.deferResponse(s, i) {
		return
	}
	channelID, ok := b.voiceChannelOf(s, i)
	if !ok {
		b.followupEmbed(s, i, errorEmbed("You must be in a voice channel to use this command!"))
		return
	}

	query := optionMap(i)["song"].StringValue()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	songs, err := b.saavn.SearchSongs(ctx, query, false)
	if err != nil {
		b.followupEmbed(s, i, errorEmbed("Could not find: **"+query+"**"))
		return
	}
	song := songs[0]

	_, wasPlaying := b.player.NowPlaying(i.GuildID)
	if err := b.startPlayback(i.GuildID, channelID, trackOf(song)); err != nil {
		b.followupEmbed(s, i, errorEmbed("Could not join the voice channel."))
		return
	}

	channelName := b.channelName(channelID)
	if wasPlaying {
		embed := songEmbed("➕ Added to Queue", 0x3498DB, song, i.Member.Mention(), channelName)
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "🎶 Added to queue"}
		b.followupEmbed(s, i, embed)
		return
	}
	b.followupEmbed(s, i, songEmbed("🎵 Now Playing", nowPlayingColor, song, i.Member.Mention(), channelName))
}

func (b *Bot) cmdPlaylist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.playCollection(s, i, "playlist")
}

func (b *Bot) cmdAlbum(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.playCollection(s, i, "album")
}

// playCollection handles /playlist and /album, which differ only in the
// lookup and the embed dressing.
func (b *Bot) playCollection(s *discordgo.Session, i *discordgo.InteractionCreate, kind string) {
	if !b.deferResponse(s, i) {
		return
	}
	channelID, ok := b.voiceChannelOf(s, i)
	if !ok {
		b.followupEmbed(s, i, errorEmbed("You must be in a voice channel!"))
		return
	}

	query := optionMap(i)[kind].StringValue()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var list *saavn.SongList
	var err error
	if kind == "playlist" {
		list, err = b.saavn.Playlist(ctx, query, false)
	} else {
		list, err = b.saavn.Album(ctx, query, false)
	}
	if err != nil {
		b.followupEmbed(s, i, errorEmbed("Could not find "+kind+": **"+query+"**"))
		return
	}

	tracks := make([]music.Track, 0, len(list.Songs))
	for _, song := range list.Songs {
		tracks = append(tracks, trackOf(song))
	}
	if err := b.startPlayback(i.GuildID, channelID, tracks...); err != nil {
		b.followupEmbed(s, i, errorEmbed("Could not join the voice channel."))
		return
	}

	title, color, label := "📀 Playlist - Now Playing", playlistColor, "Playlist"
	if kind == "album" {
		title, color, label = "💿 Album - Now Playing", albumColor, "Album"
	}
	embed := songEmbed(title, color, list.Songs[0], i.Member.Mention(), b.channelName(channelID))
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "🎶 " + label, Value: list.Name,
	})
	b.followupEmbed(s, i, embed)
}

func (b *Bot) startPlayback(guildID, channelID string, tracks ...music.Track) error {
	if err := b.player.Join(guildID, channelID); err != nil {
		return err
	}
	return b.player.Enqueue(guildID, tracks...)
}

func (b *Bot) cmdSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := b.player.Skip(i.GuildID); err != nil {
		b.respondText(s, i, "❌ Nothing is playing.")
		return
	}
	b.respondText(s, i, "⏭️ Skipped!")
}

func (b *Bot) cmdQueue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	titles := b.player.QueueTitles(i.GuildID, 10)
	total := b.player.QueueLen(i.GuildID)
	if total == 0 {
		b.respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "📋 Queue Empty",
			Description: "No songs in queue. Use `/play` to add some!",
			Color:       0x95A5A6,
		})
		return
	}

	var sb strings.Builder
	for idx, title := range titles {
		fmt.Fprintf(&sb, "**%d.** %s\n", idx+1, title)
	}
	footer := fmt.Sprintf("Total: %d songs", total)
	if total > 10 {
		footer += " (showing first 10)"
	}
	b.respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "📋 Current Queue",
		Description: sb.String(),
		Color:       0x3498DB,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	})
}

func (b *Bot) cmdStop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := b.player.Stop(i.GuildID); err != nil {
		b.respondText(s, i, "❌ Nothing is playing.")
		return
	}
	b.respondText(s, i, "⏹️ Playback stopped and queue cleared.")
}

func (b *Bot) cmdLeave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := b.player.Leave(i.GuildID); err != nil {
		b.respondText(s, i, "❌ Not in a voice channel.")
		return
	}
	b.respondText(s, i, "👋 Left the voice channel.")
}

func (b *Bot) channelName(channelID string) string {
	if ch, err := b.session.State.Channel(channelID); err == nil {
		return ch.Name
	}
	return ""
}

func trackOf(song saavn.Song) music.Track {
	return music.Track{Title: song.Title, MediaURL: song.MediaURL, Song: song}
}
