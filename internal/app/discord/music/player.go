// Package music implements per-guild voice playback: a queue of JioSaavn
// media URLs streamed through ffmpeg/dca into a Discord voice connection.
package music

import (
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/jonas747/dca"
	"go.uber.org/zap"
)

var (
	ErrNotPlaying = errors.New("nothing is playing")
	ErrNotInVoice = errors.New("not connected to a voice channel")
)

// Player manages one playback pipeline per guild.
type Player struct {
	session *discordgo.Session
	logger  *zap.Logger

	mu     sync.Mutex
	guilds map[string]*guildPlayer
}

type guildPlayer struct {
	queue Queue

	mu         sync.Mutex
	vc         *discordgo.VoiceConnection
	nowPlaying *Track
	playing    bool
	// gen identifies the current playback loop. A loop that has been
	// superseded by Stop+Enqueue must not touch the new loop's state.
	gen  uint64
	skip chan struct{}
	stop chan struct{}
}

// finish clears playback state on loop exit, unless a newer loop has
// already taken over.
func (gp *guildPlayer) finish(gen uint64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if gp.gen != gen {
		return
	}
	gp.playing = false
	gp.nowPlaying = nil
}

func NewPlayer(session *discordgo.Session, logger *zap.Logger) *Player {
	return &Player{
		session: session,
		logger:  logger,
		guilds:  make(map[string]*guildPlayer),
	}
}

func (p *Player) guild(guildID string) *guildPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	gp, ok := p.guilds[guildID]
	if !ok {
		gp = &guildPlayer{}
		p.guilds[guildID] = gp
	}
	return gp
}

// Join connects (or moves) the bot to a voice channel.
func (p *Player) Join(guildID, channelID string) error {
	gp := p.guild(guildID)
	vc, err := p.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return err
	}
	gp.mu.Lock()
	gp.vc = vc
	gp.mu.Unlock()
	return nil
}

// Enqueue appends tracks and starts the playback loop if idle. The caller
// must have joined a voice channel first.
func (p *Player) Enqueue(guildID string, tracks ...Track) error {
	gp := p.guild(guildID)

	gp.mu.Lock()
	if gp.vc == nil {
		gp.mu.Unlock()
		return ErrNotInVoice
	}
	gp.queue.Add(tracks...)
	if gp.playing {
		gp.mu.Unlock()
		return nil
	}
	gp.playing = true
	gp.gen++
	gen := gp.gen
	gp.skip = make(chan struct{}, 1)
	gp.stop = make(chan struct{})
	gp.mu.Unlock()

	go p.playLoop(guildID, gp, gen)
	return nil
}

func (p *Player) playLoop(guildID string, gp *guildPlayer, gen uint64) {
	defer gp.finish(gen)

	for {
		track, ok := gp.queue.Next()
		if !ok {
			return
		}

		gp.mu.Lock()
		if gp.gen != gen {
			gp.mu.Unlock()
			return
		}
		vc := gp.vc
		gp.nowPlaying = &track
		stop := gp.stop
		skip := gp.skip
		gp.mu.Unlock()

		if vc == nil {
			return
		}

		if err := p.playTrack(vc, track, skip, stop); err != nil {
			if errors.Is(err, errStopped) {
				return
			}
			p.logger.Warn("track playback failed",
				zap.String("guild_id", guildID),
				zap.String("title", track.Title),
				zap.Error(err))
		}
	}
}

var errStopped = errors.New("playback stopped")

// playTrack streams one track until it ends, is skipped, or is stopped.
// ffmpeg reads the media URL directly; dca re-encodes to opus.
func (p *Player) playTrack(vc *discordgo.VoiceConnection, track Track, skip, stop <-chan struct{}) error {
	opts := *dca.StdEncodeOptions
	opts.RawOutput = true
	opts.Bitrate = 96

	encode, err := dca.EncodeFile(track.MediaURL, &opts)
	if err != nil {
		return err
	}
	defer encode.Cleanup()

	if err := vc.Speaking(true); err != nil {
		return err
	}
	defer vc.Speaking(false) //nolint:errcheck

	done := make(chan error)
	_ = dca.NewStream(encode, vc, done)

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, dca.ErrVoiceConnClosed) {
			return err
		}
		return nil
	case <-skip:
		return nil
	case <-stop:
		return errStopped
	}
}

// Skip moves on to the next queued track.
func (p *Player) Skip(guildID string) error {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if !gp.playing {
		return ErrNotPlaying
	}
	select {
	case gp.skip <- struct{}{}:
	default:
	}
	return nil
}

// Stop halts playback and clears the queue.
func (p *Player) Stop(guildID string) error {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if !gp.playing {
		return ErrNotPlaying
	}
	gp.queue.Clear()
	close(gp.stop)
	gp.playing = false
	return nil
}

// Leave stops playback and disconnects from voice.
func (p *Player) Leave(guildID string) error {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if gp.vc == nil {
		return ErrNotInVoice
	}
	if gp.playing {
		gp.queue.Clear()
		close(gp.stop)
		gp.playing = false
	}
	err := gp.vc.Disconnect()
	gp.vc = nil
	return err
}

// NowPlaying reports the current track, if any.
func (p *Player) NowPlaying(guildID string) (Track, bool) {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if gp.nowPlaying == nil {
		return Track{}, false
	}
	return *gp.nowPlaying, true
}

// QueueTitles lists up to limit pending titles.
func (p *Player) QueueTitles(guildID string, limit int) []string {
	return p.guild(guildID).queue.Titles(limit)
}

// QueueLen reports how many tracks are pending.
func (p *Player) QueueLen(guildID string) int {
	return p.guild(guildID).queue.Len()
}

// Shuffle randomizes the pending queue.
func (p *Player) Shuffle(guildID string) {
	p.guild(guildID).queue.Shuffle()
}
