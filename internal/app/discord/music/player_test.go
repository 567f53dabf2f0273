package music

import (
	"testing"

	"go.uber.org/zap"
)

func TestStaleLoopExitKeepsNewPlayback(t *testing.T) {
	p := NewPlayer(nil, zap.NewNop())
	gp := p.guild("guild-1")

	// After Stop followed by a quick Enqueue, the generation 2 loop owns
	// the state; the generation 1 loop finishing late must leave it alone.
	now := track("current")
	gp.mu.Lock()
	gp.gen = 2
	gp.playing = true
	gp.nowPlaying = &now
	gp.mu.Unlock()

	gp.finish(1)

	gp.mu.Lock()
	playing, np := gp.playing, gp.nowPlaying
	gp.mu.Unlock()
	if !playing || np == nil {
		t.Fatal("stale loop exit cleared active playback state")
	}

	gp.finish(2)

	gp.mu.Lock()
	playing, np = gp.playing, gp.nowPlaying
	gp.mu.Unlock()
	if playing || np != nil {
		t.Error("active loop exit left playback state set")
	}
}
