package music

import (
	"math/rand"
	"sync"

	"github.com/maestros-community/backend/internal/app/music/saavn"
)

// Track is one queued song.
type Track struct {
	Title    string
	MediaURL string
	Song     saavn.Song
}

// Queue is a guild's pending track list. Safe for concurrent use; the
// playback goroutine pops while command handlers push.
type Queue struct {
	mu     sync.Mutex
	tracks []Track
}

func (q *Queue) Add(t ...Track) {
	q.mu.Lock()
	q.tracks = append(q.tracks, t...)
	q.mu.Unlock()
}

// Next pops the queue head.
func (q *Queue) Next() (Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	t := q.tracks[0]
	q.tracks = q.tracks[1:]
	return t, true
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.tracks = nil
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// Shuffle randomizes the pending order.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.tracks), func(i, j int) {
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	})
}

// Titles returns up to limit pending titles in order.
func (q *Queue) Titles(limit int) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.tracks)
	if limit > 0 && n > limit {
		n = limit
	}
	titles := make([]string, n)
	for i := 0; i < n; i++ {
		titles[i] = q.tracks[i].Title
	}
	return titles
}
