// internal/app/features/music/handler.go

// Package music exposes the JioSaavn lookups over HTTP: song, album,
// playlist and lyrics resolution by search query or share URL.
package music

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/music/saavn"
	"github.com/maestros-community/backend/internal/app/system/httpjson"
	"github.com/maestros-community/backend/internal/app/system/timeouts"
)

// Handler wraps the saavn client for the HTTP surface.
type Handler struct {
	Saavn *saavn.Client
	Log   *zap.Logger
}

func NewHandler(client *saavn.Client, logger *zap.Logger) *Handler {
	return &Handler{Saavn: client, Log: logger}
}

func query(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("query"))
}

func withLyrics(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("lyrics"))
	return err == nil && v
}

// ServeRoot handles GET /music/: a banner listing the endpoints.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	httpjson.OK(w, map[string]any{
		"message": "Maestros music API",
		"endpoints": map[string]string{
			"song":     "/music/song/?query=<song name or url>&lyrics=<true|false>",
			"song_id":  "/music/song/get/?id=<song id>",
			"album":    "/music/album/?query=<album name or url>",
			"playlist": "/music/playlist/?query=<playlist name or url>",
			"lyrics":   "/music/lyrics/?query=<song id or url>",
			"result":   "/music/result/?query=<anything>",
		},
	})
}

// ServeSong handles GET /music/song/: the single best match.
func (h *Handler) ServeSong(w http.ResponseWriter, r *http.Request) {
	q := query(r)
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "Query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	songs, err := h.Saavn.SearchSongs(ctx, q, withLyrics(r))
	if err != nil {
		if errors.Is(err, saavn.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Song not found")
			return
		}
		h.Log.Error("song search failed", zap.String("query", q), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "Failed to fetch song data!")
		return
	}
	httpjson.OK(w, songs[0])
}

// ServeSongByID handles GET /music/song/get/.
func (h *Handler) ServeSongByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		httpjson.Error(w, http.StatusBadRequest, "Song ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	song, err := h.Saavn.SongByID(ctx, id, withLyrics(r))
	if err != nil {
		if errors.Is(err, saavn.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Invalid Song ID received!")
			return
		}
		h.Log.Error("song lookup failed", zap.String("id", id), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "Failed to fetch song data!")
		return
	}
	httpjson.OK(w, song)
}

// ServeAlbum handles GET /music/album/.
func (h *Handler) ServeAlbum(w http.ResponseWriter, r *http.Request) {
	q := query(r)
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "Query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	album, err := h.Saavn.Album(ctx, q, withLyrics(r))
	if err != nil {
		if errors.Is(err, saavn.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "No album found for the given query!")
			return
		}
		h.Log.Error("album lookup failed", zap.String("query", q), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "Failed to fetch album data!")
		return
	}
	httpjson.OK(w, album)
}

// ServePlaylist handles GET /music/playlist/.
func (h *Handler) ServePlaylist(w http.ResponseWriter, r *http.Request) {
	q := query(r)
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "Query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	playlist, err := h.Saavn.Playlist(ctx, q, withLyrics(r))
	if err != nil {
		if errors.Is(err, saavn.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "No playlist found for the given query!")
			return
		}
		h.Log.Error("playlist lookup failed", zap.String("query", q), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "Failed to fetch playlist data!")
		return
	}
	httpjson.OK(w, playlist)
}

// ServeLyrics handles GET /music/lyrics/.
func (h *Handler) ServeLyrics(w http.ResponseWriter, r *http.Request) {
	q := query(r)
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "Query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	lyrics, err := h.Saavn.Lyrics(ctx, q)
	if err != nil {
		if errors.Is(err, saavn.ErrNotFound) {
			httpjson.Error(w, http.StatusNotFound, "No lyrics found for the given query!")
			return
		}
		h.Log.Error("lyrics lookup failed", zap.String("query", q), zap.Error(err))
		httpjson.Error(w, http.StatusBadGateway, "Failed to fetch lyrics!")
		return
	}
	httpjson.OK(w, map[string]any{"status": true, "lyrics": lyrics})
}

// ServeResult handles GET /music/result/: a share URL goes to the right
// lookup, anything else is a song search.
func (h *Handler) ServeResult(w http.ResponseWriter, r *http.Request) {
	q := query(r)
	if q == "" {
		httpjson.Error(w, http.StatusBadRequest, "Query is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	result, err := h.Saavn.Resolve(ctx, q, withLyrics(r))
	if err != nil {
		switch {
		case errors.Is(err, saavn.ErrNotFound):
			httpjson.Error(w, http.StatusNotFound, "No results for the given query!")
		case strings.Contains(err.Error(), "unrecognized share url"):
			httpjson.Error(w, http.StatusBadRequest, "Invalid URL format")
		default:
			h.Log.Error("resolve failed", zap.String("query", q), zap.Error(err))
			httpjson.Error(w, http.StatusBadGateway, "Failed to fetch data!")
		}
		return
	}
	httpjson.OK(w, result)
}
