// Package saavn talks to the public JioSaavn web API: song, album, playlist
// and lyrics lookups by search query or share URL, with media URL
// decryption and metadata cleanup.
package saavn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://www.jiosaavn.com"

// ErrNotFound is returned when a query matches nothing.
var ErrNotFound = errors.New("no results for query")

// Song is the cleaned-up song payload handed to the API and the bot.
type Song struct {
	ID       string  `json:"id"`
	Title    string  `json:"song"`
	Album    string  `json:"album"`
	Image    string  `json:"image"`
	MediaURL string  `json:"media_url"`
	Duration float64 `json:"duration"` // minutes, two decimals
	Music    string  `json:"music"`
	Singers  string  `json:"singers"`
	Year     string  `json:"year"`
	Lyrics   string  `json:"lyrics,omitempty"`
}

// SongList is an album or playlist resolved to its songs.
type SongList struct {
	Name  string `json:"name"`
	Songs []Song `json:"songs"`
	Count int    `json:"count"`
}

type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// The API emits unescaped quotes inside `(From "...")` suffixes, which
// breaks JSON parsing. Rewrite them to single quotes before decoding.
var fromQuotePattern = regexp.MustCompile(`\(From "([^"]+)"\)`)

// rawSong is the wire shape of a song.getDetails entry.
type rawSong struct {
	ID                string `json:"id"`
	Song              string `json:"song"`
	Album             string `json:"album"`
	Image             string `json:"image"`
	EncryptedMediaURL string `json:"encrypted_media_url"`
	MediaPreviewURL   string `json:"media_preview_url"`
	Has320            string `json:"320kbps"`
	Duration          string `json:"duration"`
	Music             string `json:"music"`
	Singers           string `json:"singers"`
	PrimaryArtists    string `json:"primary_artists"`
	Year              string `json:"year"`
	HasLyrics         string `json:"has_lyrics"`
}

// SearchSongs resolves a free-text query (or a saavn.com share URL) to
// songs, best match first.
func (c *Client) SearchSongs(ctx context.Context, query string, withLyrics bool) ([]Song, error) {
	if isShareURL(query) {
		id, err := c.SongIDFromURL(ctx, query)
		if err != nil {
			return nil, err
		}
		song, err := c.SongByID(ctx, id, withLyrics)
		if err != nil {
			return nil, err
		}
		return []Song{*song}, nil
	}

	var res struct {
		Songs struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"songs"`
	}
	if err := c.getJSON(ctx, c.searchURL(query), &res); err != nil {
		return nil, err
	}
	if len(res.Songs.Data) == 0 {
		return nil, ErrNotFound
	}

	songs := make([]Song, 0, len(res.Songs.Data))
	for _, hit := range res.Songs.Data {
		song, err := c.SongByID(ctx, hit.ID, withLyrics)
		if err != nil {
			c.logger.Debug("skipping song result", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		songs = append(songs, *song)
	}
	if len(songs) == 0 {
		return nil, ErrNotFound
	}
	return songs, nil
}

// SongByID fetches and cleans a single song.
func (c *Client) SongByID(ctx context.Context, id string, withLyrics bool) (*Song, error) {
	u := c.apiURL("song.getDetails", "pids", id)
	var res map[string]json.RawMessage
	if err := c.getJSON(ctx, u, &res); err != nil {
		return nil, err
	}
	rawMsg, ok := res[id]
	if !ok {
		return nil, ErrNotFound
	}
	var raw rawSong
	if err := json.Unmarshal(rawMsg, &raw); err != nil {
		return nil, fmt.Errorf("decode song %s: %w", id, err)
	}

	song, err := c.cleanSong(ctx, raw, withLyrics)
	if err != nil {
		return nil, err
	}
	return song, nil
}

func (c *Client) cleanSong(ctx context.Context, raw rawSong, withLyrics bool) (*Song, error) {
	has320 := raw.Has320 == "true"

	var mediaURL string
	if raw.EncryptedMediaURL != "" {
		dec, err := DecryptMediaURL(raw.EncryptedMediaURL)
		if err != nil {
			return nil, fmt.Errorf("decrypt media url: %w", err)
		}
		mediaURL = MediaURLForBitrate(dec, has320)
	} else if raw.MediaPreviewURL != "" {
		mediaURL = MediaURLFromPreview(raw.MediaPreviewURL, has320)
	} else {
		return nil, errors.New("song has no media url")
	}

	seconds, _ := strconv.Atoi(raw.Duration)
	song := &Song{
		ID:       raw.ID,
		Title:    CleanText(raw.Song),
		Album:    CleanText(raw.Album),
		Image:    UpscaleImage(raw.Image),
		MediaURL: mediaURL,
		Duration: float64(seconds*100/60) / 100,
		Music:    CleanText(raw.Music),
		Singers:  CleanText(raw.Singers),
		Year:     raw.Year,
	}

	if withLyrics && raw.HasLyrics == "true" {
		lyrics, err := c.LyricsByID(ctx, raw.ID)
		if err != nil {
			c.logger.Debug("lyrics fetch failed", zap.String("id", raw.ID), zap.Error(err))
		} else {
			song.Lyrics = lyrics
		}
	}
	return song, nil
}

// Album resolves an album by free-text query or share URL.
func (c *Client) Album(ctx context.Context, query string, withLyrics bool) (*SongList, error) {
	var albumID string
	var err error
	if isShareURL(query) {
		albumID, err = c.albumIDFromURL(ctx, query)
	} else {
		albumID, err = c.searchFirstID(ctx, query, "albums")
	}
	if err != nil {
		return nil, err
	}

	var res struct {
		Title string    `json:"title"`
		Songs []rawSong `json:"songs"`
	}
	if err := c.getJSON(ctx, c.apiURL("content.getAlbumDetails", "albumid", albumID), &res); err != nil {
		return nil, err
	}
	return c.cleanList(ctx, CleanText(res.Title), res.Songs, withLyrics)
}

// Playlist resolves a playlist by free-text query or share URL.
func (c *Client) Playlist(ctx context.Context, query string, withLyrics bool) (*SongList, error) {
	var listID string
	var err error
	if isShareURL(query) {
		listID, err = c.playlistIDFromURL(ctx, query)
	} else {
		listID, err = c.searchFirstID(ctx, query, "playlists")
	}
	if err != nil {
		return nil, err
	}

	var res struct {
		ListName string    `json:"listname"`
		Songs    []rawSong `json:"songs"`
	}
	if err := c.getJSON(ctx, c.apiURL("playlist.getDetails", "listid", listID), &res); err != nil {
		return nil, err
	}
	return c.cleanList(ctx, CleanText(res.ListName), res.Songs, withLyrics)
}

func (c *Client) cleanList(ctx context.Context, name string, raws []rawSong, withLyrics bool) (*SongList, error) {
	songs := make([]Song, 0, len(raws))
	for _, raw := range raws {
		song, err := c.cleanSong(ctx, raw, withLyrics)
		if err != nil {
			c.logger.Debug("skipping list entry", zap.String("id", raw.ID), zap.Error(err))
			continue
		}
		songs = append(songs, *song)
	}
	if len(songs) == 0 {
		return nil, ErrNotFound
	}
	return &SongList{Name: name, Songs: songs, Count: len(songs)}, nil
}

// Lyrics fetches lyrics by song ID or share URL.
func (c *Client) Lyrics(ctx context.Context, query string) (string, error) {
	id := query
	if isShareURL(query) {
		var err error
		id, err = c.SongIDFromURL(ctx, query)
		if err != nil {
			return "", err
		}
	}
	return c.LyricsByID(ctx, id)
}

func (c *Client) LyricsByID(ctx context.Context, id string) (string, error) {
	var res struct {
		Lyrics string `json:"lyrics"`
	}
	u := c.base + "/api.php?__call=lyrics.getLyrics&ctx=web6dot0&api_version=4&_format=json&_marker=0&lyrics_id=" + url.QueryEscape(id)
	if err := c.getJSON(ctx, u, &res); err != nil {
		return "", err
	}
	if res.Lyrics == "" {
		return "", ErrNotFound
	}
	return res.Lyrics, nil
}

// Resolve handles an arbitrary query: a share URL goes to the matching
// lookup by its path, anything else is a song search.
func (c *Client) Resolve(ctx context.Context, query string, withLyrics bool) (any, error) {
	if !isShareURL(query) {
		return c.SearchSongs(ctx, query, withLyrics)
	}
	switch {
	case strings.Contains(query, "/song/"):
		id, err := c.SongIDFromURL(ctx, query)
		if err != nil {
			return nil, err
		}
		return c.SongByID(ctx, id, withLyrics)
	case strings.Contains(query, "/album/"):
		return c.Album(ctx, query, withLyrics)
	case strings.Contains(query, "/playlist/"), strings.Contains(query, "/featured/"):
		return c.Playlist(ctx, query, withLyrics)
	default:
		return nil, fmt.Errorf("unrecognized share url: %s", query)
	}
}

// SongIDFromURL scrapes the song ID ("pid") out of a share page.
func (c *Client) SongIDFromURL(ctx context.Context, shareURL string) (string, error) {
	body, err := c.getBody(ctx, shareURL)
	if err != nil {
		return "", err
	}
	if id := extractBetween(body, `"pid":"`, `"`); id != "" {
		return id, nil
	}
	if chunk := extractBetween(body, `"song":{"type":"`, `","image":`); chunk != "" {
		if i := strings.LastIndex(chunk, `"id":"`); i >= 0 {
			return chunk[i+len(`"id":"`):], nil
		}
	}
	return "", ErrNotFound
}

func (c *Client) albumIDFromURL(ctx context.Context, shareURL string) (string, error) {
	body, err := c.getBody(ctx, shareURL)
	if err != nil {
		return "", err
	}
	if id := extractBetween(body, `"album_id":"`, `"`); id != "" {
		return id, nil
	}
	if id := extractBetween(body, `"page_id","`, `"`); id != "" {
		return id, nil
	}
	return "", ErrNotFound
}

func (c *Client) playlistIDFromURL(ctx context.Context, shareURL string) (string, error) {
	body, err := c.getBody(ctx, shareURL)
	if err != nil {
		return "", err
	}
	if id := extractBetween(body, `"type":"playlist","id":"`, `"`); id != "" {
		return id, nil
	}
	if id := extractBetween(body, `"page_id","`, `"`); id != "" {
		return id, nil
	}
	return "", ErrNotFound
}

// searchFirstID runs the autocomplete search and returns the first hit in
// the given section (albums, playlists).
func (c *Client) searchFirstID(ctx context.Context, query, section string) (string, error) {
	var res map[string]struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.searchURL(query), &res); err != nil {
		return "", err
	}
	hits, ok := res[section]
	if !ok || len(hits.Data) == 0 {
		return "", ErrNotFound
	}
	return hits.Data[0].ID, nil
}

func (c *Client) searchURL(query string) string {
	return c.base + "/api.php?__call=autocomplete.get&_format=json&_marker=0&cc=in&includeMetaTags=1&query=" + url.QueryEscape(query)
}

func (c *Client) apiURL(call, idParam, id string) string {
	return fmt.Sprintf("%s/api.php?__call=%s&_format=json&cc=in&_marker=0&%s=%s",
		c.base, call, idParam, url.QueryEscape(id))
}

// getJSON fetches a URL with bounded retries and decodes the repaired body.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	body, err := c.getBody(ctx, u)
	if err != nil {
		return err
	}
	repaired := fromQuotePattern.ReplaceAllString(body, "(From '$1')")
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getBody(ctx context.Context, u string) (string, error) {
	retrier := retry.NewRetrier(3, 200*time.Millisecond, 2*time.Second)

	var body string
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return retry.Stop(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return retry.Stop(fmt.Errorf("upstream status %d", resp.StatusCode))
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}
		body = string(b)
		return nil
	})
	return body, err
}

func isShareURL(q string) bool {
	return strings.HasPrefix(q, "http") && strings.Contains(q, "saavn")
}

func extractBetween(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	rest := s[i+len(start):]
	j := strings.Index(rest, end)
	if j < 0 {
		return ""
	}
	return rest[:j]
}
