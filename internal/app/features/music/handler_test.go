// internal/app/features/music/handler_test.go
package music

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/maestros-community/backend/internal/app/music/saavn"
	"github.com/maestros-community/backend/internal/testutil"
)

// fakeSaavn answers the autocomplete, song detail and lyrics calls the
// client makes, using a preview media URL so no decryption is involved.
func fakeSaavn(t *testing.T, songID string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("__call") {
		case "autocomplete.get":
			fmt.Fprintf(w, `{"songs":{"data":[{"id":"%s"}]},"albums":{"data":[]},"playlists":{"data":[]}}`, songID)
		case "song.getDetails":
			id := r.URL.Query().Get("pids")
			if id != songID {
				fmt.Fprint(w, `{}`)
				return
			}
			fmt.Fprintf(w, `{"%s":{"id":"%s","song":"Kun Faya Kun","album":"Rockstar","image":"https://c.saavncdn.com/a-150x150.jpg","media_preview_url":"https://preview.saavncdn.com/a_96_p.mp4","320kbps":"false","duration":"180","music":"A. R. Rahman","singers":"Javed Ali","year":"2011","has_lyrics":"false"}}`, id, id)
		case "lyrics.getLyrics":
			fmt.Fprint(w, `{"lyrics":"Kun faya kun..."}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func testHandler(t *testing.T, songID string) *Handler {
	t.Helper()
	srv := fakeSaavn(t, songID)
	t.Cleanup(srv.Close)
	return NewHandler(saavn.New(srv.URL, zap.NewNop()), zap.NewNop())
}

func TestServeRoot(t *testing.T) {
	h := testHandler(t, "abc123")

	rec := testutil.NewRecorder()
	h.ServeRoot(rec, testutil.NewRequest(http.MethodGet, "/music/"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "endpoints")
}

func TestServeSong(t *testing.T) {
	h := testHandler(t, "abc123")

	rec := testutil.NewRecorder()
	h.ServeSong(rec, testutil.NewRequest(http.MethodGet, "/music/song/?query=kun+faya+kun"))

	rec.AssertStatus(t, http.StatusOK)

	var song struct {
		Title    string  `json:"song"`
		Album    string  `json:"album"`
		MediaURL string  `json:"media_url"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &song); err != nil {
		t.Fatal(err)
	}
	if song.Title != "Kun Faya Kun" || song.Album != "Rockstar" {
		t.Errorf("song: %+v", song)
	}
	if song.Duration != 3.0 {
		t.Errorf("duration = %v minutes, want 3", song.Duration)
	}
	if song.MediaURL == "" {
		t.Error("media_url empty")
	}
}

func TestServeSongRequiresQuery(t *testing.T) {
	h := testHandler(t, "abc123")

	rec := testutil.NewRecorder()
	h.ServeSong(rec, testutil.NewRequest(http.MethodGet, "/music/song/"))

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeSongNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"songs":{"data":[]}}`)
	}))
	t.Cleanup(srv.Close)
	h := NewHandler(saavn.New(srv.URL, zap.NewNop()), zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeSong(rec, testutil.NewRequest(http.MethodGet, "/music/song/?query=zzzz"))

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Song not found")
}

func TestServeSongByIDInvalid(t *testing.T) {
	h := testHandler(t, "abc123")

	rec := testutil.NewRecorder()
	h.ServeSongByID(rec, testutil.NewRequest(http.MethodGet, "/music/song/get/?id=nope"))

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Invalid Song ID received!")
}

func TestServeLyrics(t *testing.T) {
	h := testHandler(t, "abc123")

	rec := testutil.NewRecorder()
	h.ServeLyrics(rec, testutil.NewRequest(http.MethodGet, "/music/lyrics/?query=abc123"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"status":true`)
	rec.AssertContains(t, "Kun faya kun")
}

func TestServeResultSearch(t *testing.T) {
	h := testHandler(t, "abc123")

	rec := testutil.NewRecorder()
	h.ServeResult(rec, testutil.NewRequest(http.MethodGet, "/music/result/?query=kun+faya"))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Kun Faya Kun")
}
