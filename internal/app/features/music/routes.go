// internal/app/features/music/routes.go
package music

import (
	"github.com/go-chi/chi/v5"
)

// Routes wires the music lookups. All public, like the rest of the
// read-only site surface.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeRoot)
	r.Get("/song/", h.ServeSong)
	r.Get("/song/get/", h.ServeSongByID)
	r.Get("/album/", h.ServeAlbum)
	r.Get("/playlist/", h.ServePlaylist)
	r.Get("/lyrics/", h.ServeLyrics)
	r.Get("/result/", h.ServeResult)

	return r
}
