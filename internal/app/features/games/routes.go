// internal/app/features/games/routes.go
package games

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes wires the game catalog. Reads are public; writes need a manager.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{game_id}", h.ServeByID)

	r.Group(func(mr chi.Router) {
		mr.Use(sysauth.RequireUser, h.Checker.RequireManager)

		mr.Post("/", h.ServeCreate)
		mr.Put("/{game_id}", h.ServeUpdate)
		mr.Delete("/{game_id}", h.ServeDelete)
	})

	return r
}
