// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes wires the event endpoints. Listings are public; registration
// needs a login; everything under /manager needs manager rights.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/list", h.ServeList)
	r.Get("/upcoming/list", h.ServeUpcoming)

	r.Route("/manager", func(mr chi.Router) {
		mr.Use(sysauth.RequireUser, h.Checker.RequireManager)

		mr.Get("/all", h.ServeManagerAll)
		mr.Put("/{event_id}", h.ServeUpdate)
		mr.Delete("/{event_id}", h.ServeDelete)
		mr.Post("/{event_id}/winners", h.ServeSetWinners)
	})

	r.Group(func(mr chi.Router) {
		mr.Use(sysauth.RequireUser, h.Checker.RequireManager)

		mr.Post("/create", h.ServeCreate)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sysauth.RequireUser)

		pr.Post("/{event_id}/register", h.ServeRegister)
		pr.Post("/{event_id}/unregister", h.ServeUnregister)
	})

	r.Get("/{event_id}", h.ServeByID)

	return r
}
