// internal/app/features/rules/routes.go
package rules

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes wires the rulebook. Reads are public; writes and the full
// listing need a manager.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/categories/channels", h.ServeCategories)

	r.Group(func(mr chi.Router) {
		mr.Use(sysauth.RequireUser, h.Checker.RequireManager)

		mr.Get("/manager/all", h.ServeManagerAll)
		mr.Post("/", h.ServeCreate)
		mr.Put("/{rule_id}", h.ServeUpdate)
		mr.Delete("/{rule_id}", h.ServeDelete)
	})

	r.Get("/{rule_id}", h.ServeByID)

	return r
}
