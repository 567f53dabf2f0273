// internal/app/features/applications/routes.go
package applications

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes wires the application endpoints: member submission and status
// under login, the review surface under manager rights, and deletion
// under admin.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sysauth.RequireUser)

		pr.Post("/validate", h.ServeValidate)
		pr.Post("/submit", h.ServeSubmit)
		pr.Get("/list", h.ServeList)
		pr.Get("/status/{application_id}", h.ServeStatus)
	})

	r.Group(func(cr chi.Router) {
		cr.Use(sysauth.RequireUser, h.Checker.RequireManager)

		// CEO-only; the handler rejects plain managers.
		cr.Post("/ceo/grant-reapply/{user_id}", h.ServeGrantReapply)
	})

	r.Route("/manager", func(mr chi.Router) {
		mr.Use(sysauth.RequireUser)

		mr.Group(func(gr chi.Router) {
			gr.Use(h.Checker.RequireManager)

			gr.Get("/pending", h.ServeManagerPending)
			gr.Get("/all", h.ServeManagerAll)
			gr.Get("/stats", h.ServeManagerStats)
			gr.Post("/accept/{application_id}", h.ServeAccept)
			gr.Post("/reject/{application_id}", h.ServeReject)
		})

		mr.Group(func(ar chi.Router) {
			ar.Use(h.Checker.RequireAdmin)

			ar.Delete("/{application_id}", h.ServeDelete)
		})
	})

	return r
}
