// internal/app/features/moderation/routes.go
package moderation

import (
	"github.com/go-chi/chi/v5"

	sysauth "github.com/maestros-community/backend/internal/app/system/auth"
)

// Routes wires the moderation tools, all manager only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(sysauth.RequireUser, h.Checker.RequireManager)

	r.Post("/analyze", h.ServeAnalyze)
	r.Post("/analyze-application", h.ServeAnalyzeApplication)
	r.Post("/warnings/{user_id}", h.ServeIssueWarning)
	r.Get("/warnings/{user_id}", h.ServeWarnings)
	r.Delete("/warnings/revoke/{warning_id}", h.ServeRevokeWarning)

	return r
}
