// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes returns the router for the service banner and health probes.
// Everything here is public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRoot)
	r.Get("/health", h.Serve)
	r.Get("/bot/status", h.ServeBotStatus)
	return r
}
