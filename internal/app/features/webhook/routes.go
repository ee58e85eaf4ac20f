// internal/app/features/webhook/routes.go
package webhook

import "github.com/go-chi/chi/v5"

// Routes mounts the Telegram endpoint. It sits outside the session and
// CSRF middleware; the secret token header authenticates the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/telegram", h.HandleTelegram)
	return r
}
