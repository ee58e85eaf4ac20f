// internal/app/features/systemusers/routes.go
package systemusers

import (
	"github.com/go-chi/chi/v5"
	"github.com/nestoreco/nestor/internal/app/system/auth"
)

// Routes mounts all user administration routes under the path where this
// router is mounted (typically "/users" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only signed-in admins can manage accounts.
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(auth.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Post("/{id}/password", h.HandlePassword)
	})

	return r
}
