// internal/app/features/reminders/routes.go
package reminders

import (
	"github.com/go-chi/chi/v5"
	"github.com/nestoreco/nestor/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/generate", h.HandleGenerate)
	r.Post("/{id}/done", h.HandleDone)
	r.Post("/{id}/delete", h.HandleDelete)
	return r
}
