// internal/app/features/contacts/routes.go
package contacts

import (
	"github.com/go-chi/chi/v5"
	"github.com/nestoreco/nestor/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/export.csv", h.ServeCSV)
	r.Get("/new", h.ServeNew)
	r.Post("/", h.HandleCreate)
	r.Get("/import", h.ServeImport)
	r.Post("/import", h.HandleImport)
	r.Get("/{id}/edit", h.ServeEdit)
	r.Post("/{id}/edit", h.HandleEdit)
	r.Post("/{id}/delete", h.HandleDelete)
	return r
}
