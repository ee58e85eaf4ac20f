// internal/app/features/offers/routes.go
package offers

import (
	"github.com/go-chi/chi/v5"
	"github.com/nestoreco/nestor/internal/app/system/auth"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/new", h.ServeNew)
	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeView)
		r.Get("/edit", h.ServeEdit)
		r.Post("/edit", h.HandleEdit)
		r.Post("/delete", h.HandleDelete)
		r.Post("/file", h.HandleUpload)
		r.Get("/file", h.ServeFile)
		r.Post("/analyze", h.HandleAnalyze)
	})
	return r
}
