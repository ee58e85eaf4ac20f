// internal/app/features/settings/routes.go
package settings

import "github.com/go-chi/chi/v5"

// MountRoutes mounts all settings routes on the given router.
// All routes require admin authentication.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ServeCatalog)
	r.Get("/catalog/new", h.ServeNew)
	r.Post("/catalog", h.HandleCreate)
	r.Get("/catalog/{id}/edit", h.ServeEdit)
	r.Post("/catalog/{id}/edit", h.HandleEdit)
	r.Post("/catalog/{id}/delete", h.HandleDelete)
}
