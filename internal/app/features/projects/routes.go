// internal/app/features/projects/routes.go
package projects

import (
	"github.com/go-chi/chi/v5"
	"github.com/nestoreco/nestor/internal/app/system/auth"
)

// Routes mounts the project pages under /projects. Every route needs a
// signed-in user; deleting a whole project is checked per request.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/export.csv", h.ServeListCSV)
	r.Get("/new", h.ServeNew)
	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeView)
		r.Get("/edit", h.ServeEdit)
		r.Post("/edit", h.HandleEdit)
		r.Post("/delete", h.HandleDelete)
		r.Get("/report", h.ServeReport)
		r.Get("/export.csv", h.ServeProjectCSV)

		r.Post("/interventions", h.HandleAddIntervention)
		r.Route("/interventions/{iid}", func(r chi.Router) {
			r.Post("/edit", h.HandleUpdateIntervention)
			r.Post("/delete", h.HandleDeleteIntervention)

			r.Post("/stages", h.HandleAddStage)
			r.Post("/stages/{sid}/edit", h.HandleUpdateStage)
			r.Post("/stages/{sid}/delete", h.HandleDeleteStage)
			r.Post("/stages/{sid}/move", h.HandleMoveStage)
			r.Post("/stages/{sid}/status", h.HandleStageStatus)
			r.Post("/stages/{sid}/attachments", h.HandleUploadAttachment)
			r.Get("/stages/{sid}/attachments/{aid}", h.ServeAttachment)
			r.Post("/stages/{sid}/attachments/{aid}/delete", h.HandleRemoveAttachment)

			r.Post("/subs", h.HandleAddSub)
			r.Post("/subs/{subid}/edit", h.HandleUpdateSub)
			r.Post("/subs/{subid}/delete", h.HandleDeleteSub)
			r.Post("/subs/{subid}/move", h.HandleMoveSub)
		})
	})
	return r
}
