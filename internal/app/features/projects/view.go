// internal/app/features/projects/view.go
package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/htmlsanitize"
	"github.com/nestoreco/nestor/internal/app/system/navigation"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
)

// auditShown is how many audit entries the detail page lists.
const auditShown = 50

// loadProject reads the project named in the URL, answering the request
// itself when it cannot.
func (h *Handler) loadProject(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Project, bool) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "Project not found.", "/projects")
		return models.Project{}, false
	}
	p, err := h.Projects.GetByID(ctx, id)
	if errors.Is(err, projectstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Project not found.", "/projects")
		return models.Project{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "project load failed", err, "Could not load the project.", "/projects")
		return models.Project{}, false
	}
	return p, true
}

// ServeView renders a project with its intervention tree, costs,
// reminders, linked offers and audit trail.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	stored, ok := h.loadProject(ctx, w, r)
	if !ok {
		return
	}
	now := h.now()
	p := projectmetrics.AtRequestTime(stored, now)

	names, err := h.contactNames(ctx, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact lookup failed", err, "Could not load the project.", "/projects")
		return
	}
	catalog, err := h.Catalog.All(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "catalog load failed", err, "Could not load the project.", "/projects")
		return
	}
	contacts, err := h.contactOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact options failed", err, "Could not load the project.", "/projects")
		return
	}
	reminders, err := h.Reminders.ListByProject(ctx, p.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reminder load failed", err, "Could not load the project.", "/projects")
		return
	}
	offers, err := h.Offers.List(ctx, offerstore.ListFilter{ProjectID: p.ID})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "offer load failed", err, "Could not load the project.", "/projects")
		return
	}

	data := viewData{
		BaseVM:        viewdata.NewBaseVM(r, p.Title, navigation.SafeBackURL(r, navigation.ProjectsBackURL)),
		Project:       p,
		Owner:         nameOf(names, p.OwnerID),
		Deadline:      formutil.FormatDate(p.Deadline),
		NotesHTML:     htmlsanitize.PrepareForDisplay(p.Notes),
		Totals:        projectmetrics.ProjectTotals(p),
		Interventions: buildInterventions(p, names, now),
		Catalog:       catalog,
		Contacts:      contacts,
		StageStatuses: stageStatusOptions(),
		Reminders:     reminders,
		Offers:        offers,
		AuditLog:      recentAudit(p.AuditLog, auditShown),
		CanDelete:     authz.IsAdmin(r),
		AIEnabled:     h.AIEnabled,
		DateLayout:    formutil.DateLayout,
	}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "project_view", data)
}
