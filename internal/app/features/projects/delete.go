// internal/app/features/projects/delete.go
package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/nestoreco/nestor/internal/app/store/audit"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/gates"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.uber.org/zap"
)

// HandleDelete removes a project as a unit, then its reminders, its links
// from offers and the stored files of its stage attachments. Admins only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !gates.RequireAdmin(w, r, "Only administrators can delete projects.", "/projects").OK {
		return
	}
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Project not found."), "/projects")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if errors.Is(err, projectstore.ErrNotFound) {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Project not found."), "/projects")
		return
	}
	if err != nil {
		h.Log.Error("project load failed", zap.Error(err), zap.String("project_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not delete the project."), "/projects/"+id.Hex())
		return
	}

	if err := h.Projects.Delete(ctx, id); err != nil {
		if errors.Is(err, projectstore.ErrNotFound) {
			formutil.Respond(w, r, h.Flash, formutil.Fail("Project not found."), "/projects")
			return
		}
		h.Log.Error("project delete failed", zap.Error(err), zap.String("project_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not delete the project."), "/projects/"+id.Hex())
		return
	}

	// The project is gone; leftovers below are logged, not surfaced.
	if n, err := h.Reminders.DeleteByProject(ctx, id); err != nil {
		h.Log.Warn("reminder cleanup failed", zap.Error(err), zap.String("project_id", id.Hex()))
	} else if n > 0 {
		h.Log.Debug("reminders removed", zap.Int64("count", n), zap.String("project_id", id.Hex()))
	}
	if _, err := h.Offers.UnlinkProject(ctx, id); err != nil {
		h.Log.Warn("offer unlink failed", zap.Error(err), zap.String("project_id", id.Hex()))
	}
	for _, key := range attachmentKeys(p) {
		if err := h.Blobs.Delete(ctx, key); err != nil {
			h.Log.Warn("attachment cleanup failed", zap.Error(err), zap.String("key", key))
		}
	}

	h.Log.Info("project deleted",
		zap.String("project_id", id.Hex()),
		zap.String("title", p.Title),
		zap.String("actor", authz.ActorName(r)))
	h.AuditLog.Admin(ctx, r, audit.EventProjectDeleted, map[string]string{"project_id": id.Hex(), "title": p.Title})
	formutil.Respond(w, r, h.Flash, formutil.OK("Project deleted."), "/projects")
}

func attachmentKeys(p models.Project) []string {
	var keys []string
	for _, iv := range p.Interventions {
		for _, st := range iv.Stages {
			for _, a := range st.Attachments {
				keys = append(keys, a.Key)
			}
		}
	}
	return keys
}
