// internal/app/features/projects/edit.go
package projects

import (
	"context"
	"errors"
	"net/http"

	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projecttree"
)

// ServeEdit renders the header form of an existing project.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "Project not found.", "/projects")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.GetByID(ctx, id)
	if errors.Is(err, projectstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Project not found.", "/projects")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "project load failed", err, "Could not load the project.", "/projects")
		return
	}

	status := p.Status
	if status == models.StatusDelayed {
		status = models.StatusOnTrack
	}
	in := projectInput{
		Title:             p.Title,
		ApplicationNumber: p.ApplicationNumber,
		Address:           p.Address,
		ProgramName:       p.ProgramName,
		Notes:             p.Notes,
		Deadline:          formutil.FormatDate(p.Deadline),
		Status:            status,
	}
	if p.OwnerID != nil {
		in.OwnerID = p.OwnerID.Hex()
	}
	h.renderForm(ctx, w, r, formData{ID: id.Hex(), IsEdit: true, Input: in}, nil)
}

// HandleEdit saves the header fields through the mutation path so the
// change is versioned and audited like any tree edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "Project not found.", "/projects")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/projects/"+id.Hex())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	in := readProjectInput(r)
	f, errs := in.parse()
	if len(errs) > 0 {
		h.formInvalid(ctx, w, r, formData{ID: id.Hex(), IsEdit: true, Input: in}, errs)
		return
	}
	h.mutate(w, r, id, projecttree.UpdateDetails{
		Title:             f.Title,
		ApplicationNumber: f.ApplicationNumber,
		OwnerID:           f.OwnerID,
		Address:           f.Address,
		ProgramName:       f.ProgramName,
		Notes:             f.Notes,
		Deadline:          f.Deadline,
		Status:            f.Status,
	}, "Project updated.")
}
