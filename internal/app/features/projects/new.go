// internal/app/features/projects/new.go
package projects

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/navigation"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeNew renders the empty project form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	h.renderForm(ctx, w, r, formData{Input: projectInput{Status: models.StatusQuotation}}, nil)
}

// HandleCreate validates the form and inserts a new project.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/projects")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in := readProjectInput(r)
	fields, errs := in.parse()
	if len(errs) > 0 {
		h.formInvalid(ctx, w, r, formData{Input: in}, errs)
		return
	}

	p := models.Project{
		Title:             fields.Title,
		ApplicationNumber: fields.ApplicationNumber,
		OwnerID:           fields.OwnerID,
		Address:           fields.Address,
		ProgramName:       fields.ProgramName,
		Notes:             fields.Notes,
		Deadline:          fields.Deadline,
		Status:            fields.Status,
	}
	created, err := h.Projects.Create(ctx, p, authz.ActorName(r))
	if err != nil {
		h.Log.Error("project create failed", zap.Error(err), zap.String("title", p.Title))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not create the project."), "/projects")
		return
	}
	h.Log.Info("project created", zap.String("project_id", created.ID.Hex()), zap.String("actor", authz.ActorName(r)))
	h.AuditLog.Admin(ctx, r, audit.EventProjectCreated, map[string]string{"project_id": created.ID.Hex(), "title": created.Title})
	formutil.Respond(w, r, h.Flash, formutil.OK("Project created."), "/projects/"+created.ID.Hex())
}

func readProjectInput(r *http.Request) projectInput {
	return projectInput{
		Title:             strings.TrimSpace(r.FormValue("title")),
		ApplicationNumber: strings.TrimSpace(r.FormValue("application_number")),
		OwnerID:           strings.TrimSpace(r.FormValue("owner_id")),
		Address:           strings.TrimSpace(r.FormValue("address")),
		ProgramName:       strings.TrimSpace(r.FormValue("program_name")),
		Notes:             strings.TrimSpace(r.FormValue("notes")),
		Deadline:          strings.TrimSpace(r.FormValue("deadline")),
		Status:            strings.TrimSpace(r.FormValue("status")),
	}
}

// projectFields is projectInput after parsing.
type projectFields struct {
	Title             string
	ApplicationNumber string
	OwnerID           *primitive.ObjectID
	Address           string
	ProgramName       string
	Notes             string
	Deadline          *time.Time
	Status            string
}

func (in projectInput) parse() (projectFields, map[string]string) {
	errs := map[string]string{}
	if res := inputval.Validate(in); res.HasErrors() {
		errs = res.Errors
	}
	owner, err := formutil.ParseOptionalID(in.OwnerID)
	if err != nil {
		errs["owner_id"] = "Owner is invalid."
	}
	deadline, err := formutil.ParseDate(in.Deadline)
	if err != nil {
		errs["deadline"] = "Deadline must be a date."
	}
	return projectFields{
		Title:             in.Title,
		ApplicationNumber: in.ApplicationNumber,
		OwnerID:           owner,
		Address:           in.Address,
		ProgramName:       in.ProgramName,
		Notes:             in.Notes,
		Deadline:          deadline,
		Status:            in.Status,
	}, errs
}

// formInvalid answers a failed form: JSON callers get the field errors,
// browsers get the form again.
func (h *Handler) formInvalid(ctx context.Context, w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	if formutil.WantsJSON(r) {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(errs), "")
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.renderForm(ctx, w, r, data, errs)
}

func (h *Handler) renderForm(ctx context.Context, w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	owners, err := h.contactOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact options failed", err, "Could not load contacts.", "/projects")
		return
	}
	data.Owners = owners
	data.Statuses = editableStatuses

	title, back := "New project", navigation.SafeBackURL(r, navigation.ProjectsBackURL)
	if data.IsEdit {
		title, back = "Edit project", "/projects/"+data.ID
	}
	formutil.SetBase(&data.Base, r, title, back)
	data.SetErrors(errs)
	templates.Render(w, r, "project_form", data)
}
