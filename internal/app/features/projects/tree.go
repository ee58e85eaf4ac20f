// internal/app/features/projects/tree.go
package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	masterinterventionstore "github.com/nestoreco/nestor/internal/app/store/masterinterventions"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projecttree"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// mutate runs op against the project and answers with the outcome.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, id primitive.ObjectID, op projecttree.Op, okMsg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	change, err := h.Projects.Mutate(ctx, id, authz.ActorName(r), op)
	formutil.Respond(w, r, h.Flash, h.mutationResult(id, change, err, okMsg), "/projects/"+id.Hex())
}

func (h *Handler) mutationResult(id primitive.ObjectID, change projecttree.Change, err error, okMsg string) formutil.Result {
	switch {
	case err == nil && change.NoOp:
		return formutil.OK(change.Message)
	case err == nil:
		return formutil.OK(okMsg)
	case errors.Is(err, projectstore.ErrNotFound):
		return formutil.Fail("Project not found.")
	case errors.Is(err, projecttree.ErrInterventionNotFound):
		return formutil.Fail("Intervention not found.")
	case errors.Is(err, projecttree.ErrStageNotFound):
		return formutil.Fail("Stage not found.")
	case errors.Is(err, projecttree.ErrSubInterventionNotFound):
		return formutil.Fail("Line item not found.")
	case errors.Is(err, projecttree.ErrAttachmentNotFound):
		return formutil.Fail("Attachment not found.")
	case errors.Is(err, projecttree.ErrInvalidStatus):
		return formutil.Invalid(map[string]string{"status": "Status has an unknown value."})
	case errors.Is(err, projecttree.ErrInvalidDirection):
		return formutil.Fail("Invalid move direction.")
	case errors.Is(err, projectstore.ErrConflict):
		return formutil.Fail("The project was changed by someone else. Please reload and try again.")
	}
	h.Log.Error("project mutation failed", zap.Error(err), zap.String("project_id", id.Hex()))
	return formutil.Fail("Could not save the change.")
}

// treeIDs reads the project id and any of the named child ids from the
// URL. ok is false when one is missing or malformed.
func treeIDs(r *http.Request, names ...string) (primitive.ObjectID, []primitive.ObjectID, bool) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		return id, nil, false
	}
	out := make([]primitive.ObjectID, len(names))
	for i, n := range names {
		if out[i], ok = formutil.URLID(r, n); !ok {
			return id, nil, false
		}
	}
	return id, out, true
}

// parseTreeForm checks ids and parses a small form. It answers the request
// itself and returns false when either fails.
func (h *Handler) parseTreeForm(w http.ResponseWriter, r *http.Request, names ...string) (primitive.ObjectID, []primitive.ObjectID, bool) {
	id, ids, ok := treeIDs(r, names...)
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Not found."), "/projects")
		return id, nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/projects/"+id.Hex())
		return id, nil, false
	}
	return id, ids, true
}

func (h *Handler) invalid(w http.ResponseWriter, r *http.Request, id primitive.ObjectID, errs map[string]string) {
	formutil.Respond(w, r, h.Flash, formutil.Invalid(errs), "/projects/"+id.Hex())
}

/* -------------------------------------------------------------------------- */
/* Interventions                                                               */
/* -------------------------------------------------------------------------- */

type interventionInput struct {
	MasterID string `validate:"required" label:"Catalog entry" form:"master_id"`
	Notes    string `validate:"max=5000" label:"Notes" form:"notes"`
}

type interventionEditInput struct {
	Subcategory string `validate:"max=200" label:"Subcategory" form:"subcategory"`
	Notes       string `validate:"max=5000" label:"Notes" form:"notes"`
}

// HandleAddIntervention adds an intervention from the catalog with its
// default stages.
func (h *Handler) HandleAddIntervention(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.parseTreeForm(w, r)
	if !ok {
		return
	}
	in := interventionInput{
		MasterID: strings.TrimSpace(r.FormValue("master_id")),
		Notes:    strings.TrimSpace(r.FormValue("notes")),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, id, res.Errors)
		return
	}
	masterID, err := primitive.ObjectIDFromHex(in.MasterID)
	if err != nil {
		h.invalid(w, r, id, map[string]string{"master_id": "Catalog entry is invalid."})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	master, err := h.Catalog.GetByID(ctx, masterID)
	if errors.Is(err, masterinterventionstore.ErrNotFound) {
		h.invalid(w, r, id, map[string]string{"master_id": "Catalog entry not found."})
		return
	}
	if err != nil {
		h.Log.Error("catalog lookup failed", zap.Error(err), zap.String("master_id", in.MasterID))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not load the catalog entry."), "/projects/"+id.Hex())
		return
	}
	h.mutate(w, r, id, projecttree.AddIntervention{Master: master, Notes: in.Notes}, "Intervention added.")
}

// HandleUpdateIntervention edits the subcategory label and notes.
func (h *Handler) HandleUpdateIntervention(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid")
	if !ok {
		return
	}
	in := interventionEditInput{
		Subcategory: strings.TrimSpace(r.FormValue("subcategory")),
		Notes:       strings.TrimSpace(r.FormValue("notes")),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, id, res.Errors)
		return
	}
	h.mutate(w, r, id, projecttree.UpdateIntervention{
		InterventionID: ids[0],
		Subcategory:    in.Subcategory,
		Notes:          in.Notes,
	}, "Intervention updated.")
}

// HandleDeleteIntervention removes an intervention with its stages and
// line items.
func (h *Handler) HandleDeleteIntervention(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid")
	if !ok {
		return
	}
	h.mutate(w, r, id, projecttree.DeleteIntervention{InterventionID: ids[0]}, "Intervention deleted.")
}

/* -------------------------------------------------------------------------- */
/* Stages                                                                      */
/* -------------------------------------------------------------------------- */

type stageInput struct {
	Title        string `validate:"required,max=200" label:"Title" form:"title"`
	Description  string `validate:"max=5000" label:"Description" form:"description"`
	Deadline     string `form:"deadline"`
	AssigneeID   string `form:"assignee_id"`
	SupervisorID string `form:"supervisor_id"`
	Notes        string `validate:"max=5000" label:"Notes" form:"notes"`
}

func readStageFields(r *http.Request) (projecttree.StageFields, map[string]string) {
	in := stageInput{
		Title:        strings.TrimSpace(r.FormValue("title")),
		Description:  strings.TrimSpace(r.FormValue("description")),
		Deadline:     strings.TrimSpace(r.FormValue("deadline")),
		AssigneeID:   strings.TrimSpace(r.FormValue("assignee_id")),
		SupervisorID: strings.TrimSpace(r.FormValue("supervisor_id")),
		Notes:        strings.TrimSpace(r.FormValue("notes")),
	}
	errs := map[string]string{}
	if res := inputval.Validate(in); res.HasErrors() {
		errs = res.Errors
	}
	f := projecttree.StageFields{Title: in.Title, Description: in.Description, Notes: in.Notes}
	var err error
	if f.Deadline, err = formutil.ParseDate(in.Deadline); err != nil {
		errs["deadline"] = "Deadline must be a date."
	}
	if f.AssigneeID, err = formutil.ParseOptionalID(in.AssigneeID); err != nil {
		errs["assignee_id"] = "Assignee is invalid."
	}
	if f.SupervisorID, err = formutil.ParseOptionalID(in.SupervisorID); err != nil {
		errs["supervisor_id"] = "Supervisor is invalid."
	}
	return f, errs
}

// HandleAddStage appends a pending stage.
func (h *Handler) HandleAddStage(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid")
	if !ok {
		return
	}
	f, errs := readStageFields(r)
	if len(errs) > 0 {
		h.invalid(w, r, id, errs)
		return
	}
	h.mutate(w, r, id, projecttree.AddStage{InterventionID: ids[0], Fields: f}, "Stage added.")
}

// HandleUpdateStage edits a stage's fields; the status has its own action.
func (h *Handler) HandleUpdateStage(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "sid")
	if !ok {
		return
	}
	f, errs := readStageFields(r)
	if len(errs) > 0 {
		h.invalid(w, r, id, errs)
		return
	}
	h.mutate(w, r, id, projecttree.UpdateStage{InterventionID: ids[0], StageID: ids[1], Fields: f}, "Stage updated.")
}

// HandleDeleteStage removes a stage. Its attachments stay in blob storage
// until the project is deleted.
func (h *Handler) HandleDeleteStage(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "sid")
	if !ok {
		return
	}
	h.mutate(w, r, id, projecttree.DeleteStage{InterventionID: ids[0], StageID: ids[1]}, "Stage deleted.")
}

// HandleMoveStage swaps a stage with its neighbour.
func (h *Handler) HandleMoveStage(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "sid")
	if !ok {
		return
	}
	h.mutate(w, r, id, projecttree.MoveStage{
		InterventionID: ids[0],
		StageID:        ids[1],
		Direction:      r.FormValue("direction"),
	}, "Stage moved.")
}

// HandleStageStatus sets a stage's status.
func (h *Handler) HandleStageStatus(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "sid")
	if !ok {
		return
	}
	status := strings.TrimSpace(r.FormValue("status"))
	h.mutate(w, r, id, projecttree.UpdateStageStatus{
		InterventionID: ids[0],
		StageID:        ids[1],
		Status:         status,
	}, "Stage marked "+strings.ToLower(models.StageStatusLabel(status))+".")
}

/* -------------------------------------------------------------------------- */
/* Sub-interventions                                                           */
/* -------------------------------------------------------------------------- */

type subInput struct {
	Code        string `validate:"required,max=50" label:"Code" form:"code"`
	Description string `validate:"required,max=500" label:"Description" form:"description"`
	Unit        string `validate:"max=20" label:"Unit" form:"unit"`
}

func readSub(r *http.Request) (models.SubIntervention, map[string]string) {
	in := subInput{
		Code:        strings.TrimSpace(r.FormValue("code")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Unit:        strings.TrimSpace(r.FormValue("unit")),
	}
	errs := map[string]string{}
	if res := inputval.Validate(in); res.HasErrors() {
		errs = res.Errors
	}
	s := models.SubIntervention{Code: in.Code, Description: in.Description, Unit: in.Unit}
	amounts := []struct {
		name  string
		label string
		dst   *float64
	}{
		{"quantity", "Quantity", &s.Quantity},
		{"eligible_cost", "Eligible cost", &s.EligibleCost},
		{"materials_cost", "Materials cost", &s.MaterialsCost},
		{"labor_cost", "Labor cost", &s.LaborCost},
	}
	for _, a := range amounts {
		v, err := formutil.ParseAmount(r.FormValue(a.name))
		switch {
		case err != nil:
			errs[a.name] = a.label + " must be a number."
		case v < 0:
			errs[a.name] = a.label + " cannot be negative."
		default:
			*a.dst = v
		}
	}
	return s, errs
}

// HandleAddSub appends a costed line item.
func (h *Handler) HandleAddSub(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid")
	if !ok {
		return
	}
	s, errs := readSub(r)
	if len(errs) > 0 {
		h.invalid(w, r, id, errs)
		return
	}
	h.mutate(w, r, id, projecttree.AddSubIntervention{InterventionID: ids[0], Sub: s}, "Line item added.")
}

// HandleUpdateSub replaces a line item.
func (h *Handler) HandleUpdateSub(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "subid")
	if !ok {
		return
	}
	s, errs := readSub(r)
	if len(errs) > 0 {
		h.invalid(w, r, id, errs)
		return
	}
	h.mutate(w, r, id, projecttree.UpdateSubIntervention{
		InterventionID:    ids[0],
		SubInterventionID: ids[1],
		Sub:               s,
	}, "Line item updated.")
}

// HandleDeleteSub removes a line item.
func (h *Handler) HandleDeleteSub(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "subid")
	if !ok {
		return
	}
	h.mutate(w, r, id, projecttree.DeleteSubIntervention{InterventionID: ids[0], SubInterventionID: ids[1]}, "Line item deleted.")
}

// HandleMoveSub swaps a line item with its neighbour.
func (h *Handler) HandleMoveSub(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "subid")
	if !ok {
		return
	}
	h.mutate(w, r, id, projecttree.MoveSubIntervention{
		InterventionID:    ids[0],
		SubInterventionID: ids[1],
		Direction:         r.FormValue("direction"),
	}, "Line item moved.")
}
