// internal/app/features/settings/catalog.go
package settings

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	masterinterventionstore "github.com/nestoreco/nestor/internal/app/store/masterinterventions"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.uber.org/zap"
)

type catalogVM struct {
	viewdata.BaseVM
	Entries []models.MasterIntervention
}

// catalogInput defines validation rules for a catalog entry.
type catalogInput struct {
	Category        string `validate:"required,max=200" label:"Category" form:"category"`
	Subcategory     string `validate:"max=200" label:"Subcategory" form:"subcategory"`
	ExpenseCategory string `validate:"max=200" label:"Expense category" form:"expense_category"`
	Code            string `validate:"max=50" label:"Code" form:"code"`
	Unit            string `validate:"max=20" label:"Unit" form:"unit"`
	Stages          string `validate:"max=5000" label:"Default stages" form:"default_stages"`
}

type catalogFormVM struct {
	formutil.Base
	ID     string
	IsEdit bool
	Input  catalogInput
}

// ServeCatalog lists the master intervention catalog.
func (h *Handler) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	entries, err := h.Catalog.All(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "catalog list failed", err, "Failed to load the catalog.", "/")
		return
	}
	data := catalogVM{BaseVM: viewdata.NewBaseVM(r, "Intervention catalog", "/"), Entries: entries}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "settings_catalog", data)
}

// ServeNew renders an empty catalog entry form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, catalogFormVM{}, nil)
}

// HandleCreate adds a catalog entry.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readForm(w, r)
	if !ok {
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, catalogFormVM{Input: in}, res.Errors)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	m, err := h.Catalog.Create(ctx, in.model())
	switch {
	case errors.Is(err, masterinterventionstore.ErrDuplicate):
		h.invalid(w, r, catalogFormVM{Input: in}, map[string]string{"subcategory": err.Error() + "."})
		return
	case err != nil:
		h.Log.Error("catalog create failed", zap.Error(err))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the catalog entry."), "/settings")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCatalogItemCreated, map[string]string{"catalog_id": m.ID.Hex(), "category": m.Category})
	formutil.Respond(w, r, h.Flash, formutil.OK("Catalog entry added."), "/settings")
}

// ServeEdit renders the form for a catalog entry.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "Catalog entry not found.", "/settings")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	m, err := h.Catalog.GetByID(ctx, id)
	if errors.Is(err, masterinterventionstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Catalog entry not found.", "/settings")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "catalog load failed", err, "Failed to load the catalog entry.", "/settings")
		return
	}
	h.renderForm(w, r, catalogFormVM{
		ID:     id.Hex(),
		IsEdit: true,
		Input: catalogInput{
			Category:        m.Category,
			Subcategory:     m.Subcategory,
			ExpenseCategory: m.ExpenseCategory,
			Code:            m.Code,
			Unit:            m.Unit,
			Stages:          strings.Join(m.DefaultStages, "\n"),
		},
	}, nil)
}

// HandleEdit saves a catalog entry. Project interventions keep the labels
// they were created with.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Catalog entry not found."), "/settings")
		return
	}
	in, ok := h.readForm(w, r)
	if !ok {
		return
	}
	data := catalogFormVM{ID: id.Hex(), IsEdit: true, Input: in}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, data, res.Errors)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	err := h.Catalog.Update(ctx, id, in.model())
	switch {
	case errors.Is(err, masterinterventionstore.ErrDuplicate):
		h.invalid(w, r, data, map[string]string{"subcategory": err.Error() + "."})
		return
	case errors.Is(err, masterinterventionstore.ErrNotFound):
		formutil.Respond(w, r, h.Flash, formutil.Fail("Catalog entry not found."), "/settings")
		return
	case err != nil:
		h.Log.Error("catalog update failed", zap.Error(err), zap.String("catalog_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the catalog entry."), "/settings")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCatalogItemUpdated, map[string]string{"catalog_id": id.Hex()})
	formutil.Respond(w, r, h.Flash, formutil.OK("Catalog entry updated."), "/settings")
}

// HandleDelete removes a catalog entry.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Catalog entry not found."), "/settings")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	err := h.Catalog.Delete(ctx, id)
	switch {
	case errors.Is(err, masterinterventionstore.ErrNotFound):
		formutil.Respond(w, r, h.Flash, formutil.Fail("Catalog entry not found."), "/settings")
		return
	case err != nil:
		h.Log.Error("catalog delete failed", zap.Error(err), zap.String("catalog_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not delete the catalog entry."), "/settings")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventCatalogItemDeleted, map[string]string{"catalog_id": id.Hex()})
	formutil.Respond(w, r, h.Flash, formutil.OK("Catalog entry deleted."), "/settings")
}

func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (catalogInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/settings")
		return catalogInput{}, false
	}
	return catalogInput{
		Category:        strings.TrimSpace(r.FormValue("category")),
		Subcategory:     strings.TrimSpace(r.FormValue("subcategory")),
		ExpenseCategory: strings.TrimSpace(r.FormValue("expense_category")),
		Code:            strings.TrimSpace(r.FormValue("code")),
		Unit:            strings.TrimSpace(r.FormValue("unit")),
		Stages:          r.FormValue("default_stages"),
	}, true
}

// model splits the stage textarea one title per line.
func (in catalogInput) model() models.MasterIntervention {
	var stages []string
	for _, line := range strings.Split(strings.ReplaceAll(in.Stages, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			stages = append(stages, line)
		}
	}
	return models.MasterIntervention{
		Category:        in.Category,
		Subcategory:     in.Subcategory,
		ExpenseCategory: in.ExpenseCategory,
		Code:            in.Code,
		Unit:            in.Unit,
		DefaultStages:   stages,
	}
}

func (h *Handler) invalid(w http.ResponseWriter, r *http.Request, data catalogFormVM, errs map[string]string) {
	if formutil.WantsJSON(r) {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(errs), "")
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.renderForm(w, r, data, errs)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data catalogFormVM, errs map[string]string) {
	title := "New catalog entry"
	if data.IsEdit {
		title = "Edit catalog entry"
	}
	formutil.SetBase(&data.Base, r, title, "/settings")
	data.SetErrors(errs)
	templates.Render(w, r, "settings_catalog_form", data)
}
