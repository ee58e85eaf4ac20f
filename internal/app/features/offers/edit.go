// internal/app/features/offers/edit.go
package offers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/navigation"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeNew renders an empty offer form. ?project= and ?supplier= preselect.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	in := offerInput{
		Status:     models.OfferReceived,
		ProjectID:  r.URL.Query().Get("project"),
		SupplierID: r.URL.Query().Get("supplier"),
	}
	h.renderForm(ctx, w, r, formData{Input: in}, nil)
}

// HandleCreate validates the form and inserts an offer.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readForm(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := formData{Input: in}
	o, errs := h.parse(ctx, in)
	if len(errs) > 0 {
		h.invalid(ctx, w, r, data, errs)
		return
	}
	created, err := h.Offers.Create(ctx, o)
	if err != nil {
		h.Log.Error("offer create failed", zap.Error(err))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the offer."), "/offers")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventOfferCreated, map[string]string{"offer_id": created.ID.Hex(), "title": created.Title})
	formutil.Respond(w, r, h.Flash, formutil.OK("Offer saved."), "/offers/"+created.ID.Hex())
}

// ServeEdit renders the form for an existing offer.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	o, ok := h.loadOffer(ctx, w, r)
	if !ok {
		return
	}
	in := offerInput{
		Title:      o.Title,
		SupplierID: o.SupplierID.Hex(),
		Amount:     formutil.FormatAmount(o.Amount),
		ValidUntil: formutil.FormatDate(o.ValidUntil),
		Status:     o.Status,
	}
	if o.ProjectID != nil {
		in.ProjectID = o.ProjectID.Hex()
	}
	h.renderForm(ctx, w, r, formData{ID: o.ID.Hex(), IsEdit: true, Input: in}, nil)
}

// HandleEdit saves the header fields of an offer.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Offer not found."), "/offers")
		return
	}
	in, ok := h.readForm(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := formData{ID: id.Hex(), IsEdit: true, Input: in}
	o, errs := h.parse(ctx, in)
	if len(errs) > 0 {
		h.invalid(ctx, w, r, data, errs)
		return
	}
	err := h.Offers.Update(ctx, id, o)
	switch {
	case errors.Is(err, offerstore.ErrNotFound):
		formutil.Respond(w, r, h.Flash, formutil.Fail("Offer not found."), "/offers")
		return
	case err != nil:
		h.Log.Error("offer update failed", zap.Error(err), zap.String("offer_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the offer."), "/offers")
		return
	}
	formutil.Respond(w, r, h.Flash, formutil.OK("Offer updated."), "/offers/"+id.Hex())
}

func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (offerInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/offers")
		return offerInput{}, false
	}
	in := offerInput{
		Title:      strings.TrimSpace(r.FormValue("title")),
		SupplierID: strings.TrimSpace(r.FormValue("supplier_id")),
		ProjectID:  strings.TrimSpace(r.FormValue("project_id")),
		Amount:     strings.TrimSpace(r.FormValue("amount")),
		ValidUntil: strings.TrimSpace(r.FormValue("valid_until")),
		Status:     strings.TrimSpace(r.FormValue("status")),
	}
	if in.Status == "" {
		in.Status = models.OfferReceived
	}
	return in, true
}

// parse validates in and resolves its references.
func (h *Handler) parse(ctx context.Context, in offerInput) (models.Offer, map[string]string) {
	errs := map[string]string{}
	if res := inputval.Validate(in); res.HasErrors() {
		errs = res.Errors
	}
	o := models.Offer{Title: in.Title, Status: in.Status}

	if _, bad := errs["supplier_id"]; !bad {
		id, err := primitive.ObjectIDFromHex(in.SupplierID)
		if err != nil {
			errs["supplier_id"] = "Supplier is invalid."
		} else if _, err := h.Contacts.GetByID(ctx, id); errors.Is(err, contactstore.ErrNotFound) {
			errs["supplier_id"] = "Supplier no longer exists."
		} else {
			o.SupplierID = id
		}
	}
	if pid, err := formutil.ParseOptionalID(in.ProjectID); err != nil {
		errs["project_id"] = "Project is invalid."
	} else if pid != nil {
		if _, err := h.Projects.GetByID(ctx, *pid); errors.Is(err, projectstore.ErrNotFound) {
			errs["project_id"] = "Project no longer exists."
		}
		o.ProjectID = pid
	}
	if in.Amount != "" {
		amount, err := formutil.ParseAmount(in.Amount)
		if err != nil || amount < 0 {
			errs["amount"] = "Amount must be a non-negative number."
		}
		o.Amount = amount
	}
	valid, err := formutil.ParseDate(in.ValidUntil)
	if err != nil {
		errs["valid_until"] = "Valid until must be a date."
	}
	o.ValidUntil = valid
	return o, errs
}

func (h *Handler) invalid(ctx context.Context, w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	if formutil.WantsJSON(r) {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(errs), "")
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.renderForm(ctx, w, r, data, errs)
}

func (h *Handler) renderForm(ctx context.Context, w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	suppliers, _, err := h.supplierOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "supplier options failed", err, "Could not load suppliers.", "/offers")
		return
	}
	projects, _, err := h.projectOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "project options failed", err, "Could not load projects.", "/offers")
		return
	}
	data.Suppliers, data.Projects, data.Statuses = suppliers, projects, offerStatuses

	title, back := "New offer", navigation.SafeBackURL(r, navigation.OffersBackURL)
	if data.IsEdit {
		title, back = "Edit offer", "/offers/"+data.ID
	}
	formutil.SetBase(&data.Base, r, title, back)
	data.SetErrors(errs)
	templates.Render(w, r, "offer_form", data)
}
