// internal/app/features/contacts/edit.go
package contacts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/navigation"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.uber.org/zap"
)

// ServeNew renders an empty contact form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, formData{Input: contactInput{Role: models.RoleOther}}, nil)
}

// HandleCreate inserts a contact.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readForm(w, r, "/contacts")
	if !ok {
		return
	}
	data := formData{Input: in}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, data, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	c, err := h.Contacts.Create(ctx, in.model())
	switch {
	case errors.Is(err, contactstore.ErrDuplicateEmail):
		h.invalid(w, r, data, map[string]string{"email": "Another contact already uses this email."})
		return
	case err != nil:
		h.Log.Error("contact create failed", zap.Error(err))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the contact."), "/contacts")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventContactCreated, map[string]string{"contact_id": c.ID.Hex(), "name": c.FullName()})
	formutil.Respond(w, r, h.Flash, formutil.OK("Contact "+c.FullName()+" added."),
		navigation.SafeBackURL(r, navigation.ContactsBackURL))
}

// ServeEdit renders the form for an existing contact.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "Contact not found.", "/contacts")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Contacts.GetByID(ctx, id)
	if errors.Is(err, contactstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Contact not found.", "/contacts")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact load failed", err, "Could not load the contact.", "/contacts")
		return
	}
	h.renderForm(w, r, formData{
		ID:     id.Hex(),
		IsEdit: true,
		Input: contactInput{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
			Company:   c.Company,
			Role:      c.Role,
			Notes:     c.Notes,
		},
	}, nil)
}

// HandleEdit saves an existing contact.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "Contact not found.", "/contacts")
		return
	}
	in, ok := h.readForm(w, r, "/contacts")
	if !ok {
		return
	}
	data := formData{ID: id.Hex(), IsEdit: true, Input: in}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, data, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	err := h.Contacts.Update(ctx, id, in.model())
	switch {
	case errors.Is(err, contactstore.ErrDuplicateEmail):
		h.invalid(w, r, data, map[string]string{"email": "Another contact already uses this email."})
		return
	case errors.Is(err, contactstore.ErrNotFound):
		formutil.Respond(w, r, h.Flash, formutil.Fail("Contact not found."), "/contacts")
		return
	case err != nil:
		h.Log.Error("contact update failed", zap.Error(err), zap.String("contact_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the contact."), "/contacts")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventContactUpdated, map[string]string{"contact_id": id.Hex()})
	formutil.Respond(w, r, h.Flash, formutil.OK("Contact updated."),
		navigation.SafeBackURL(r, navigation.ContactsBackURL))
}

func (h *Handler) readForm(w http.ResponseWriter, r *http.Request, back string) (contactInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", back)
		return contactInput{}, false
	}
	return contactInput{
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Phone:     strings.TrimSpace(r.FormValue("phone")),
		Company:   strings.TrimSpace(r.FormValue("company")),
		Role:      strings.TrimSpace(r.FormValue("role")),
		Notes:     strings.TrimSpace(r.FormValue("notes")),
	}, true
}

func (in contactInput) model() models.Contact {
	return models.Contact{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Company:   in.Company,
		Role:      in.Role,
		Notes:     in.Notes,
	}
}

func (h *Handler) invalid(w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	if formutil.WantsJSON(r) {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(errs), "")
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.renderForm(w, r, data, errs)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	title := "New contact"
	if data.IsEdit {
		title = "Edit contact"
	}
	data.Roles = models.ContactRoles
	formutil.SetBase(&data.Base, r, title, navigation.SafeBackURL(r, navigation.ContactsBackURL))
	data.SetErrors(errs)
	templates.Render(w, r, "contact_form", data)
}
