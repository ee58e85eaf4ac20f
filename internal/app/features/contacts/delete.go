// internal/app/features/contacts/delete.go
package contacts

import (
	"context"
	"errors"
	"net/http"

	"github.com/nestoreco/nestor/internal/app/store/audit"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/gates"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDelete removes a contact no project or offer points at. Admins only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !gates.RequireAdmin(w, r, "Only administrators can delete contacts.", "/contacts").OK {
		return
	}
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Contact not found."), "/contacts")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Contacts.Delete(ctx, id, h.refs...)
	switch {
	case errors.Is(err, contactstore.ErrInUse):
		formutil.Respond(w, r, h.Flash,
			formutil.Fail("This contact is still used by a project or an offer and cannot be deleted."), "/contacts")
		return
	case errors.Is(err, contactstore.ErrNotFound):
		formutil.Respond(w, r, h.Flash, formutil.Fail("Contact not found."), "/contacts")
		return
	case err != nil:
		h.Log.Error("contact delete failed", zap.Error(err), zap.String("contact_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not delete the contact."), "/contacts")
		return
	}
	h.Log.Info("contact deleted", zap.String("contact_id", id.Hex()), zap.String("actor", authz.ActorName(r)))
	h.AuditLog.Admin(ctx, r, audit.EventContactDeleted, map[string]string{"contact_id": id.Hex()})
	formutil.Respond(w, r, h.Flash, formutil.OK("Contact deleted."), "/contacts")
}
