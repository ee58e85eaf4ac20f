// internal/app/features/offers/delete.go
package offers

import (
	"context"
	"errors"
	"net/http"

	"github.com/nestoreco/nestor/internal/app/store/audit"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/gates"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleDelete removes an offer and its stored document. Admins only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !gates.RequireAdmin(w, r, "Only administrators can delete offers.", "/offers").OK {
		return
	}
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Offer not found."), "/offers")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	o, err := h.Offers.Delete(ctx, id)
	switch {
	case errors.Is(err, offerstore.ErrNotFound):
		formutil.Respond(w, r, h.Flash, formutil.Fail("Offer not found."), "/offers")
		return
	case err != nil:
		h.Log.Error("offer delete failed", zap.Error(err), zap.String("offer_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not delete the offer."), "/offers")
		return
	}
	if o.File != nil {
		if err := h.Blobs.Delete(ctx, o.File.Key); err != nil {
			h.Log.Warn("offer file not removed", zap.Error(err), zap.String("key", o.File.Key))
		}
	}
	h.Log.Info("offer deleted", zap.String("offer_id", id.Hex()), zap.String("actor", authz.ActorName(r)))
	h.AuditLog.Admin(ctx, r, audit.EventOfferDeleted, map[string]string{"offer_id": id.Hex(), "title": o.Title})
	formutil.Respond(w, r, h.Flash, formutil.OK("Offer deleted."), "/offers")
}
