// internal/app/features/offers/view.go
package offers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/htmlsanitize"
	"github.com/nestoreco/nestor/internal/app/system/navigation"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
)

// loadOffer reads the {id} offer, answering the request itself on failure.
func (h *Handler) loadOffer(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Offer, bool) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "Offer not found.", "/offers")
		return models.Offer{}, false
	}
	o, err := h.Offers.GetByID(ctx, id)
	if errors.Is(err, offerstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Offer not found.", "/offers")
		return models.Offer{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "offer load failed", err, "Could not load the offer.", "/offers")
		return models.Offer{}, false
	}
	return o, true
}

// ServeView renders one offer with its document and analysis.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	o, ok := h.loadOffer(ctx, w, r)
	if !ok {
		return
	}

	data := viewData{
		BaseVM:     viewdata.NewBaseVM(r, o.Title, navigation.SafeBackURL(r, navigation.OffersBackURL)),
		Offer:      o,
		ValidUntil: formutil.FormatDate(o.ValidUntil),
		AIEnabled:  h.Flows != nil && h.Flows.Enabled(),
		CanDelete:  authz.IsAdmin(r),
	}
	if c, err := h.Contacts.GetByID(ctx, o.SupplierID); err == nil {
		data.Supplier = c.FullName()
		if c.Company != "" {
			data.Supplier = c.Company + " (" + c.FullName() + ")"
		}
	}
	if o.ProjectID != nil {
		if p, err := h.Projects.GetByID(ctx, *o.ProjectID); err == nil {
			data.Project = p.Title
		}
	}
	if o.Analysis != "" {
		data.AnalysisHTML = htmlsanitize.PrepareForDisplay(o.Analysis)
	}
	if o.AnalyzedAt != nil {
		data.AnalyzedAt = o.AnalyzedAt.UTC().Format("2006-01-02 15:04")
	}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "offer_view", data)
}
