// internal/app/features/offers/list.go
package offers

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList renders offers newest first, filtered by supplier, project
// and status.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := listData{
		BaseVM:     viewdata.NewBaseVM(r, "Offers", "/"),
		SupplierID: query.Get(r, "supplier"),
		ProjectID:  query.Get(r, "project"),
		Status:     query.Get(r, "status"),
		Statuses:   offerStatuses,
	}
	var f offerstore.ListFilter
	if id, err := primitive.ObjectIDFromHex(data.SupplierID); err == nil {
		f.SupplierID = id
	} else {
		data.SupplierID = ""
	}
	if id, err := primitive.ObjectIDFromHex(data.ProjectID); err == nil {
		f.ProjectID = id
	} else {
		data.ProjectID = ""
	}
	for _, s := range offerStatuses {
		if s == data.Status {
			f.Status = s
		}
	}
	data.Status = f.Status

	os, err := h.Offers.List(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "offer list failed", err, "Could not load offers.", "/")
		return
	}
	suppliers, supplierNames, err := h.supplierOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "supplier options failed", err, "Could not load offers.", "/")
		return
	}
	projects, projectNames, err := h.projectOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "project options failed", err, "Could not load offers.", "/")
		return
	}
	data.Suppliers, data.Projects = suppliers, projects

	for _, o := range os {
		row := listRow{
			ID:         o.ID.Hex(),
			Title:      o.Title,
			Supplier:   h.supplierName(ctx, supplierNames, o.SupplierID),
			Amount:     o.Amount,
			Status:     o.Status,
			ValidUntil: formutil.FormatDate(o.ValidUntil),
			HasFile:    o.File != nil,
			Analyzed:   o.Analysis != "",
		}
		if o.ProjectID != nil {
			row.ProjectID = o.ProjectID.Hex()
			row.Project = projectNames[*o.ProjectID]
		}
		data.Rows = append(data.Rows, row)
		data.Total += o.Amount
	}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "offers_list", data)
}
