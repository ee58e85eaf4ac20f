// internal/app/features/contacts/list.go
package contacts

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	"github.com/nestoreco/nestor/internal/app/system/csvutil"
	"github.com/nestoreco/nestor/internal/app/system/paging"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.uber.org/zap"
)

func listFilter(r *http.Request) contactstore.ListFilter {
	f := contactstore.ListFilter{Search: query.Get(r, "q"), Role: query.Get(r, "role")}
	if !models.IsContactRole(f.Role) {
		f.Role = ""
	}
	return f
}

// ServeList renders the contact directory.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f := listFilter(r)
	page, err := h.Contacts.List(ctx, f, paging.FromRequest(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact list failed", err, "Could not load contacts.", "/")
		return
	}
	data := listData{
		BaseVM: viewdata.NewBaseVM(r, "Contacts", "/"),
		Search: f.Search,
		Role:   f.Role,
		Roles:  models.ContactRoles,
		Rows:   page.Rows,
		Pager:  page.Nav(r),
	}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "contacts_list", data)
}

// ServeCSV exports contacts in the import column order, so a file can be
// edited and imported elsewhere.
func (h *Handler) ServeCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f := listFilter(r)
	var roles []string
	if f.Role != "" {
		roles = append(roles, f.Role)
	}
	cs, err := h.Contacts.All(ctx, roles...)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact export failed", err, "Could not export contacts.", "/contacts")
		return
	}
	csvutil.Attach(w, csvutil.Filename("contacts", time.Now().UTC()))
	cw := csvutil.NewWriter(w)
	_ = cw.Row("First name", "Last name", "Email", "Phone", "Company", "Role")
	for _, c := range cs {
		_ = cw.Row(c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.Role)
	}
	if err := cw.Flush(); err != nil {
		h.Log.Warn("contact export write failed", zap.Error(err))
	}
}
