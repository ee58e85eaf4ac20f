// internal/app/features/projects/list.go
package projects

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/csvutil"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/paging"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func listFilter(r *http.Request) projectstore.ListFilter {
	f := projectstore.ListFilter{Search: query.Get(r, "q"), Status: query.Get(r, "status")}
	valid := false
	for _, s := range filterStatuses {
		if s == f.Status {
			valid = true
		}
	}
	if !valid {
		f.Status = ""
	}
	return f
}

// ServeList renders the project list with search, status filter and
// keyset paging. Metrics are shown as of the request.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f := listFilter(r)
	page, err := h.Projects.List(ctx, f, paging.FromRequest(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "project list failed", err, "Could not load projects.", "/")
		return
	}
	names, err := h.contactNames(ctx, page.Rows...)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "owner lookup failed", err, "Could not load projects.", "/")
		return
	}

	now := h.now()
	rows := make([]listRow, 0, len(page.Rows))
	for _, p := range page.Rows {
		v := projectmetrics.AtRequestTime(p, now)
		rows = append(rows, listRow{
			ID:                v.ID.Hex(),
			Title:             v.Title,
			ApplicationNumber: v.ApplicationNumber,
			Owner:             nameOf(names, v.OwnerID),
			Status:            v.Status,
			Progress:          v.Progress,
			Alerts:            v.Alerts,
			Budget:            v.Budget,
			Deadline:          formutil.FormatDate(v.Deadline),
		})
	}

	q := url.Values{}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	export := "/projects/export.csv"
	if len(q) > 0 {
		export += "?" + q.Encode()
	}

	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, "Projects", "/"),
		Search:    f.Search,
		Status:    f.Status,
		Statuses:  filterStatuses,
		Rows:      rows,
		Pager:     page.Nav(r),
		ExportURL: export,
	}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "projects_list", data)
}

// ServeListCSV exports every project matching the list filters.
func (h *Handler) ServeListCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	now := h.now()
	ps, err := h.Projects.Find(ctx, listFilter(r).Filter(now),
		options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}}))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "project export failed", err, "Could not export projects.", "/projects")
		return
	}
	names, err := h.contactNames(ctx, ps...)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "owner lookup failed", err, "Could not export projects.", "/projects")
		return
	}

	csvutil.Attach(w, csvutil.Filename("projects", now))
	cw := csvutil.NewWriter(w)
	_ = cw.Row("Title", "Application number", "Owner", "Program", "Status", "Progress %", "Alerts",
		"Budget", "Internal cost", "Profit", "Deadline")
	for _, p := range ps {
		v := projectmetrics.AtRequestTime(p, now)
		t := projectmetrics.ProjectTotals(v)
		_ = cw.Row(v.Title, v.ApplicationNumber, nameOf(names, v.OwnerID), v.ProgramName, v.Status,
			strconv.Itoa(v.Progress), strconv.Itoa(v.Alerts),
			csvutil.Money(v.Budget), csvutil.Money(t.Internal), csvutil.Money(t.Profit),
			csvutil.Date(v.Deadline))
	}
	if err := cw.Flush(); err != nil {
		h.Log.Warn("project export write failed", zap.Error(err))
	}
}
