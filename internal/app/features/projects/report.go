// internal/app/features/projects/report.go
package projects

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/system/csvutil"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"go.uber.org/zap"
)

// ServeReport renders a printable summary of one project.
func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	stored, ok := h.loadProject(ctx, w, r)
	if !ok {
		return
	}
	now := h.now()
	p := projectmetrics.AtRequestTime(stored, now)
	names, err := h.contactNames(ctx, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact lookup failed", err, "Could not build the report.", "/projects/"+p.ID.Hex())
		return
	}

	data := reportData{
		BaseVM:        viewdata.NewBaseVM(r, p.Title+" report", "/projects/"+p.ID.Hex()),
		Project:       p,
		Owner:         nameOf(names, p.OwnerID),
		Deadline:      formutil.FormatDate(p.Deadline),
		Totals:        projectmetrics.ProjectTotals(p),
		Interventions: buildInterventions(p, names, now),
		GeneratedAt:   now.Format("2006-01-02 15:04 MST"),
	}
	templates.Render(w, r, "project_report", data)
}

// ServeProjectCSV exports the line items and stages of one project.
func (h *Handler) ServeProjectCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	stored, ok := h.loadProject(ctx, w, r)
	if !ok {
		return
	}
	now := h.now()
	p := projectmetrics.AtRequestTime(stored, now)
	names, err := h.contactNames(ctx, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "contact lookup failed", err, "Could not export the project.", "/projects/"+p.ID.Hex())
		return
	}

	csvutil.Attach(w, csvutil.Filename(slug(p.Title), now))
	cw := csvutil.NewWriter(w)
	_ = cw.Row("Intervention", "Expense category", "Type", "Code", "Description", "Quantity", "Unit",
		"Eligible cost", "Internal cost", "Profit", "Stage status", "Deadline", "Assignee")
	for _, iv := range p.Interventions {
		name := iv.DisplayName()
		for _, s := range iv.SubInterventions {
			_ = cw.Row(name, iv.ExpenseCategory, "line", s.DisplayCode, s.Description,
				strconv.FormatFloat(s.Quantity, 'f', -1, 64), s.Unit,
				csvutil.Money(s.EligibleCost), csvutil.Money(projectmetrics.InternalCost(s)), csvutil.Money(projectmetrics.Profit(s)),
				"", "", "")
		}
		for _, st := range iv.Stages {
			_ = cw.Row(name, iv.ExpenseCategory, "stage", "", st.Title, "", "", "", "", "",
				st.Status, csvutil.Date(st.Deadline), nameOf(names, st.AssigneeID))
		}
	}
	t := projectmetrics.ProjectTotals(p)
	_ = cw.Row("Total", "", "", "", "", "", "", csvutil.Money(t.Program), csvutil.Money(t.Internal), csvutil.Money(t.Profit), "", "", "")
	if err := cw.Flush(); err != nil {
		h.Log.Warn("project export write failed", zap.Error(err), zap.String("project_id", p.ID.Hex()))
	}
}

// slug makes a file-name-safe base from a title.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(title) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "project"
	}
	if len(s) > 60 {
		s = strings.TrimSuffix(s[:60], "-")
	}
	return s
}
