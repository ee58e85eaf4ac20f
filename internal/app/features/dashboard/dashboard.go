// internal/app/features/dashboard/dashboard.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/features/reminders"
	metricsstore "github.com/nestoreco/nestor/internal/app/store/metrics"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// reminderLimit caps the open reminders shown on the dashboard.
const reminderLimit = 10

type dashboardData struct {
	viewdata.BaseVM

	Counts    metricsstore.Counts
	Summary   metricsstore.Summary
	Reminders []reminders.Row
}

// ServeDashboard renders the overview every signed-in user lands on.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	now := h.now()

	sum, err := metricsstore.FetchSummary(ctx, h.DB, now)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard summary failed", err, "Failed to load the dashboard.", "/")
		return
	}

	data := dashboardData{
		BaseVM:  viewdata.NewBaseVM(r, "Dashboard", "/"),
		Counts:  metricsstore.FetchDashboardCounts(ctx, h.DB),
		Summary: sum,
	}
	if h.Reminders != nil {
		rows, err := h.Reminders.OpenRows(ctx, reminderLimit, now)
		if err != nil {
			// The rest of the page is still useful without reminders.
			h.Log.Warn("dashboard reminders failed", zap.Error(err))
		}
		data.Reminders = rows
	}
	data.TakeFlash(w, r, h.Flash)

	h.Log.Debug("dashboard served", zap.Int("delayed", len(sum.Delayed)), zap.Int("upcoming", len(sum.Upcoming)))
	templates.Render(w, r, "dashboard", data)
}
