// internal/app/features/projects/helpers.go
package projects

import (
	"context"
	"sort"
	"time"

	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// contactNames resolves every contact id referenced by the projects.
func (h *Handler) contactNames(ctx context.Context, ps ...models.Project) (map[primitive.ObjectID]string, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	for _, p := range ps {
		add(p.OwnerID)
		for _, iv := range p.Interventions {
			for _, st := range iv.Stages {
				add(st.AssigneeID)
				add(st.SupervisorID)
			}
		}
	}
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	byID, err := h.Contacts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, c := range byID {
		names[id] = c.FullName()
	}
	return names, nil
}

func nameOf(names map[primitive.ObjectID]string, id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return names[*id]
}

func hexOf(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

// contactOptions lists contacts for owner / assignee pickers.
func (h *Handler) contactOptions(ctx context.Context, roles ...string) ([]option, error) {
	cs, err := h.Contacts.All(ctx, roles...)
	if err != nil {
		return nil, err
	}
	out := make([]option, 0, len(cs))
	for _, c := range cs {
		label := c.FullName()
		if c.Company != "" {
			label += " (" + c.Company + ")"
		}
		out = append(out, option{Value: c.ID.Hex(), Label: label})
	}
	return out, nil
}

func stageStatusOptions() []option {
	statuses := []string{models.StagePending, models.StageInProgress, models.StageCompleted, models.StageFailed}
	out := make([]option, len(statuses))
	for i, s := range statuses {
		out[i] = option{Value: s, Label: models.StageStatusLabel(s)}
	}
	return out
}

func isOverdue(st models.Stage, now time.Time) bool {
	return st.Deadline != nil && st.Deadline.Before(now) &&
		st.Status != models.StageCompleted && st.Status != models.StageFailed
}

// buildInterventions turns a computed project into the tree the detail
// and report pages render.
func buildInterventions(p models.Project, names map[primitive.ObjectID]string, now time.Time) []interventionView {
	out := make([]interventionView, 0, len(p.Interventions))
	for _, iv := range p.Interventions {
		v := interventionView{
			Intervention: iv,
			Name:         iv.DisplayName(),
			Totals:       projectmetrics.ProjectTotals(models.Project{Interventions: []models.Intervention{iv}}),
		}
		for i, st := range iv.Stages {
			v.Stages = append(v.Stages, stageView{
				Stage:         st,
				StatusLabel:   models.StageStatusLabel(st.Status),
				Assignee:      nameOf(names, st.AssigneeID),
				Supervisor:    nameOf(names, st.SupervisorID),
				AssigneeHex:   hexOf(st.AssigneeID),
				SupervisorHex: hexOf(st.SupervisorID),
				Overdue:       isOverdue(st, now),
				Deadline:      formutil.FormatDate(st.Deadline),
				First:         i == 0,
				Last:          i == len(iv.Stages)-1,
			})
		}
		for i, s := range iv.SubInterventions {
			v.Subs = append(v.Subs, subView{
				SubIntervention: s,
				Internal:        projectmetrics.InternalCost(s),
				Profit:          projectmetrics.Profit(s),
				First:           i == 0,
				Last:            i == len(iv.SubInterventions)-1,
			})
		}
		out = append(out, v)
	}
	return out
}

// recentAudit returns the newest n entries, newest first.
func recentAudit(log []models.AuditEntry, n int) []models.AuditEntry {
	out := make([]models.AuditEntry, len(log))
	copy(out, log)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
