package projecttree

import (
	"fmt"
	"strings"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddIntervention adds an intervention drawn from the master catalog,
// pre-populated with the catalog's default stages.
type AddIntervention struct {
	Master models.MasterIntervention
	Notes  string
}

func (op AddIntervention) Apply(p *models.Project, now time.Time) (Change, error) {
	iv := models.Intervention{
		ID:                   primitive.NewObjectID(),
		MasterInterventionID: op.Master.ID,
		Category:             op.Master.Category,
		Subcategory:          op.Master.Subcategory,
		ExpenseCategory:      op.Master.ExpenseCategory,
		Notes:                op.Notes,
		SubInterventions:     []models.SubIntervention{},
		Stages:               make([]models.Stage, 0, len(op.Master.DefaultStages)),
	}
	for _, title := range op.Master.DefaultStages {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		iv.Stages = append(iv.Stages, models.Stage{
			ID:          primitive.NewObjectID(),
			Title:       title,
			Status:      models.StagePending,
			Attachments: []models.Attachment{},
		})
	}
	p.Interventions = append(p.Interventions, iv)
	return Change{
		Action:  "intervention_added",
		Details: fmt.Sprintf("Added intervention %q with %d stages", iv.DisplayName(), len(iv.Stages)),
		ID:      iv.ID,
	}, nil
}

// UpdateIntervention edits the free-text fields of an intervention.
type UpdateIntervention struct {
	InterventionID primitive.ObjectID
	Subcategory    string
	Notes          string
}

func (op UpdateIntervention) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	if op.Subcategory != "" {
		iv.Subcategory = op.Subcategory
	}
	iv.Notes = op.Notes
	return Change{
		Action:  "intervention_updated",
		Details: fmt.Sprintf("Updated intervention %q", iv.DisplayName()),
	}, nil
}

// DeleteIntervention removes an intervention with all its stages and
// sub-interventions.
type DeleteIntervention struct {
	InterventionID primitive.ObjectID
}

func (op DeleteIntervention) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, idx, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	name := iv.DisplayName()
	p.Interventions = append(p.Interventions[:idx], p.Interventions[idx+1:]...)
	return Change{
		Action:  "intervention_deleted",
		Details: fmt.Sprintf("Deleted intervention %q", name),
	}, nil
}

// UpdateDetails edits the project header fields.
type UpdateDetails struct {
	Title             string
	ApplicationNumber string
	OwnerID           *primitive.ObjectID
	Address           string
	ProgramName       string
	Notes             string
	Deadline          *time.Time
	Status            string
}

func (op UpdateDetails) Apply(p *models.Project, now time.Time) (Change, error) {
	p.Title = op.Title
	p.ApplicationNumber = op.ApplicationNumber
	p.OwnerID = op.OwnerID
	p.Address = op.Address
	p.ProgramName = op.ProgramName
	p.Notes = op.Notes
	p.Deadline = op.Deadline
	if op.Status != "" && op.Status != p.Status {
		p.Status = op.Status
		p.StatusManual = op.Status == models.StatusCompleted
	}
	return Change{
		Action:  "project_updated",
		Details: fmt.Sprintf("Updated project details (status %s)", p.Status),
	}, nil
}
