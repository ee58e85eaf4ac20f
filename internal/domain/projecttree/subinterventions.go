package projecttree

import (
	"fmt"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddSubIntervention appends a costed line item to an intervention.
type AddSubIntervention struct {
	InterventionID primitive.ObjectID
	Sub            models.SubIntervention
}

func (op AddSubIntervention) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	s := op.Sub
	s.ID = primitive.NewObjectID()
	s.DisplayCode = ""
	iv.SubInterventions = append(iv.SubInterventions, s)
	return Change{
		Action:  "sub_intervention_added",
		Details: fmt.Sprintf("Added line %s %q (%.2f) to %q", s.Code, s.Description, s.EligibleCost, iv.DisplayName()),
		ID:      s.ID,
	}, nil
}

// UpdateSubIntervention replaces a line item, keeping its id.
type UpdateSubIntervention struct {
	InterventionID    primitive.ObjectID
	SubInterventionID primitive.ObjectID
	Sub               models.SubIntervention
}

func (op UpdateSubIntervention) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	s, _, err := findSub(iv, op.SubInterventionID)
	if err != nil {
		return Change{}, err
	}
	next := op.Sub
	next.ID = s.ID
	next.DisplayCode = ""
	*s = next
	return Change{
		Action:  "sub_intervention_updated",
		Details: fmt.Sprintf("Updated line %s %q in %q", s.Code, s.Description, iv.DisplayName()),
	}, nil
}

// DeleteSubIntervention removes a line item.
type DeleteSubIntervention struct {
	InterventionID    primitive.ObjectID
	SubInterventionID primitive.ObjectID
}

func (op DeleteSubIntervention) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	s, idx, err := findSub(iv, op.SubInterventionID)
	if err != nil {
		return Change{}, err
	}
	desc := s.Description
	iv.SubInterventions = append(iv.SubInterventions[:idx], iv.SubInterventions[idx+1:]...)
	return Change{
		Action:  "sub_intervention_deleted",
		Details: fmt.Sprintf("Deleted line %q from %q", desc, iv.DisplayName()),
	}, nil
}

// MoveSubIntervention swaps a line item with its neighbour.
type MoveSubIntervention struct {
	InterventionID    primitive.ObjectID
	SubInterventionID primitive.ObjectID
	Direction         string
}

func (op MoveSubIntervention) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	s, idx, err := findSub(iv, op.SubInterventionID)
	if err != nil {
		return Change{}, err
	}
	to, ok, err := moveTarget(idx, len(iv.SubInterventions), op.Direction)
	if err != nil {
		return Change{}, err
	}
	if !ok {
		return Change{NoOp: true, Message: edgeMessage("Line item", op.Direction)}, nil
	}
	desc := s.Description
	iv.SubInterventions[idx], iv.SubInterventions[to] = iv.SubInterventions[to], iv.SubInterventions[idx]
	return Change{
		Action:  "sub_intervention_moved",
		Details: fmt.Sprintf("Moved line %q %s in %q", desc, op.Direction, iv.DisplayName()),
	}, nil
}
