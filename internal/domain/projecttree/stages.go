package projecttree

import (
	"fmt"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StageFields are the editable fields of a stage.
type StageFields struct {
	Title        string
	Description  string
	Deadline     *time.Time
	AssigneeID   *primitive.ObjectID
	SupervisorID *primitive.ObjectID
	Notes        string
}

// AddStage appends a pending stage to an intervention.
type AddStage struct {
	InterventionID primitive.ObjectID
	Fields         StageFields
}

func (op AddStage) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	st := models.Stage{
		ID:          primitive.NewObjectID(),
		Status:      models.StagePending,
		Attachments: []models.Attachment{},
	}
	applyStageFields(&st, op.Fields)
	iv.Stages = append(iv.Stages, st)
	return Change{
		Action:  "stage_added",
		Details: fmt.Sprintf("Added stage %q to %q", st.Title, iv.DisplayName()),
		ID:      st.ID,
	}, nil
}

// UpdateStage replaces the editable fields of a stage.
type UpdateStage struct {
	InterventionID primitive.ObjectID
	StageID        primitive.ObjectID
	Fields         StageFields
}

func (op UpdateStage) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	st, _, err := findStage(iv, op.StageID)
	if err != nil {
		return Change{}, err
	}
	applyStageFields(st, op.Fields)
	return Change{
		Action:  "stage_updated",
		Details: fmt.Sprintf("Updated stage %q in %q", st.Title, iv.DisplayName()),
	}, nil
}

func applyStageFields(st *models.Stage, f StageFields) {
	st.Title = f.Title
	st.Description = f.Description
	st.Deadline = f.Deadline
	st.AssigneeID = f.AssigneeID
	st.SupervisorID = f.SupervisorID
	st.Notes = f.Notes
}

// DeleteStage removes a stage.
type DeleteStage struct {
	InterventionID primitive.ObjectID
	StageID        primitive.ObjectID
}

func (op DeleteStage) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	st, idx, err := findStage(iv, op.StageID)
	if err != nil {
		return Change{}, err
	}
	title := st.Title
	iv.Stages = append(iv.Stages[:idx], iv.Stages[idx+1:]...)
	return Change{
		Action:  "stage_deleted",
		Details: fmt.Sprintf("Deleted stage %q from %q", title, iv.DisplayName()),
	}, nil
}

// MoveStage swaps a stage with its neighbour.
type MoveStage struct {
	InterventionID primitive.ObjectID
	StageID        primitive.ObjectID
	Direction      string
}

func (op MoveStage) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	st, idx, err := findStage(iv, op.StageID)
	if err != nil {
		return Change{}, err
	}
	to, ok, err := moveTarget(idx, len(iv.Stages), op.Direction)
	if err != nil {
		return Change{}, err
	}
	if !ok {
		return Change{NoOp: true, Message: edgeMessage("Stage", op.Direction)}, nil
	}
	title := st.Title
	iv.Stages[idx], iv.Stages[to] = iv.Stages[to], iv.Stages[idx]
	return Change{
		Action:  "stage_moved",
		Details: fmt.Sprintf("Moved stage %q %s in %q", title, op.Direction, iv.DisplayName()),
	}, nil
}

// UpdateStageStatus sets the status of a stage. Completing a stage stamps
// CompletedAt; leaving completed clears it.
type UpdateStageStatus struct {
	InterventionID primitive.ObjectID
	StageID        primitive.ObjectID
	Status         string
}

func (op UpdateStageStatus) Apply(p *models.Project, now time.Time) (Change, error) {
	if !models.IsStageStatus(op.Status) {
		return Change{}, fmt.Errorf("%w: %q", ErrInvalidStatus, op.Status)
	}
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	st, _, err := findStage(iv, op.StageID)
	if err != nil {
		return Change{}, err
	}
	from := st.Status
	st.Status = op.Status
	if op.Status == models.StageCompleted {
		if st.CompletedAt == nil {
			t := now
			st.CompletedAt = &t
		}
	} else {
		st.CompletedAt = nil
	}
	return Change{
		Action: "stage_status_updated",
		Details: fmt.Sprintf("Stage %q in %q: %s -> %s",
			st.Title, iv.DisplayName(), models.StageStatusLabel(from), models.StageStatusLabel(op.Status)),
	}, nil
}

// AddStageAttachment appends an already-stored file to a stage.
type AddStageAttachment struct {
	InterventionID primitive.ObjectID
	StageID        primitive.ObjectID
	Attachment     models.Attachment
}

func (op AddStageAttachment) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	st, _, err := findStage(iv, op.StageID)
	if err != nil {
		return Change{}, err
	}
	a := op.Attachment
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = now
	}
	st.Attachments = append(st.Attachments, a)
	return Change{
		Action:  "attachment_added",
		Details: fmt.Sprintf("Attached %q to stage %q", a.FileName, st.Title),
		ID:      a.ID,
	}, nil
}

// RemoveStageAttachment detaches a file from a stage.
type RemoveStageAttachment struct {
	InterventionID primitive.ObjectID
	StageID        primitive.ObjectID
	AttachmentID   primitive.ObjectID
}

func (op RemoveStageAttachment) Apply(p *models.Project, now time.Time) (Change, error) {
	iv, _, err := findIntervention(p, op.InterventionID)
	if err != nil {
		return Change{}, err
	}
	st, _, err := findStage(iv, op.StageID)
	if err != nil {
		return Change{}, err
	}
	for i, a := range st.Attachments {
		if a.ID != op.AttachmentID {
			continue
		}
		st.Attachments = append(st.Attachments[:i], st.Attachments[i+1:]...)
		return Change{
			Action:  "attachment_removed",
			Details: fmt.Sprintf("Removed %q from stage %q", a.FileName, st.Title),
			BlobKey: a.Key,
		}, nil
	}
	return Change{}, ErrAttachmentNotFound
}
