package projecttree_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projecttree"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// sample builds a project with one intervention holding three stages and
// two line items.
func sample() (models.Project, primitive.ObjectID) {
	ivID := primitive.NewObjectID()
	p := models.Project{
		ID:    primitive.NewObjectID(),
		Title: "Sample",
		Interventions: []models.Intervention{{
			ID:       ivID,
			Category: "Windows",
			Stages: []models.Stage{
				{ID: primitive.NewObjectID(), Title: "Survey", Status: models.StagePending},
				{ID: primitive.NewObjectID(), Title: "Order", Status: models.StagePending},
				{ID: primitive.NewObjectID(), Title: "Install", Status: models.StagePending},
			},
			SubInterventions: []models.SubIntervention{
				{ID: primitive.NewObjectID(), Code: "1.A", Description: "Frames", EligibleCost: 100},
				{ID: primitive.NewObjectID(), Code: "1.B", Description: "Glass", EligibleCost: 250},
			},
		}},
	}
	return p, ivID
}

func stageTitles(p models.Project) []string {
	var out []string
	for _, s := range p.Interventions[0].Stages {
		out = append(out, s.Title)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMoveStage(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		dir      string
		wantNoOp bool
		want     []string
	}{
		{"first up is noop", 0, projecttree.Up, true, []string{"Survey", "Order", "Install"}},
		{"last down is noop", 2, projecttree.Down, true, []string{"Survey", "Order", "Install"}},
		{"middle up", 1, projecttree.Up, false, []string{"Order", "Survey", "Install"}},
		{"first down", 0, projecttree.Down, false, []string{"Order", "Survey", "Install"}},
		{"middle down", 1, projecttree.Down, false, []string{"Survey", "Install", "Order"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ivID := sample()
			op := projecttree.MoveStage{
				InterventionID: ivID,
				StageID:        p.Interventions[0].Stages[tt.index].ID,
				Direction:      tt.dir,
			}
			ch, err := op.Apply(&p, now)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if ch.NoOp != tt.wantNoOp {
				t.Errorf("NoOp: got %v, want %v", ch.NoOp, tt.wantNoOp)
			}
			if tt.wantNoOp && ch.Message == "" {
				t.Error("expected an explanatory message for a no-op move")
			}
			if got := stageTitles(p); !equal(got, tt.want) {
				t.Errorf("order: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoveStage_BadDirection(t *testing.T) {
	p, ivID := sample()
	_, err := projecttree.MoveStage{InterventionID: ivID, StageID: p.Interventions[0].Stages[0].ID, Direction: "left"}.Apply(&p, now)
	if !errors.Is(err, projecttree.ErrInvalidDirection) {
		t.Errorf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	p, ivID := sample()
	missing := primitive.NewObjectID()
	stageID := p.Interventions[0].Stages[0].ID
	subID := p.Interventions[0].SubInterventions[0].ID

	tests := []struct {
		name string
		op   projecttree.Op
		want error
	}{
		{"delete stage missing intervention", projecttree.DeleteStage{InterventionID: missing, StageID: stageID}, projecttree.ErrInterventionNotFound},
		{"delete missing stage", projecttree.DeleteStage{InterventionID: ivID, StageID: missing}, projecttree.ErrStageNotFound},
		{"status missing stage", projecttree.UpdateStageStatus{InterventionID: ivID, StageID: missing, Status: models.StageCompleted}, projecttree.ErrStageNotFound},
		{"move missing stage", projecttree.MoveStage{InterventionID: ivID, StageID: missing, Direction: projecttree.Up}, projecttree.ErrStageNotFound},
		{"update missing sub", projecttree.UpdateSubIntervention{InterventionID: ivID, SubInterventionID: missing}, projecttree.ErrSubInterventionNotFound},
		{"delete sub missing intervention", projecttree.DeleteSubIntervention{InterventionID: missing, SubInterventionID: subID}, projecttree.ErrInterventionNotFound},
		{"add stage missing intervention", projecttree.AddStage{InterventionID: missing}, projecttree.ErrInterventionNotFound},
		{"delete missing intervention", projecttree.DeleteIntervention{InterventionID: missing}, projecttree.ErrInterventionNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := stageTitles(p)
			_, err := tt.op.Apply(&p, now)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if got := stageTitles(p); !equal(got, before) {
				t.Errorf("tree changed on failure: %v", got)
			}
		})
	}
}

func TestDeleteStage(t *testing.T) {
	p, ivID := sample()
	ch, err := projecttree.DeleteStage{InterventionID: ivID, StageID: p.Interventions[0].Stages[1].ID}.Apply(&p, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ch.Action != "stage_deleted" || ch.Details == "" {
		t.Errorf("unexpected change: %+v", ch)
	}
	if got := stageTitles(p); !equal(got, []string{"Survey", "Install"}) {
		t.Errorf("stages: got %v", got)
	}
}

func TestUpdateStageStatus(t *testing.T) {
	p, ivID := sample()
	stID := p.Interventions[0].Stages[0].ID

	if _, err := (projecttree.UpdateStageStatus{InterventionID: ivID, StageID: stID, Status: models.StageCompleted}).Apply(&p, now); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	st := p.Interventions[0].Stages[0]
	if st.Status != models.StageCompleted || st.CompletedAt == nil || !st.CompletedAt.Equal(now) {
		t.Errorf("unexpected stage after completion: %+v", st)
	}

	if _, err := (projecttree.UpdateStageStatus{InterventionID: ivID, StageID: stID, Status: models.StageInProgress}).Apply(&p, now); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if p.Interventions[0].Stages[0].CompletedAt != nil {
		t.Error("CompletedAt should be cleared when leaving completed")
	}

	_, err := projecttree.UpdateStageStatus{InterventionID: ivID, StageID: stID, Status: "done"}.Apply(&p, now)
	if !errors.Is(err, projecttree.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestAddIntervention_DefaultStages(t *testing.T) {
	p := models.Project{}
	master := models.MasterIntervention{
		ID:              primitive.NewObjectID(),
		Category:        "Heating",
		Subcategory:     "Heat pump",
		ExpenseCategory: "Systems (IV)",
		DefaultStages:   []string{"Survey", " ", "Install", "Handover"},
	}
	ch, err := projecttree.AddIntervention{Master: master}.Apply(&p, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(p.Interventions) != 1 {
		t.Fatalf("expected 1 intervention, got %d", len(p.Interventions))
	}
	iv := p.Interventions[0]
	if iv.ID != ch.ID || iv.MasterInterventionID != master.ID {
		t.Errorf("ids not wired: %+v", iv)
	}
	if len(iv.Stages) != 3 {
		t.Errorf("expected blank default stage to be skipped, got %d stages", len(iv.Stages))
	}
	for _, s := range iv.Stages {
		if s.Status != models.StagePending {
			t.Errorf("default stage %q status %q", s.Title, s.Status)
		}
	}
	if iv.ExpenseCategory != "Systems (IV)" {
		t.Errorf("expense category not copied: %q", iv.ExpenseCategory)
	}
}

func TestSubInterventions(t *testing.T) {
	p, ivID := sample()

	ch, err := projecttree.AddSubIntervention{InterventionID: ivID, Sub: models.SubIntervention{Code: "1.C", Description: "Sills", EligibleCost: 30}}.Apply(&p, now)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	subs := p.Interventions[0].SubInterventions
	if len(subs) != 3 || subs[2].ID != ch.ID {
		t.Fatalf("add: unexpected subs %+v", subs)
	}

	ch2, err := projecttree.MoveSubIntervention{InterventionID: ivID, SubInterventionID: ch.ID, Direction: projecttree.Down}.Apply(&p, now)
	if err != nil || !ch2.NoOp {
		t.Errorf("moving last line down should be a no-op, got %+v %v", ch2, err)
	}

	if _, err := (projecttree.MoveSubIntervention{InterventionID: ivID, SubInterventionID: ch.ID, Direction: projecttree.Up}).Apply(&p, now); err != nil {
		t.Fatalf("move: %v", err)
	}
	if p.Interventions[0].SubInterventions[1].ID != ch.ID {
		t.Error("line was not moved up")
	}

	if _, err := (projecttree.UpdateSubIntervention{InterventionID: ivID, SubInterventionID: ch.ID, Sub: models.SubIntervention{Code: "1.D", EligibleCost: 45}}).Apply(&p, now); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := p.Interventions[0].SubInterventions[1]
	if got.ID != ch.ID || got.Code != "1.D" || got.EligibleCost != 45 {
		t.Errorf("update: got %+v", got)
	}

	if _, err := (projecttree.DeleteSubIntervention{InterventionID: ivID, SubInterventionID: ch.ID}).Apply(&p, now); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(p.Interventions[0].SubInterventions) != 2 {
		t.Errorf("delete: expected 2 lines, got %d", len(p.Interventions[0].SubInterventions))
	}
}

func TestAddStageAttachment(t *testing.T) {
	p, ivID := sample()
	stID := p.Interventions[0].Stages[2].ID
	ch, err := projecttree.AddStageAttachment{
		InterventionID: ivID,
		StageID:        stID,
		Attachment:     models.Attachment{FileName: "photo.jpg", Key: "k"},
	}.Apply(&p, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	atts := p.Interventions[0].Stages[2].Attachments
	if len(atts) != 1 || atts[0].ID != ch.ID || !atts[0].UploadedAt.Equal(now) {
		t.Errorf("unexpected attachments: %+v", atts)
	}
}

func TestUpdateDetails_StatusManual(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		manual     bool
		chosen     string
		wantStatus string
		wantManual bool
	}{
		{"choose completed", models.StatusOnTrack, false, models.StatusCompleted, models.StatusCompleted, true},
		{"resubmit computed completed", models.StatusCompleted, false, models.StatusCompleted, models.StatusCompleted, false},
		{"reopen manual completed", models.StatusCompleted, true, models.StatusOnTrack, models.StatusOnTrack, false},
		{"choose quotation", models.StatusOnTrack, false, models.StatusQuotation, models.StatusQuotation, false},
		{"blank keeps stored", models.StatusCompleted, true, "", models.StatusCompleted, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := sample()
			p.Status, p.StatusManual = tt.stored, tt.manual
			if _, err := (projecttree.UpdateDetails{Title: "Sample", Status: tt.chosen}).Apply(&p, now); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if p.Status != tt.wantStatus || p.StatusManual != tt.wantManual {
				t.Errorf("status=%q manual=%v, want %q %v", p.Status, p.StatusManual, tt.wantStatus, tt.wantManual)
			}
		})
	}
}

func TestRemoveStageAttachment(t *testing.T) {
	p, ivID := sample()
	stID := p.Interventions[0].Stages[0].ID
	keep := models.Attachment{ID: primitive.NewObjectID(), FileName: "plan.pdf", Key: "a/plan.pdf"}
	drop := models.Attachment{ID: primitive.NewObjectID(), FileName: "old.pdf", Key: "a/old.pdf"}
	p.Interventions[0].Stages[0].Attachments = []models.Attachment{keep, drop}

	ch, err := projecttree.RemoveStageAttachment{InterventionID: ivID, StageID: stID, AttachmentID: drop.ID}.Apply(&p, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ch.BlobKey != "a/old.pdf" || ch.Action != "attachment_removed" {
		t.Errorf("change = %+v", ch)
	}
	atts := p.Interventions[0].Stages[0].Attachments
	if len(atts) != 1 || atts[0].ID != keep.ID {
		t.Errorf("attachments = %+v", atts)
	}

	_, err = projecttree.RemoveStageAttachment{InterventionID: ivID, StageID: stID, AttachmentID: drop.ID}.Apply(&p, now)
	if !errors.Is(err, projecttree.ErrAttachmentNotFound) {
		t.Errorf("second remove err = %v", err)
	}
}
