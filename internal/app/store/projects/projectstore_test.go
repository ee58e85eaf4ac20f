package projectstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/paging"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projecttree"
	"github.com/nestoreco/nestor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*projectstore.Store, *testutil.Fixtures, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return projectstore.New(db, zap.NewNop(), appmetrics.New()), testutil.NewFixtures(t, db), db
}

func ptime(t time.Time) *time.Time { return &t }

func TestCreate_ComputesDerivedFields(t *testing.T) {
	store, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p, err := store.Create(ctx, models.Project{
		Title: "Villa Rosa",
		Interventions: []models.Intervention{{
			ID:       primitive.NewObjectID(),
			Category: "Heating",
			SubInterventions: []models.SubIntervention{
				{ID: primitive.NewObjectID(), Code: "H1", EligibleCost: 1000.10},
				{ID: primitive.NewObjectID(), Code: "H2", EligibleCost: 2000.20},
			},
		}},
	}, "Ada")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != models.StatusQuotation {
		t.Errorf("status = %q, want Quotation", p.Status)
	}
	if p.Budget != 3000.30 {
		t.Errorf("budget = %v", p.Budget)
	}
	if p.Version != 1 || len(p.AuditLog) != 1 || p.AuditLog[0].Action != "project_created" {
		t.Errorf("version=%d audit=%+v", p.Version, p.AuditLog)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TitleCI != "villa rosa" {
		t.Errorf("title_ci = %q", got.TitleCI)
	}
}

func TestCreate_RequiresTitle(t *testing.T) {
	store, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := store.Create(ctx, models.Project{Title: "  "}, "Ada"); err == nil {
		t.Error("expected error for blank title")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	store, _, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, projectstore.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestMutate_DeleteStageAppendsOneAuditEntry(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Casa Blu", 500,
		testutil.StageSpec{Title: "Survey", Status: models.StageCompleted},
		testutil.StageSpec{Title: "Works"})
	iv := p.Interventions[0]

	change, err := store.Mutate(ctx, p.ID, "Ada", projecttree.DeleteStage{InterventionID: iv.ID, StageID: iv.Stages[1].ID})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if change.Action != "stage_deleted" {
		t.Errorf("action = %q", change.Action)
	}

	got, _ := store.GetByID(ctx, p.ID)
	if len(got.Interventions[0].Stages) != 1 {
		t.Fatalf("stages = %d", len(got.Interventions[0].Stages))
	}
	if len(got.AuditLog) != 1 || got.AuditLog[0].User != "Ada" || got.AuditLog[0].Action != "stage_deleted" {
		t.Errorf("audit log = %+v", got.AuditLog)
	}
	if got.Version != p.Version+1 {
		t.Errorf("version = %d, want %d", got.Version, p.Version+1)
	}
	// Only stage left is completed.
	if got.Progress != 100 || got.Status != models.StatusCompleted {
		t.Errorf("progress=%d status=%q", got.Progress, got.Status)
	}
	if got.Budget != 500 {
		t.Errorf("budget = %v", got.Budget)
	}
}

func TestMutate_ComputedCompletedReopensWhenWorkIsAdded(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Casa Verde", 0, testutil.StageSpec{Title: "Survey"})
	iv := p.Interventions[0]

	if _, err := store.Mutate(ctx, p.ID, "Ada", projecttree.UpdateStageStatus{
		InterventionID: iv.ID, StageID: iv.Stages[0].ID, Status: models.StageCompleted,
	}); err != nil {
		t.Fatalf("complete stage: %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Status != models.StatusCompleted || got.StatusManual {
		t.Fatalf("after completing: status=%q manual=%v", got.Status, got.StatusManual)
	}

	if _, err := store.Mutate(ctx, p.ID, "Ada", projecttree.AddStage{
		InterventionID: iv.ID, Fields: projecttree.StageFields{Title: "Handover"},
	}); err != nil {
		t.Fatalf("add stage: %v", err)
	}
	got, _ = store.GetByID(ctx, p.ID)
	if got.Progress != 50 || got.Status != models.StatusOnTrack {
		t.Errorf("after adding a stage: progress=%d status=%q, want 50 On Track", got.Progress, got.Status)
	}
}

func TestMutate_ManualCompletedIsKept(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Casa Gialla", 0, testutil.StageSpec{Title: "Survey"})
	iv := p.Interventions[0]

	if _, err := store.Mutate(ctx, p.ID, "Ada", projecttree.UpdateDetails{
		Title: "Casa Gialla", Status: models.StatusCompleted,
	}); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if _, err := store.Mutate(ctx, p.ID, "Ada", projecttree.AddStage{
		InterventionID: iv.ID, Fields: projecttree.StageFields{Title: "Extra"},
	}); err != nil {
		t.Fatalf("add stage: %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Status != models.StatusCompleted || !got.StatusManual || got.Progress != 0 {
		t.Errorf("status=%q manual=%v progress=%d", got.Status, got.StatusManual, got.Progress)
	}
}

func TestMutate_StatusUpdateNeverPersistsDelayed(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	past := time.Now().Add(-72 * time.Hour)
	p := fx.CreateProject(ctx, "Late", 0,
		testutil.StageSpec{Title: "A", Deadline: &past},
		testutil.StageSpec{Title: "B", Deadline: &past})
	iv := p.Interventions[0]

	if _, err := store.Mutate(ctx, p.ID, "Ada", projecttree.UpdateStageStatus{
		InterventionID: iv.ID, StageID: iv.Stages[0].ID, Status: models.StageInProgress,
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Status != models.StatusOnTrack || got.Alerts != 0 {
		t.Errorf("stored status=%q alerts=%d", got.Status, got.Alerts)
	}
	if len(got.AuditLog) != 1 || got.AuditLog[0].Action != "stage_status_updated" {
		t.Errorf("audit = %+v", got.AuditLog)
	}
}

func TestMutate_NoOpWritesNothing(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Edge", 0, testutil.StageSpec{Title: "Only"})
	iv := p.Interventions[0]

	change, err := store.Mutate(ctx, p.ID, "Ada", projecttree.MoveStage{
		InterventionID: iv.ID, StageID: iv.Stages[0].ID, Direction: projecttree.Up,
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if !change.NoOp || change.Message == "" {
		t.Errorf("change = %+v", change)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Version != p.Version || len(got.AuditLog) != 0 {
		t.Errorf("no-op wrote: version=%d audit=%d", got.Version, len(got.AuditLog))
	}
}

func TestMutate_NotFound(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Tree", 0, testutil.StageSpec{Title: "S"})
	iv := p.Interventions[0]

	tests := []struct {
		name string
		id   primitive.ObjectID
		op   projecttree.Op
		want error
	}{
		{"project", primitive.NewObjectID(), projecttree.DeleteStage{InterventionID: iv.ID, StageID: iv.Stages[0].ID}, projectstore.ErrNotFound},
		{"intervention", p.ID, projecttree.DeleteStage{InterventionID: primitive.NewObjectID(), StageID: iv.Stages[0].ID}, projecttree.ErrInterventionNotFound},
		{"stage", p.ID, projecttree.UpdateStageStatus{InterventionID: iv.ID, StageID: primitive.NewObjectID(), Status: models.StageCompleted}, projecttree.ErrStageNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Mutate(ctx, tt.id, "Ada", tt.op); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Version != p.Version || len(got.AuditLog) != 0 {
		t.Errorf("failed ops must not write: version=%d audit=%d", got.Version, len(got.AuditLog))
	}
}

// racingOp bumps the stored version behind the store's back on its first
// Apply, forcing one conflict.
type racingOp struct {
	db    *mongo.Database
	inner projecttree.Op
	raced *bool
}

func (o racingOp) Apply(p *models.Project, now time.Time) (projecttree.Change, error) {
	if !*o.raced {
		*o.raced = true
		_, err := o.db.Collection("projects").UpdateByID(context.Background(), p.ID,
			bson.M{"$set": bson.M{"notes": "edited elsewhere"}, "$inc": bson.M{"version": 1}})
		if err != nil {
			return projecttree.Change{}, err
		}
	}
	return o.inner.Apply(p, now)
}

func TestMutate_RetriesAfterConflict(t *testing.T) {
	store, fx, db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Busy", 0, testutil.StageSpec{Title: "A"}, testutil.StageSpec{Title: "B"})
	iv := p.Interventions[0]

	raced := false
	op := racingOp{db: db, raced: &raced, inner: projecttree.DeleteStage{InterventionID: iv.ID, StageID: iv.Stages[0].ID}}
	if _, err := store.Mutate(ctx, p.ID, "Ada", op); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	got, _ := store.GetByID(ctx, p.ID)
	if got.Notes != "edited elsewhere" {
		t.Errorf("concurrent edit lost: notes = %q", got.Notes)
	}
	if len(got.Interventions[0].Stages) != 1 || got.Interventions[0].Stages[0].Title != "B" {
		t.Errorf("stages = %+v", got.Interventions[0].Stages)
	}
	if len(got.AuditLog) != 1 {
		t.Errorf("audit entries = %d, want 1", len(got.AuditLog))
	}
}

func TestMutate_LegacyDocumentWithoutVersion(t *testing.T) {
	store, fx, db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Legacy", 0, testutil.StageSpec{Title: "A"})
	if _, err := db.Collection("projects").UpdateByID(ctx, p.ID, bson.M{"$unset": bson.M{"version": ""}}); err != nil {
		t.Fatalf("unset version: %v", err)
	}
	iv := p.Interventions[0]
	if _, err := store.Mutate(ctx, p.ID, "Ada", projecttree.UpdateStageStatus{
		InterventionID: iv.ID, StageID: iv.Stages[0].ID, Status: models.StageCompleted,
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	got, _ := store.GetByID(ctx, p.ID)
	if got.Version != 1 {
		t.Errorf("version = %d", got.Version)
	}
}

func TestList_FiltersAndPaging(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	past := time.Now().Add(-48 * time.Hour)
	fx.CreateProject(ctx, "Alpha", 0, testutil.StageSpec{Title: "late", Deadline: &past})
	fx.CreateProject(ctx, "Beta", 0, testutil.StageSpec{Title: "fine"})
	fx.CreateProject(ctx, "Gamma", 0, testutil.StageSpec{Title: "late but failed", Status: models.StageFailed, Deadline: &past})
	if _, err := store.Create(ctx, models.Project{Title: "Alpine quote"}, "Ada"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name   string
		filter projectstore.ListFilter
		want   []string
	}{
		{"all", projectstore.ListFilter{}, []string{"Alpha", "Alpine quote", "Beta", "Gamma"}},
		{"search prefix", projectstore.ListFilter{Search: "alp"}, []string{"Alpha", "Alpine quote"}},
		{"delayed", projectstore.ListFilter{Status: models.StatusDelayed}, []string{"Alpha"}},
		{"on track", projectstore.ListFilter{Status: models.StatusOnTrack}, []string{"Beta", "Gamma"}},
		{"quotation", projectstore.ListFilter{Status: models.StatusQuotation}, []string{"Alpine quote"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pg, err := store.List(ctx, tt.filter, paging.Request{Start: 1})
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var got []string
			for _, p := range pg.Rows {
				got = append(got, p.Title)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestList_NextPage(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < paging.PageSize+3; i++ {
		fx.CreateProject(ctx, "Project "+string(rune('A'+i%26))+string(rune('a'+i/26)), 0)
	}
	first, err := store.List(ctx, projectstore.ListFilter{}, paging.Request{Start: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(first.Rows) != paging.PageSize || !first.HasNext {
		t.Fatalf("first page len=%d hasNext=%v", len(first.Rows), first.HasNext)
	}
	second, err := store.List(ctx, projectstore.ListFilter{}, paging.Request{After: first.NextCursor, Start: first.Range.NextStart})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(second.Rows) != 3 || second.HasNext || !second.HasPrev {
		t.Errorf("second page len=%d next=%v prev=%v", len(second.Rows), second.HasNext, second.HasPrev)
	}
}

func TestReferencesContact(t *testing.T) {
	store, fx, db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	assignee := primitive.NewObjectID()
	p := fx.CreateProject(ctx, "Refs", 0, testutil.StageSpec{Title: "S"})
	_, err := db.Collection("projects").UpdateByID(ctx, p.ID, bson.M{"$set": bson.M{
		"owner_id":                             owner,
		"interventions.0.stages.0.assignee_id": assignee,
	}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	for id, want := range map[primitive.ObjectID]bool{owner: true, assignee: true, primitive.NewObjectID(): false} {
		got, err := store.ReferencesContact(ctx, id)
		if err != nil {
			t.Fatalf("ReferencesContact: %v", err)
		}
		if got != want {
			t.Errorf("ReferencesContact(%s) = %v, want %v", id.Hex(), got, want)
		}
	}
}

func TestDelete(t *testing.T) {
	store, fx, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProject(ctx, "Gone", 0)
	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, p.ID); !errors.Is(err, projectstore.ErrNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
}
