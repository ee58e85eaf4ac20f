package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/nestoreco/nestor/internal/app/store/metrics"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"github.com/nestoreco/nestor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func project(title, status string, stages ...models.Stage) models.Project {
	return models.Project{
		ID:     primitive.NewObjectID(),
		Title:  title,
		Status: status,
		Interventions: []models.Intervention{{
			ID:       primitive.NewObjectID(),
			Category: "Windows",
			SubInterventions: []models.SubIntervention{{
				ID: primitive.NewObjectID(), Code: "W1", Quantity: 1, EligibleCost: 1000,
			}},
			Stages: stages,
		}},
	}
}

func stage(title, status string, due time.Time) models.Stage {
	return models.Stage{ID: primitive.NewObjectID(), Title: title, Status: status, Deadline: &due}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	projects := []models.Project{
		project("Late", models.StatusOnTrack, stage("Survey", models.StagePending, now.AddDate(0, 0, -1))),
		project("Soon", models.StatusOnTrack,
			stage("Design", models.StageInProgress, now.AddDate(0, 0, 10)),
			stage("Install", models.StagePending, now.AddDate(0, 0, 3)),
			stage("Far", models.StagePending, now.AddDate(0, 0, 30)),
			stage("Done", models.StageCompleted, now.AddDate(0, 0, 2)),
		),
		project("Quote", models.StatusQuotation),
	}

	got := metricsstore.Summarize(projects, now)

	want := map[string]int{models.StatusOnTrack: 1, models.StatusDelayed: 1, models.StatusQuotation: 1, models.StatusCompleted: 0}
	if len(got.ByStatus) != 4 {
		t.Fatalf("ByStatus = %+v", got.ByStatus)
	}
	for _, sc := range got.ByStatus {
		if sc.Count != want[sc.Status] {
			t.Errorf("%s = %d, want %d", sc.Status, sc.Count, want[sc.Status])
		}
	}

	if len(got.Delayed) != 1 || got.Delayed[0].Title != "Late" {
		t.Errorf("Delayed = %+v", got.Delayed)
	}

	if len(got.Upcoming) != 2 {
		t.Fatalf("Upcoming = %+v", got.Upcoming)
	}
	if got.Upcoming[0].Stage != "Install" || got.Upcoming[1].Stage != "Design" {
		t.Errorf("Upcoming order = %s, %s", got.Upcoming[0].Stage, got.Upcoming[1].Stage)
	}

	var budget float64
	for _, p := range projects {
		budget += projectmetrics.AtRequestTime(p, now).Budget
	}
	if got.TotalBudget != budget {
		t.Errorf("TotalBudget = %v, want %v", got.TotalBudget, budget)
	}
}

func TestSummarize_StoredDelayedIsRecomputed(t *testing.T) {
	now := time.Now().UTC()
	// A project stored as Delayed whose stage is no longer overdue.
	p := project("Fixed", models.StatusDelayed, stage("Survey", models.StagePending, now.AddDate(0, 0, 5)))

	got := metricsstore.Summarize([]models.Project{p}, now)
	if len(got.Delayed) != 0 {
		t.Errorf("Delayed = %+v, want none", got.Delayed)
	}
}

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db)
	if counts != (metricsstore.Counts{}) {
		t.Errorf("counts = %+v, want zero", counts)
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateContact(ctx, "Ada", "Rossi", "ada@example.com", models.RoleOwner)
	fixtures.CreateProject(ctx, "One", 100)
	fixtures.CreateProject(ctx, "Two", 200)

	counts := metricsstore.FetchDashboardCounts(ctx, db)
	if counts.Projects != 2 || counts.Contacts != 1 {
		t.Errorf("counts = %+v", counts)
	}

	sum, err := metricsstore.FetchSummary(ctx, db, time.Now().UTC())
	if err != nil {
		t.Fatalf("FetchSummary: %v", err)
	}
	if sum.TotalBudget <= 0 {
		t.Errorf("TotalBudget = %v", sum.TotalBudget)
	}
}
