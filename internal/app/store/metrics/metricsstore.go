// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"sort"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpcomingWindow is how far ahead the dashboard looks for stage deadlines.
const UpcomingWindow = 14 * 24 * time.Hour

// Counts is the set of collection totals shown on the dashboard.
type Counts struct {
	Projects      int64
	Contacts      int64
	Offers        int64
	OpenReminders int64
}

// FetchDashboardCounts returns the high-level counts used by the dashboard.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts
	if n, err := db.Collection("projects").CountDocuments(ctx, bson.M{}); err == nil {
		out.Projects = n
	}
	if n, err := db.Collection("contacts").CountDocuments(ctx, bson.M{}); err == nil {
		out.Contacts = n
	}
	if n, err := db.Collection("offers").CountDocuments(ctx, bson.M{}); err == nil {
		out.Offers = n
	}
	if n, err := db.Collection("reminders").CountDocuments(ctx, bson.M{"done": false}); err == nil {
		out.OpenReminders = n
	}
	return out
}

// StatusCount is one bar of the status breakdown.
type StatusCount struct {
	Status string
	Count  int
}

// Deadline is a stage due inside the upcoming window.
type Deadline struct {
	ProjectID    string
	ProjectTitle string
	Intervention string
	Stage        string
	Status       string
	Due          time.Time
}

// Summary is the project overview. Statuses are evaluated at request time,
// so Delayed reflects overdue stages as of now.
type Summary struct {
	ByStatus    []StatusCount
	TotalBudget float64
	Delayed     []models.Project
	Upcoming    []Deadline
}

var statusOrder = []string{models.StatusQuotation, models.StatusOnTrack, models.StatusDelayed, models.StatusCompleted}

// FetchSummary loads every project (without its audit log) and summarizes it.
func FetchSummary(ctx context.Context, db *mongo.Database, now time.Time) (Summary, error) {
	cur, err := db.Collection("projects").Find(ctx, bson.M{}, options.Find().
		SetProjection(bson.M{"audit_log": 0}).
		SetSort(bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return Summary{}, err
	}
	defer cur.Close(ctx)
	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return Summary{}, err
	}
	return Summarize(projects, now), nil
}

// Summarize computes the dashboard overview from stored projects.
func Summarize(projects []models.Project, now time.Time) Summary {
	counts := make(map[string]int, len(statusOrder))
	total := decimal.Zero
	var out Summary
	horizon := now.Add(UpcomingWindow)

	for _, stored := range projects {
		p := projectmetrics.AtRequestTime(stored, now)
		counts[p.Status]++
		total = total.Add(decimal.NewFromFloat(p.Budget))
		if p.Status == models.StatusDelayed {
			out.Delayed = append(out.Delayed, p)
		}
		for _, iv := range p.Interventions {
			for _, st := range iv.Stages {
				if st.Deadline == nil || st.Status == models.StageCompleted || st.Status == models.StageFailed {
					continue
				}
				if st.Deadline.Before(now) || st.Deadline.After(horizon) {
					continue
				}
				out.Upcoming = append(out.Upcoming, Deadline{
					ProjectID:    p.ID.Hex(),
					ProjectTitle: p.Title,
					Intervention: iv.DisplayName(),
					Stage:        st.Title,
					Status:       st.Status,
					Due:          *st.Deadline,
				})
			}
		}
	}

	for _, s := range statusOrder {
		out.ByStatus = append(out.ByStatus, StatusCount{Status: s, Count: counts[s]})
	}
	out.TotalBudget = total.Round(2).InexactFloat64()
	sort.SliceStable(out.Upcoming, func(i, j int) bool { return out.Upcoming[i].Due.Before(out.Upcoming[j].Due) })
	return out
}
