package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures creates test data directly in the database.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database { return f.db }

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// TestPassword is the password of every fixture user.
const TestPassword = "correct-horse-battery"

// CreateUser creates an active user with TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateDisabledUser creates a staff user whose status is disabled.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, "staff")
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		f.t.Fatalf("disable user: %v", err)
	}
	u.Status = "disabled"
	return u
}

// CreateContact creates a contact with the given role.
func (f *Fixtures) CreateContact(ctx context.Context, first, last, email, role string) models.Contact {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Contact{
		ID:        primitive.NewObjectID(),
		FirstName: first,
		LastName:  last,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.FullNameCI = text.Fold(c.FullName())
	f.insert(ctx, "contacts", c)
	return c
}

// CreateMasterIntervention creates a catalog entry.
func (f *Fixtures) CreateMasterIntervention(ctx context.Context, category, subcategory, expense string, stages ...string) models.MasterIntervention {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.MasterIntervention{
		ID:              primitive.NewObjectID(),
		Category:        category,
		Subcategory:     subcategory,
		ExpenseCategory: expense,
		DefaultStages:   stages,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if m.DefaultStages == nil {
		m.DefaultStages = []string{}
	}
	f.insert(ctx, "master_interventions", m)
	return m
}

// StageSpec describes a stage for CreateProject.
type StageSpec struct {
	Title    string
	Status   string
	Deadline *time.Time
}

// CreateProject creates a project with one intervention holding the given
// stages and a single sub-intervention costing eligible. Derived fields are
// left at their zero values.
func (f *Fixtures) CreateProject(ctx context.Context, title string, eligible float64, stages ...StageSpec) models.Project {
	f.t.Helper()
	now := time.Now().UTC()
	iv := models.Intervention{
		ID:              primitive.NewObjectID(),
		Category:        "Building envelope",
		Subcategory:     "External insulation",
		ExpenseCategory: "Envelope works (II)",
		SubInterventions: []models.SubIntervention{{
			ID:           primitive.NewObjectID(),
			Code:         "ENV01",
			Description:  "Thermal coat",
			Quantity:     1,
			EligibleCost: eligible,
		}},
		Stages: []models.Stage{},
	}
	for _, s := range stages {
		status := s.Status
		if status == "" {
			status = models.StagePending
		}
		iv.Stages = append(iv.Stages, models.Stage{
			ID:          primitive.NewObjectID(),
			Title:       s.Title,
			Status:      status,
			Deadline:    s.Deadline,
			Attachments: []models.Attachment{},
		})
	}
	p := models.Project{
		ID:            primitive.NewObjectID(),
		Title:         title,
		TitleCI:       text.Fold(title),
		Status:        models.StatusOnTrack,
		Interventions: []models.Intervention{iv},
		AuditLog:      []models.AuditEntry{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "projects", p)
	return p
}
