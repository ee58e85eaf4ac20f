package validators_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nestoreco/nestor/internal/app/system/validators"
	"github.com/nestoreco/nestor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "projects", "contacts", "master_interventions", "offers", "reminders", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func isValidationError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 121 {
				return true
			}
		}
	}
	return false
}

func TestEnsureAll_RejectsInvalidDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now().UTC()
	tests := []struct {
		name string
		coll string
		doc  bson.M
	}{
		{"project with unknown status", "projects", bson.M{
			"_id": primitive.NewObjectID(), "title": "Aurora", "title_ci": "aurora",
			"status": "Paused", "interventions": bson.A{}, "version": int64(0),
		}},
		{"project with blank title", "projects", bson.M{
			"_id": primitive.NewObjectID(), "title": "  ", "title_ci": "  ",
			"status": "Quotation", "interventions": bson.A{}, "version": int64(0),
		}},
		{"contact with unknown role", "contacts", bson.M{
			"_id": primitive.NewObjectID(), "first_name": "Ada", "last_name": "L",
			"full_name_ci": "ada l", "role": "client",
		}},
		{"reminder without project", "reminders", bson.M{
			"_id": primitive.NewObjectID(), "title": "Call", "source": "manual", "done": false, "created_at": now,
		}},
		{"offer with negative amount", "offers", bson.M{
			"_id": primitive.NewObjectID(), "supplier_id": primitive.NewObjectID(), "title": "Windows",
			"title_ci": "windows", "status": "received", "amount": -5.0,
		}},
		{"user with unknown role", "users", bson.M{
			"_id": primitive.NewObjectID(), "full_name": "Ada", "email": "a@x.io", "email_ci": "a@x.io",
			"role": "superadmin", "status": "active",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if err == nil {
				t.Fatal("expected the validator to reject the document")
			}
			if !isValidationError(err) {
				t.Errorf("expected a document validation error, got %v", err)
			}
		})
	}
}

func TestEnsureAll_AcceptsValidProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	f := testutil.NewFixtures(t, db)
	p := f.CreateProject(ctx, "Aurora", 1000)
	if p.ID.IsZero() {
		t.Fatal("fixture project was not stored")
	}
}
