// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/nestoreco/nestor/internal/app/system/auth"
	"github.com/nestoreco/nestor/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, log); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, log); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				log.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("projects", projectsSchema())
	ensure("contacts", contactsSchema())
	ensure("master_interventions", masterInterventionsSchema())
	ensure("offers", offersSchema())
	ensure("reminders", remindersSchema())

	// No validator; written only through auditlog.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, log *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		log.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			log.Debug("collection exists", zap.String("collection", name))
			return false, nil
		}
		log.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	log.Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	log.Debug("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum(values ...string) bson.A {
	out := make(bson.A, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "email_ci", "role", "status"},
			"properties": bson.M{
				"full_name":     nonBlank,
				"email":         nonBlank,
				"email_ci":      nonBlank,
				"password_hash": bson.M{"bsonType": "string"},
				"role":          bson.M{"enum": enum(auth.RoleAdmin, auth.RoleStaff)},
				"status":        bson.M{"enum": enum("active", "disabled")},
			},
		},
	}
}

// projectsSchema checks the header and the shape of the embedded tree;
// the tree contents are maintained by projecttree and not re-validated here.
func projectsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "title_ci", "status", "interventions", "version"},
			"properties": bson.M{
				"title":    nonBlank,
				"title_ci": nonBlank,
				"status": bson.M{"enum": enum(
					models.StatusQuotation, models.StatusOnTrack, models.StatusDelayed, models.StatusCompleted)},
				"status_manual": bson.M{"bsonType": "bool"},
				"owner_id":      bson.M{"bsonType": bson.A{"objectId", "null"}},
				"deadline":      bson.M{"bsonType": bson.A{"date", "null"}},
				"interventions": bson.M{"bsonType": "array"},
				"audit_log":     bson.M{"bsonType": "array"},
				"budget":        bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}},
				"progress":      bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": 100},
				"version":       bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}

func contactsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"first_name", "last_name", "full_name_ci", "role"},
			"properties": bson.M{
				"first_name":   bson.M{"bsonType": "string"},
				"last_name":    bson.M{"bsonType": "string"},
				"full_name_ci": nonBlank,
				"email":        bson.M{"bsonType": "string"},
				"role":         bson.M{"enum": enum(models.ContactRoles...)},
			},
		},
	}
}

func masterInterventionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"category"},
			"properties": bson.M{
				"category":         nonBlank,
				"subcategory":      bson.M{"bsonType": "string"},
				"expense_category": bson.M{"bsonType": "string"},
				"default_stages":   bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "string"}},
			},
		},
	}
}

func offersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"supplier_id", "title", "title_ci", "status"},
			"properties": bson.M{
				"supplier_id": bson.M{"bsonType": "objectId"},
				"project_id":  bson.M{"bsonType": bson.A{"objectId", "null"}},
				"title":       nonBlank,
				"title_ci":    nonBlank,
				"amount":      bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0},
				"status":      bson.M{"enum": enum(models.OfferReceived, models.OfferAccepted, models.OfferRejected)},
			},
		},
	}
}

func remindersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"project_id", "title", "source", "done", "created_at"},
			"properties": bson.M{
				"project_id": bson.M{"bsonType": "objectId"},
				"title":      nonBlank,
				"source":     bson.M{"enum": enum(models.ReminderManual, models.ReminderAI)},
				"done":       bson.M{"bsonType": "bool"},
				"due_date":   bson.M{"bsonType": bson.A{"date", "null"}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
