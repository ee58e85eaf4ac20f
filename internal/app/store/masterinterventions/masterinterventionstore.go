// internal/app/store/masterinterventions/masterinterventionstore.go
package masterinterventionstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

var (
	ErrInvalid   = errors.New("invalid catalog entry")
	ErrNotFound  = errors.New("catalog entry not found")
	ErrDuplicate = errors.New("a catalog entry with this category and subcategory already exists")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("master_interventions")}
}

func clean(m *models.MasterIntervention) error {
	m.Category = strings.TrimSpace(m.Category)
	m.Subcategory = strings.TrimSpace(m.Subcategory)
	m.ExpenseCategory = strings.TrimSpace(m.ExpenseCategory)
	m.Code = strings.TrimSpace(m.Code)
	if m.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalid)
	}
	stages := make([]string, 0, len(m.DefaultStages))
	for _, s := range m.DefaultStages {
		if s = strings.TrimSpace(s); s != "" {
			stages = append(stages, s)
		}
	}
	m.DefaultStages = stages
	return nil
}

func (s *Store) Create(ctx context.Context, m models.MasterIntervention) (models.MasterIntervention, error) {
	if err := clean(&m); err != nil {
		return models.MasterIntervention{}, err
	}
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.MasterIntervention{}, ErrDuplicate
		}
		return models.MasterIntervention{}, err
	}
	return m, nil
}

// Update edits a catalog entry. Interventions already added to projects
// keep the labels they were created with.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, m models.MasterIntervention) error {
	if err := clean(&m); err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"category":         m.Category,
		"subcategory":      m.Subcategory,
		"expense_category": m.ExpenseCategory,
		"code":             m.Code,
		"unit":             m.Unit,
		"default_stages":   m.DefaultStages,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.MasterIntervention, error) {
	var m models.MasterIntervention
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.MasterIntervention{}, ErrNotFound
		}
		return models.MasterIntervention{}, err
	}
	return m, nil
}

// All returns the catalog ordered by category then subcategory.
func (s *Store) All(ctx context.Context) ([]models.MasterIntervention, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "category", Value: 1}, {Key: "subcategory", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.MasterIntervention
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed parses the embedded default catalog.
func Seed() ([]models.MasterIntervention, error) {
	var out []models.MasterIntervention
	if err := yaml.Unmarshal(seedYAML, &out); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	return out, nil
}

// SeedIfEmpty loads the default catalog into an empty collection and
// returns how many entries were inserted.
func (s *Store) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.c.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	entries, err := Seed()
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, m := range entries {
		if _, err := s.Create(ctx, m); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return inserted, fmt.Errorf("seed %s/%s: %w", m.Category, m.Subcategory, err)
		}
		inserted++
	}
	return inserted, nil
}
