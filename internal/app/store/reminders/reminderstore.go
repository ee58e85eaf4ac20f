// internal/app/store/reminders/reminderstore.go
package reminderstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("reminder not found")

// ErrInvalid wraps a rejected field value.
var ErrInvalid = errors.New("invalid reminder")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reminders")}
}

func prepare(r *models.Reminder, now time.Time) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if r.ProjectID.IsZero() {
		return fmt.Errorf("%w: project is required", ErrInvalid)
	}
	if r.Source == "" {
		r.Source = models.ReminderManual
	}
	r.ID = primitive.NewObjectID()
	r.Done = false
	r.DoneAt = nil
	r.CreatedAt = now
	return nil
}

func (s *Store) Create(ctx context.Context, r models.Reminder) (models.Reminder, error) {
	if err := prepare(&r, time.Now().UTC()); err != nil {
		return models.Reminder{}, err
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Reminder{}, err
	}
	return r, nil
}

// CreateMany inserts a batch, typically the output of one AI generation.
func (s *Store) CreateMany(ctx context.Context, rs []models.Reminder) ([]models.Reminder, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]any, 0, len(rs))
	out := make([]models.Reminder, 0, len(rs))
	for _, r := range rs {
		if err := prepare(&r, now); err != nil {
			return nil, err
		}
		docs = append(docs, r)
		out = append(out, r)
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Reminder, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Reminder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOpen returns open reminders across all projects, earliest due first
// and undated ones last. limit <= 0 means no limit.
func (s *Store) ListOpen(ctx context.Context, limit int64) ([]models.Reminder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	dated, err := s.find(ctx, bson.M{"done": false, "due_date": bson.M{"$ne": nil}}, opts)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(dated)) >= limit {
		return dated, nil
	}
	rest := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		rest.SetLimit(limit - int64(len(dated)))
	}
	undated, err := s.find(ctx, bson.M{"done": false, "due_date": nil}, rest)
	if err != nil {
		return nil, err
	}
	return append(dated, undated...), nil
}

// ListByProject returns every reminder of a project, open ones first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Reminder, error) {
	return s.find(ctx, bson.M{"project_id": projectID},
		options.Find().SetSort(bson.D{{Key: "done", Value: 1}, {Key: "due_date", Value: 1}, {Key: "_id", Value: 1}}))
}

// CountOpen counts reminders not yet done.
func (s *Store) CountOpen(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"done": false})
}

// MarkDone closes a reminder; closing an already closed one is a no-op.
func (s *Store) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"done": true, "done_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
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

// DeleteByProject removes every reminder of a deleted project.
func (s *Store) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
