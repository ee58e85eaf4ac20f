// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/paging"
	"github.com/nestoreco/nestor/internal/app/system/txn"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"github.com/nestoreco/nestor/internal/domain/projecttree"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("project not found")
	// ErrConflict means the project changed between read and write.
	ErrConflict = errors.New("project was modified by someone else")
)

// MaxAttempts bounds the read-modify-write retries on ErrConflict.
const MaxAttempts = 3

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	log     *zap.Logger
	metrics *appmetrics.Metrics
	now     func() time.Time
}

func New(db *mongo.Database, log *zap.Logger, metrics *appmetrics.Metrics) *Store {
	return &Store{
		db:      db,
		c:       db.Collection("projects"),
		log:     log,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// listProjection drops the audit log, which list views never show.
var listProjection = bson.M{"audit_log": 0}

// Create inserts p with derived fields computed and a creation audit entry.
func (s *Store) Create(ctx context.Context, p models.Project, actor string) (models.Project, error) {
	if strings.TrimSpace(p.Title) == "" {
		return models.Project{}, errors.New("title is required")
	}
	now := s.now()
	p.ID = primitive.NewObjectID()
	if p.Status == "" || p.Status == models.StatusDelayed {
		p.Status = models.StatusQuotation
	}
	p.StatusManual = p.Status == models.StatusCompleted
	if p.Interventions == nil {
		p.Interventions = []models.Intervention{}
	}
	p = projectmetrics.ServerSafe(p)
	p.TitleCI = text.Fold(p.Title)
	p.AuditLog = []models.AuditEntry{{
		User:      actor,
		Action:    "project_created",
		Timestamp: now,
		Details:   fmt.Sprintf("Created project %q", p.Title),
	}}
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// GetByID returns the full project document.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

// Delete removes a project with its whole tree.
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

// Find returns projects matching filter, without audit logs.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Project, error) {
	opts = append([]*options.FindOptions{options.Find().SetProjection(listProjection)}, opts...)
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Project
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every project sorted by title, without audit logs.
func (s *Store) All(ctx context.Context) ([]models.Project, error) {
	return s.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// ReferencesContact reports whether any project points at the contact as
// owner, stage assignee or stage supervisor.
func (s *Store) ReferencesContact(ctx context.Context, contactID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"owner_id": contactID},
		bson.M{"interventions.stages.assignee_id": contactID},
		bson.M{"interventions.stages.supervisor_id": contactID},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

/* -------------------------------------------------------------------------- */
/* Listing                                                                     */
/* -------------------------------------------------------------------------- */

// ListFilter narrows the project list. Status may be any displayed status,
// including the request-time-only "Delayed".
type ListFilter struct {
	Search string
	Status string
}

// overdueStage matches a project holding at least one stage that counts
// as overdue at now.
func overdueStage(now time.Time) bson.M {
	return bson.M{"interventions.stages": bson.M{"$elemMatch": bson.M{
		"deadline": bson.M{"$lt": now},
		"status":   bson.M{"$nin": bson.A{models.StageCompleted, models.StageFailed}},
	}}}
}

// Filter translates f into a query. Delayed and On Track are decided the
// same way the metrics aggregator decides them at request time.
func (f ListFilter) Filter(now time.Time) bson.M {
	var and bson.A
	q := strings.TrimSpace(f.Search)
	if lo, hi := text.PrefixRange(q); lo != "" {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title_ci": bson.M{"$gte": lo, "$lt": hi}},
			bson.M{"application_number": q},
		}})
	}
	switch f.Status {
	case "":
	case models.StatusDelayed:
		and = append(and,
			bson.M{"status": bson.M{"$nin": bson.A{models.StatusQuotation, models.StatusCompleted}}},
			overdueStage(now))
	case models.StatusOnTrack:
		and = append(and,
			bson.M{"status": models.StatusOnTrack},
			bson.M{"$nor": bson.A{overdueStage(now)}})
	default:
		and = append(and, bson.M{"status": f.Status})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// List returns one keyset page ordered by folded title.
func (s *Store) List(ctx context.Context, f ListFilter, pr paging.Request) (paging.Page[models.Project], error) {
	filter := f.Filter(s.now())
	ks := paging.ConfigureKeyset(pr)
	if w := ks.Window("title_ci"); w != nil {
		filter = bson.M{"$and": bson.A{filter, w}}
	}
	find := ks.FindOptions("title_ci").SetProjection(listProjection)
	cur, err := s.c.Find(ctx, filter, find)
	if err != nil {
		return paging.Page[models.Project]{}, err
	}
	defer cur.Close(ctx)
	var rows []models.Project
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Project]{}, err
	}
	return paging.Finish(rows, pr,
		func(p models.Project) string { return p.TitleCI },
		func(p models.Project) primitive.ObjectID { return p.ID }), nil
}

/* -------------------------------------------------------------------------- */
/* Tree mutations                                                              */
/* -------------------------------------------------------------------------- */

// Mutate applies op to the project as one read-modify-write inside a
// transaction. Derived fields are recomputed without the time-sensitive
// check, exactly one audit entry is appended, and the document is replaced
// only if its version is unchanged. A NoOp change writes nothing.
func (s *Store) Mutate(ctx context.Context, id primitive.ObjectID, actor string, op projecttree.Op) (projecttree.Change, error) {
	var change projecttree.Change
	err := retryOnConflict(MaxAttempts, func() error {
		return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
			c, err := s.mutateOnce(ctx, id, actor, op)
			change = c
			return err
		})
	})
	s.metrics.Mutation(opName(op, change), outcome(change, err))
	if err != nil && errors.Is(err, ErrConflict) {
		s.log.Warn("project mutation gave up after conflicts",
			zap.String("project_id", id.Hex()),
			zap.String("op", opName(op, change)))
	}
	return change, err
}

func (s *Store) mutateOnce(ctx context.Context, id primitive.ObjectID, actor string, op projecttree.Op) (projecttree.Change, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return projecttree.Change{}, ErrNotFound
		}
		return projecttree.Change{}, err
	}

	now := s.now()
	change, err := op.Apply(&p, now)
	if err != nil || change.NoOp {
		return change, err
	}

	prev := p.Version
	next := projectmetrics.ServerSafe(p)
	next.TitleCI = text.Fold(next.Title)
	next.AuditLog = append(next.AuditLog, models.AuditEntry{
		User:      actor,
		Action:    change.Action,
		Timestamp: now,
		Details:   change.Details,
	})
	next.Version = prev + 1
	next.UpdatedAt = now

	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": id, "version": versionMatch(prev)}, next)
	if err != nil {
		return change, err
	}
	if res.MatchedCount == 0 {
		return change, ErrConflict
	}
	return change, nil
}

// versionMatch treats a missing version field as version 0.
func versionMatch(v int64) any {
	if v == 0 {
		return bson.M{"$in": bson.A{0, nil}}
	}
	return v
}

func retryOnConflict(attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return err
}

func opName(op projecttree.Op, c projecttree.Change) string {
	if c.Action != "" {
		return c.Action
	}
	name := fmt.Sprintf("%T", op)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func outcome(c projecttree.Change, err error) string {
	switch {
	case err == nil && c.NoOp:
		return appmetrics.OutcomeNoop
	case err == nil:
		return appmetrics.OutcomeOK
	case errors.Is(err, ErrConflict):
		return appmetrics.OutcomeConflict
	case errors.Is(err, ErrNotFound),
		errors.Is(err, projecttree.ErrInterventionNotFound),
		errors.Is(err, projecttree.ErrStageNotFound),
		errors.Is(err, projecttree.ErrSubInterventionNotFound):
		return appmetrics.OutcomeNotFound
	}
	return appmetrics.OutcomeError
}
