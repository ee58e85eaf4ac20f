// internal/app/store/offers/offerstore.go
package offerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("offer not found")

// ErrInvalid wraps a rejected field value.
var ErrInvalid = errors.New("invalid offer")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("offers")}
}

func validStatus(s string) bool {
	switch s {
	case models.OfferReceived, models.OfferAccepted, models.OfferRejected:
		return true
	}
	return false
}

func (s *Store) Create(ctx context.Context, o models.Offer) (models.Offer, error) {
	o.Title = strings.TrimSpace(o.Title)
	if o.Title == "" {
		return models.Offer{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if o.SupplierID.IsZero() {
		return models.Offer{}, fmt.Errorf("%w: supplier is required", ErrInvalid)
	}
	if o.Status == "" {
		o.Status = models.OfferReceived
	}
	if !validStatus(o.Status) {
		return models.Offer{}, fmt.Errorf("%w: unknown offer status", ErrInvalid)
	}
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.TitleCI = text.Fold(o.Title)
	o.CreatedAt = now
	o.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		return models.Offer{}, err
	}
	return o, nil
}

// Update edits the header fields. The file and analysis are managed by
// SetFile and SetAnalysis.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, o models.Offer) error {
	o.Title = strings.TrimSpace(o.Title)
	if o.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if !validStatus(o.Status) {
		return fmt.Errorf("%w: unknown offer status", ErrInvalid)
	}
	set := bson.M{
		"supplier_id": o.SupplierID,
		"title":       o.Title,
		"title_ci":    text.Fold(o.Title),
		"amount":      o.Amount,
		"status":      o.Status,
		"updated_at":  time.Now().UTC(),
	}
	unset := bson.M{}
	if o.ProjectID != nil {
		set["project_id"] = o.ProjectID
	} else {
		unset["project_id"] = ""
	}
	if o.ValidUntil != nil {
		set["valid_until"] = o.ValidUntil
	} else {
		unset["valid_until"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return s.updateOne(ctx, id, update)
}

// SetFile records the uploaded document and clears any analysis of the
// previous one.
func (s *Store) SetFile(ctx context.Context, id primitive.ObjectID, f models.Attachment) error {
	return s.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"file": f, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"analysis": "", "analyzed_at": ""},
	})
}

func (s *Store) SetAnalysis(ctx context.Context, id primitive.ObjectID, analysis string) error {
	now := time.Now().UTC()
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{
		"analysis":    analysis,
		"analyzed_at": now,
		"updated_at":  now,
	}})
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Offer, error) {
	var o models.Offer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Offer{}, ErrNotFound
		}
		return models.Offer{}, err
	}
	return o, nil
}

// ListFilter narrows the offer list; zero fields match everything.
type ListFilter struct {
	SupplierID primitive.ObjectID
	ProjectID  primitive.ObjectID
	Status     string
}

// List returns offers newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Offer, error) {
	filter := bson.M{}
	if !f.SupplierID.IsZero() {
		filter["supplier_id"] = f.SupplierID
	}
	if !f.ProjectID.IsZero() {
		filter["project_id"] = f.ProjectID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Offer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReferencesContact reports whether any offer names the contact as supplier.
func (s *Store) ReferencesContact(ctx context.Context, contactID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"supplier_id": contactID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the offer and returns it so the caller can remove its file.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (models.Offer, error) {
	var o models.Offer
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Offer{}, ErrNotFound
		}
		return models.Offer{}, err
	}
	return o, nil
}

// UnlinkProject clears the project reference of every offer linked to it.
func (s *Store) UnlinkProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"project_id": projectID},
		bson.M{"$unset": bson.M{"project_id": ""}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
