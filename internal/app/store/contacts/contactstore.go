// internal/app/store/contacts/contactstore.go
package contactstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/nestoreco/nestor/internal/app/system/paging"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("contact not found")
	ErrDuplicateEmail = errors.New("a contact with this email already exists")
	ErrInvalid        = errors.New("invalid contact")
	// ErrInUse is returned by Delete when something still points at the contact.
	ErrInUse = errors.New("contact is still referenced")
)

// Referrer is anything that can hold a reference to a contact.
type Referrer interface {
	ReferencesContact(ctx context.Context, contactID primitive.ObjectID) (bool, error)
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

func normalize(c *models.Contact) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.FirstName == "" && c.LastName == "" {
		return fmt.Errorf("%w: first or last name is required", ErrInvalid)
	}
	if c.Role == "" {
		c.Role = models.RoleOther
	}
	if !models.IsContactRole(c.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, c.Role)
	}
	c.FullNameCI = text.Fold(c.FullName())
	return nil
}

// Create inserts a contact. Email, when set, is unique.
func (s *Store) Create(ctx context.Context, c models.Contact) (models.Contact, error) {
	if err := normalize(&c); err != nil {
		return models.Contact{}, err
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Contact{}, ErrDuplicateEmail
		}
		return models.Contact{}, err
	}
	return c, nil
}

// Update replaces the editable fields of a contact.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, c models.Contact) error {
	if err := normalize(&c); err != nil {
		return err
	}
	set := bson.M{
		"first_name":   c.FirstName,
		"last_name":    c.LastName,
		"full_name_ci": c.FullNameCI,
		"phone":        c.Phone,
		"company":      c.Company,
		"role":         c.Role,
		"notes":        c.Notes,
		"updated_at":   time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	// An empty email is unset so the partial unique index ignores it.
	if c.Email != "" {
		set["email"] = c.Email
	} else {
		update["$unset"] = bson.M{"email": ""}
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Contact, error) {
	var c models.Contact
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Contact{}, ErrNotFound
		}
		return models.Contact{}, err
	}
	return c, nil
}

// GetByIDs returns the contacts with the given ids keyed by id.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Contact, error) {
	out := make(map[primitive.ObjectID]models.Contact, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var c models.Contact
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, cur.Err()
}

// All returns every contact, optionally restricted to roles, sorted by name.
func (s *Store) All(ctx context.Context, roles ...string) ([]models.Contact, error) {
	filter := bson.M{}
	if len(roles) > 0 {
		filter["role"] = bson.M{"$in": roles}
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Contact
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFilter narrows the contact list.
type ListFilter struct {
	Search string
	Role   string
}

func (f ListFilter) filter() bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if lo, hi := text.PrefixRange(strings.TrimSpace(f.Search)); lo != "" {
		filter["full_name_ci"] = bson.M{"$gte": lo, "$lt": hi}
	}
	return filter
}

// List returns one keyset page ordered by folded full name.
func (s *Store) List(ctx context.Context, f ListFilter, pr paging.Request) (paging.Page[models.Contact], error) {
	filter := f.filter()
	ks := paging.ConfigureKeyset(pr)
	if w := ks.Window("full_name_ci"); w != nil {
		filter = bson.M{"$and": bson.A{filter, w}}
	}
	cur, err := s.c.Find(ctx, filter, ks.FindOptions("full_name_ci"))
	if err != nil {
		return paging.Page[models.Contact]{}, err
	}
	defer cur.Close(ctx)
	var rows []models.Contact
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Contact]{}, err
	}
	return paging.Finish(rows, pr,
		func(c models.Contact) string { return c.FullNameCI },
		func(c models.Contact) primitive.ObjectID { return c.ID }), nil
}

// Delete removes a contact unless one of refs still references it.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, refs ...Referrer) error {
	for _, r := range refs {
		used, err := r.ReferencesContact(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrInUse
		}
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
