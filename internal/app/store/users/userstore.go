package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/nestoreco/nestor/internal/app/system/auth"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// User status values.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// MinPasswordLength is enforced on Create and SetPassword.
const MinPasswordLength = 8

var (
	ErrInvalid = errors.New("invalid user")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrNotFound       = errors.New("user not found")
	ErrWeakPassword   = errors.New("password must be at least 8 characters")
	errBadRole        = fmt.Errorf(`%w: role must be "admin"|"staff"`, ErrInvalid)
	errBadStatus      = fmt.Errorf(`%w: status must be "active"|"disabled"`, ErrInvalid)
)

type Store struct {
	c *mongo.Collection
	// cost is the bcrypt work factor; tests lower it.
	cost int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), cost: bcrypt.DefaultCost}
}

// WithCost returns a copy of the store hashing with the given bcrypt cost.
func (s *Store) WithCost(cost int) *Store {
	cp := *s
	cp.cost = cost
	return &cp
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalizeEmail(email))}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by name.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new user, hashing password.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = normalizeEmail(u.Email)
	u.EmailCI = text.Fold(u.Email)
	if u.Email == "" {
		return models.User{}, fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.Role != auth.RoleAdmin && u.Role != auth.RoleStaff {
		return models.User{}, errBadRole
	}
	if u.Status != StatusActive && u.Status != StatusDisabled {
		return models.User{}, errBadStatus
	}
	hash, err := s.hash(password)
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetPassword replaces the password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.set(ctx, id, bson.M{"password_hash": hash})
}

// SetRoleStatus changes role and status together.
func (s *Store) SetRoleStatus(ctx context.Context, id primitive.ObjectID, role, status string) error {
	if role != auth.RoleAdmin && role != auth.RoleStaff {
		return errBadRole
	}
	if status != StatusActive && status != StatusDisabled {
		return errBadStatus
	}
	return s.set(ctx, id, bson.M{"role": role, "status": status})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CheckPassword reports whether password matches u's hash.
func CheckPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// EnsureAdmin creates an admin with the given credentials unless a user
// with that email already exists. It reports whether one was created.
func (s *Store) EnsureAdmin(ctx context.Context, fullName, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, nil
	}
	_, err := s.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	_, err = s.Create(ctx, models.User{FullName: fullName, Email: email, Role: auth.RoleAdmin}, password)
	if errors.Is(err, ErrDuplicateEmail) {
		return false, nil
	}
	return err == nil, err
}
