package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/nestoreco/nestor/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser is the session identity injected into handler tests.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

func AdminUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Admin", Email: "admin@test.com", Role: auth.RoleAdmin}
}

func StaffUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: "Test Staff", Email: "staff@test.com", Role: auth.RoleStaff}
}

// WithUser bypasses the session middleware and injects user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}

// NewAuthenticatedRequest creates a request carrying user.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewFormRequest creates a POST with an urlencoded body carrying user.
func NewFormRequest(target string, form url.Values, user TestUser) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return WithUser(r, user)
}

// NewJSONFormRequest is NewFormRequest for a caller that expects a JSON result.
func NewJSONFormRequest(target string, form url.Values, user TestUser) *http.Request {
	r := NewFormRequest(target, form, user)
	r.Header.Set("Accept", "application/json")
	return r
}
