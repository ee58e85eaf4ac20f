// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/nestoreco/nestor/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, ObjectID and a found
// flag. Anonymous requests and sessions carrying a malformed id both yield
// "visitor", "", NilObjectID, false.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current user may manage the catalog and
// other users.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == auth.RoleAdmin
}

// ActorName is the label written into project audit entries: the user's
// name, falling back to the email, then "system".
func ActorName(r *http.Request) string {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return "system"
	}
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	if u.Email != "" {
		return u.Email
	}
	return "system"
}
