// internal/domain/models/contact.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact roles.
const (
	RoleOwner      = "owner"
	RoleTechnician = "technician"
	RoleSupervisor = "supervisor"
	RoleSupplier   = "supplier"
	RoleConsultant = "consultant"
	RoleOther      = "other"
)

// ContactRoles lists the roles in display order.
var ContactRoles = []string{RoleOwner, RoleTechnician, RoleSupervisor, RoleSupplier, RoleConsultant, RoleOther}

// Contact is referenced by id from projects (owner) and stages
// (assignee/supervisor). There is no ownership relationship.
type Contact struct {
	ID         primitive.ObjectID `bson:"_id"`
	FirstName  string             `bson:"first_name"`
	LastName   string             `bson:"last_name"`
	FullNameCI string             `bson:"full_name_ci"`
	Email      string             `bson:"email,omitempty"`
	Phone      string             `bson:"phone,omitempty"`
	Company    string             `bson:"company,omitempty"`
	Role       string             `bson:"role"`
	Notes      string             `bson:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsContactRole reports whether r is a known contact role.
func IsContactRole(r string) bool {
	for _, v := range ContactRoles {
		if v == r {
			return true
		}
	}
	return false
}
