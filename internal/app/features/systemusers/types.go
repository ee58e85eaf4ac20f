// internal/app/features/systemusers/types.go
package systemusers

import (
	userstore "github.com/nestoreco/nestor/internal/app/store/users"
	"github.com/nestoreco/nestor/internal/app/system/auth"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
)

var (
	roles    = []string{auth.RoleAdmin, auth.RoleStaff}
	statuses = []string{userstore.StatusActive, userstore.StatusDisabled}
)

// View model for the users list page.
type listData struct {
	viewdata.BaseVM
	Status string
	Rows   []models.User
}

// newInput is validated on create.
type newInput struct {
	FullName string `validate:"required,max=200" label:"Full name" form:"full_name"`
	Email    string `validate:"required,email,max=254" label:"Email" form:"email"`
	Role     string `validate:"required,oneof=admin staff" label:"Role" form:"role"`
	Password string `validate:"required,min=8,max=200" label:"Password" form:"password"`
}

// editInput is validated on edit.
type editInput struct {
	Role   string `validate:"required,oneof=admin staff" label:"Role" form:"role"`
	Status string `validate:"required,oneof=active disabled" label:"Status" form:"status"`
}

type passwordInput struct {
	Password string `validate:"required,min=8,max=200" label:"Password" form:"password"`
}

// Form view model for New/Edit user.
type formData struct {
	formutil.Base

	ID       string
	IsEdit   bool
	IsSelf   bool
	FullName string
	Email    string
	Role     string
	Status   string

	Roles    []string
	Statuses []string
}
