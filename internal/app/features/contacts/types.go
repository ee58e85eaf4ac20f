// internal/app/features/contacts/types.go
package contacts

import (
	"html/template"

	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/paging"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
)

type listData struct {
	viewdata.BaseVM

	Search string
	Role   string
	Roles  []string

	Rows  []models.Contact
	Pager paging.Nav
}

// contactInput defines validation rules for the contact form.
type contactInput struct {
	FirstName string `validate:"required,max=100" label:"First name" form:"first_name"`
	LastName  string `validate:"required,max=100" label:"Last name" form:"last_name"`
	Email     string `validate:"omitempty,email,max=254" label:"Email" form:"email"`
	Phone     string `validate:"max=50" label:"Phone" form:"phone"`
	Company   string `validate:"max=200" label:"Company" form:"company"`
	Role      string `validate:"required,contactrole" label:"Role" form:"role"`
	Notes     string `validate:"max=5000" label:"Notes" form:"notes"`
}

type formData struct {
	formutil.Base

	ID     string
	IsEdit bool
	Input  contactInput
	Roles  []string
}

type importData struct {
	formutil.Base

	Imported int
	Skipped  []string
	Report   template.HTML
}
