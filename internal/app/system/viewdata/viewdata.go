// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
	"github.com/nestoreco/nestor/internal/app/system/auth"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/flash"
)

// SiteName is shown in the page header and titles.
const SiteName = "NESTOR eco"

// BaseVM contains the common fields needed by the layout template.
// Every page view model embeds it:
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	IsAdmin    bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection; empty when the middleware is not mounted.
	CSRFToken string
	CSRFField template.HTML

	// Flash is the outcome of the previous form action, if any.
	Flash *flash.Message
}

// NewBaseVM creates a fully populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	role, name, _, signedIn := authz.UserCtx(r)
	return BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		IsAdmin:     signedIn && role == auth.RoleAdmin,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		CSRFField:   csrf.TemplateField(r),
	}
}

// TakeFlash consumes a pending flash message into the view model.
func (vm *BaseVM) TakeFlash(w http.ResponseWriter, r *http.Request, f *flash.Messenger) {
	if f == nil {
		return
	}
	if m, ok := f.Pop(w, r); ok {
		vm.Flash = &m
	}
}
