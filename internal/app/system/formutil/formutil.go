// Package formutil holds the page scaffolding shared by form views and the
// uniform result every mutating action returns.
//
// Form pages embed Base:
//
//	type contactFormData struct {
//		formutil.Base
//		Contact models.Contact
//	}
//
//	formutil.SetBase(&data.Base, r, "New contact", "/contacts")
//	data.SetErrors(res.Errors)
//	templates.Render(w, r, "contact_form", data)
//
// Actions answer with Respond, which picks JSON (API and HTMX callers) or
// flash-and-redirect (plain browser posts).
package formutil

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/nestoreco/nestor/internal/app/system/flash"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
)

// Base is the page scaffolding of a form view: the layout fields plus
// the form-level and per-field errors.
type Base struct {
	viewdata.BaseVM
	Error       template.HTML
	FieldErrors map[string]string
}

// SetBase fills Base from the request.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, title, backDefault)
}

func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// SetErrors sets per-field messages and a summary line.
func (b *Base) SetErrors(errs map[string]string) {
	b.FieldErrors = errs
	if len(errs) > 0 && b.Error == "" {
		b.SetError("Please correct the highlighted fields.")
	}
}

// Result is returned by every mutating action.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK is a successful Result.
func OK(msg string) Result { return Result{Success: true, Message: msg} }

// Fail is a failed Result.
func Fail(msg string) Result { return Result{Success: false, Message: msg} }

// Invalid is a failed Result carrying field errors.
func Invalid(errs map[string]string) Result {
	return Result{Success: false, Message: "Please correct the highlighted fields.", Errors: errs}
}

// WantsJSON reports whether the caller expects a JSON body rather than a
// redirect.
func WantsJSON(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// Respond delivers res. JSON callers get it as the body (422 when it
// carries field errors); browsers get it as a flash message and a 303 to
// redirect.
func Respond(w http.ResponseWriter, r *http.Request, f *flash.Messenger, res Result, redirect string) {
	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		if len(res.Errors) > 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		_ = json.NewEncoder(w).Encode(res)
		return
	}
	if f != nil {
		kind := flash.Success
		if !res.Success {
			kind = flash.Error
		}
		_ = f.Set(w, flash.Message{Kind: kind, Text: res.Message, Errs: res.Errors})
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}
