// Package inputval validates decoded form structs with struct tags and
// turns failures into field messages for the form views.
//
//	type contactInput struct {
//		FirstName string `validate:"required,max=100" label:"First name" form:"first_name"`
//	}
//
// Messages are keyed by the form tag (falling back to the field name) so
// templates can look them up by input name.
package inputval

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/nestoreco/nestor/internal/domain/models"
)

var (
	once sync.Once
	v    *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
			return f.Name
		})
		_ = v.RegisterValidation("stagestatus", func(fl validator.FieldLevel) bool {
			return models.IsStageStatus(fl.Field().String())
		})
		_ = v.RegisterValidation("contactrole", func(fl validator.FieldLevel) bool {
			return models.IsContactRole(fl.Field().String())
		})
		_ = v.RegisterValidation("projectstatus", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case models.StatusQuotation, models.StatusOnTrack, models.StatusCompleted:
				return true
			}
			return false
		})
	})
	return v
}

// Result holds per-field messages.
type Result struct {
	Errors map[string]string
}

// HasErrors reports whether validation failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns one message, for places that only show a single line.
func (r Result) First() string {
	for _, msg := range r.Errors {
		return msg
	}
	return ""
}

// Validate checks s (a struct or pointer to struct).
func Validate(s any) Result {
	err := get().Struct(s)
	if err == nil {
		return Result{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Errors: map[string]string{"_": err.Error()}}
	}

	labels := labelsOf(s)
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if _, dup := out[key]; dup {
			continue
		}
		label := labels[fe.StructField()]
		if label == "" {
			label = fe.StructField()
		}
		out[key] = message(label, fe)
	}
	return Result{Errors: out}
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "email":
		return label + " must be a valid email address."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "stagestatus", "contactrole", "projectstatus":
		return label + " has an unknown value."
	}
	return label + " is invalid."
}

func labelsOf(s any) map[string]string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]string{}
	if t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if l := f.Tag.Get("label"); l != "" {
			out[f.Name] = l
		}
	}
	return out
}

// IsValidEmail reports whether s is a bare address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " <>") {
		return false
	}
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
