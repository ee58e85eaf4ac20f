package formutil

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the format of <input type="date"> values.
const DateLayout = "2006-01-02"

var errBadNumber = errors.New("not a number")

// ParseDate reads a date input. Empty means no date. Dates are taken as
// the end of that day in UTC so a deadline stays current all day.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	t = t.Add(24*time.Hour - time.Second)
	return &t, nil
}

// FormatDate is the inverse of ParseDate for pre-filling inputs.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseAmount reads a decimal number, accepting a comma as the decimal
// separator. Empty is zero.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errBadNumber
	}
	return f, nil
}

// FormatAmount pre-fills an amount input; zero is left blank.
func FormatAmount(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseOptionalID reads an ObjectID select value; empty means none.
func ParseOptionalID(s string) (*primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// URLID parses the chi URL parameter name as an ObjectID.
func URLID(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return id, err == nil
}
