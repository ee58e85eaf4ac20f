// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/projects").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/edit", "/delete").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return", validates
// the URL is safe (not an open redirect), optionally validates the prefix,
// and excludes specified subpaths to prevent redirect loops.
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}
	if ret == "" {
		return opts.Fallback
	}
	if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
		return opts.Fallback
	}
	for _, excluded := range opts.ExcludedSubpaths {
		if strings.Contains(ret, excluded) {
			return opts.Fallback
		}
	}
	return ret
}

// Common back URL configurations for reuse across packages.
var (
	// LoginReturnURL is where a successful sign-in lands.
	LoginReturnURL = BackURLOptions{
		AllowedPrefix:    "/",
		ExcludedSubpaths: []string{"/login", "/logout"},
		Fallback:         "/dashboard",
	}
	ProjectsBackURL = BackURLOptions{
		AllowedPrefix:    "/projects",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new"},
		Fallback:         "/projects",
	}

	ContactsBackURL = BackURLOptions{
		AllowedPrefix:    "/contacts",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new", "/import"},
		Fallback:         "/contacts",
	}

	OffersBackURL = BackURLOptions{
		AllowedPrefix:    "/offers",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new"},
		Fallback:         "/offers",
	}

	RemindersBackURL = BackURLOptions{
		ExcludedSubpaths: []string{"/edit", "/delete", "/new"},
		Fallback:         "/reminders",
	}
)
