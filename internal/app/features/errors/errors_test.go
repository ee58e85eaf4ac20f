package errors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorLogger_HTMX(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	tests := []struct {
		name    string
		call    func(w http.ResponseWriter, r *http.Request)
		code    int
		level   string
		logged  int
		message string
	}{
		{"server", func(w http.ResponseWriter, r *http.Request) {
			el.LogServerError(w, r, "load project failed", errors.New("boom"), "A database error occurred.", "/projects")
		}, http.StatusInternalServerError, "error", 1, "A database error occurred."},
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			el.LogBadRequest(w, r, "parse form failed", errors.New("bad"), "Invalid form data.", "/projects")
		}, http.StatusBadRequest, "warn", 1, "Invalid form data."},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			el.NotFound(w, r, "Project not found.", "/projects")
		}, http.StatusNotFound, "", 0, "Project not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			req := httptest.NewRequest("GET", "/projects/x", nil)
			req.Header.Set("HX-Request", "true")
			rec := httptest.NewRecorder()
			tt.call(rec, req)

			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if !strings.Contains(rec.Body.String(), tt.message) {
				t.Errorf("body = %q", rec.Body.String())
			}
			entries := logs.TakeAll()
			if len(entries) != tt.logged {
				t.Fatalf("logged %d entries, want %d", len(entries), tt.logged)
			}
			if tt.logged > 0 && entries[0].Level.String() != tt.level {
				t.Errorf("level = %s, want %s", entries[0].Level, tt.level)
			}
		})
	}
}
