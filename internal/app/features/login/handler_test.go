package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	"github.com/nestoreco/nestor/internal/app/features/login"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/auth"
	"github.com/nestoreco/nestor/internal/app/system/ratelimit"
	"github.com/nestoreco/nestor/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	h      *login.Handler
	f      *testutil.Fixtures
	events *audit.Store
}

func newTestHandler(t *testing.T, limiter *ratelimit.LoginLimiter) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	events := audit.New(db)
	al := auditlog.New(events, logger, auditlog.Config{Auth: auditlog.ModeDB, Admin: auditlog.ModeDB})
	h := login.NewHandler(db, sm, limiter, al, uierrors.NewErrorLogger(logger), logger)
	return env{h: h, f: testutil.NewFixtures(t, db), events: events}
}

func post(t *testing.T, h *login.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Logf("recovered from panic (expected - template not initialized): %v", r)
			}
		}()
		h.HandleLoginPost(rec, req)
	}()
	return rec
}

func lastEvent(t *testing.T, e env) string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	evs, err := e.events.GetRecent(ctx, 1)
	if err != nil || len(evs) == 0 {
		t.Fatalf("no audit events: %v", err)
	}
	return evs[0].EventType
}

func TestHandleLoginPost_Success(t *testing.T) {
	e := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.f.CreateUser(ctx, "Ada Rossi", "ada@example.com", "staff")

	rec := post(t, e.h, url.Values{
		"email":    {"  ADA@example.com"},
		"password": {testutil.TestPassword},
		"return":   {"/projects?status=Delayed"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/projects?status=Delayed" {
		t.Errorf("Location = %q", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	if got := lastEvent(t, e); got != audit.EventLoginSuccess {
		t.Errorf("audit event = %q", got)
	}
}

func TestHandleLoginPost_UnsafeReturnFallsBack(t *testing.T) {
	e := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.f.CreateUser(ctx, "Ada Rossi", "ada@example.com", "staff")

	rec := post(t, e.h, url.Values{
		"email":    {"ada@example.com"},
		"password": {testutil.TestPassword},
		"return":   {"https://evil.example.com/"},
	})
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestHandleLoginPost_Failures(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantCode  int
		wantEvent string
	}{
		{"unknown email", "nobody@example.com", "whatever-pw", http.StatusUnauthorized, audit.EventLoginFailedUserNotFound},
		{"wrong password", "ada@example.com", "wrong-password", http.StatusUnauthorized, audit.EventLoginFailedWrongPassword},
		{"disabled", "off@example.com", testutil.TestPassword, http.StatusForbidden, audit.EventLoginFailedUserDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestHandler(t, nil)
			ctx, cancel := testutil.TestContext()
			defer cancel()
			e.f.CreateUser(ctx, "Ada Rossi", "ada@example.com", "staff")
			e.f.CreateDisabledUser(ctx, "Off User", "off@example.com")

			rec := post(t, e.h, url.Values{"email": {tt.email}, "password": {tt.password}})
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("no session cookie expected")
			}
			if got := lastEvent(t, e); got != tt.wantEvent {
				t.Errorf("audit event = %q, want %q", got, tt.wantEvent)
			}
		})
	}
}

func TestHandleLoginPost_MissingFields(t *testing.T) {
	e := newTestHandler(t, nil)
	rec := post(t, e.h, url.Values{"email": {"ada@example.com"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiterWithConfig(100, time.Minute, 1, time.Minute)
	defer limiter.Close()
	e := newTestHandler(t, limiter)

	form := url.Values{"email": {"ada@example.com"}, "password": {"wrong-password"}}
	post(t, e.h, form)
	rec := post(t, e.h, form)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}
