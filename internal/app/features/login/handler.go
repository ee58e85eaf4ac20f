// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	userstore "github.com/nestoreco/nestor/internal/app/store/users"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/auth"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/navigation"
	"github.com/nestoreco/nestor/internal/app/system/ratelimit"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// badCredentials is shown for both unknown emails and wrong passwords.
const badCredentials = "Invalid email or password."

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	ret := strings.TrimSpace(r.FormValue("return"))
	if email == "" || password == "" {
		h.renderFormWithError(w, r, http.StatusUnprocessableEntity, "Please enter your email and password.", email, ret)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited", zap.String("email", email), zap.String("ip", ratelimit.ClientIP(r)))
			h.renderFormWithError(w, r, http.StatusTooManyRequests, reason, email, ret)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		h.renderFormWithError(w, r, http.StatusUnauthorized, badCredentials, email, ret)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.", "/login")
		return
	}

	if !userstore.CheckPassword(u, password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		h.renderFormWithError(w, r, http.StatusUnauthorized, badCredentials, email, ret)
		return
	}

	/*── disabled users cannot sign in ─────────────────────────────────────*/

	if u.Status == userstore.StatusDisabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
		h.renderFormWithError(w, r, http.StatusForbidden,
			"Your account is currently disabled. Please contact an administrator.", email, ret)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		h.renderFormWithError(w, r, http.StatusInternalServerError, "Unable to create session. Please try again.", email, ret)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.LoginReturnURL), http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, code int, msg, email, ret string) {
	w.WriteHeader(code)
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
