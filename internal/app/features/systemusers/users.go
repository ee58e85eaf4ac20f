// internal/app/features/systemusers/users.go
package systemusers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	userstore "github.com/nestoreco/nestor/internal/app/store/users"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /users. The team is small, so the list is not paged.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users failed", err, "Failed to load users.", "/")
		return
	}
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	rows := users
	if status == userstore.StatusActive || status == userstore.StatusDisabled {
		rows = rows[:0:0]
		for _, u := range users {
			if u.Status == status {
				rows = append(rows, u)
			}
		}
	} else {
		status = ""
	}

	data := listData{BaseVM: viewdata.NewBaseVM(r, "Users", "/"), Status: status, Rows: rows}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "system_users_list", data)
}

// ServeNew renders the create form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, formData{Role: "staff", Status: userstore.StatusActive}, nil)
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	in := newInput{
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Role:     strings.ToLower(strings.TrimSpace(r.FormValue("role"))),
		Password: r.FormValue("password"),
	}
	data := formData{FullName: in.FullName, Email: in.Email, Role: in.Role, Status: userstore.StatusActive}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, data, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	u, err := h.Users.Create(ctx, models.User{FullName: in.FullName, Email: in.Email, Role: in.Role}, in.Password)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		h.invalid(w, r, data, map[string]string{"email": "A user with this email already exists."})
		return
	case errors.Is(err, userstore.ErrWeakPassword):
		h.invalid(w, r, data, map[string]string{"password": "Password must be at least 8 characters."})
		return
	case err != nil:
		h.Log.Error("create user failed", zap.Error(err))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not create the user."), "/users")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventUserCreated, map[string]string{"user_id": u.ID.Hex(), "email": u.Email, "role": u.Role})
	formutil.Respond(w, r, h.Flash, formutil.OK("User "+u.FullName+" created."), "/users")
}

// ServeEdit renders the role and status form for one user.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, formData{
		ID:       u.ID.Hex(),
		IsEdit:   true,
		IsSelf:   isSelf(r, u.ID),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
	}, nil)
}

// HandleEdit changes role and status. Admins cannot demote or disable
// themselves.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.parse(w, r) {
		return
	}
	in := editInput{
		Role:   strings.ToLower(strings.TrimSpace(r.FormValue("role"))),
		Status: strings.ToLower(strings.TrimSpace(r.FormValue("status"))),
	}
	data := formData{
		ID: u.ID.Hex(), IsEdit: true, IsSelf: isSelf(r, u.ID),
		FullName: u.FullName, Email: u.Email, Role: in.Role, Status: in.Status,
	}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, data, res.Errors)
		return
	}
	if data.IsSelf && (in.Role != u.Role || in.Status != userstore.StatusActive) {
		h.invalid(w, r, data, map[string]string{"role": "You cannot change your own role or disable your own account."})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Users.SetRoleStatus(ctx, u.ID, in.Role, in.Status); err != nil {
		h.Log.Error("update user failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not update the user."), "/users")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventUserUpdated, map[string]string{"user_id": u.ID.Hex(), "role": in.Role, "status": in.Status})
	formutil.Respond(w, r, h.Flash, formutil.OK("User "+u.FullName+" updated."), "/users")
}

// HandlePassword sets a new password chosen by the admin.
func (h *Handler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.parse(w, r) {
		return
	}
	in := passwordInput{Password: r.FormValue("password")}
	if res := inputval.Validate(in); res.HasErrors() {
		h.invalid(w, r, formData{
			ID: u.ID.Hex(), IsEdit: true, IsSelf: isSelf(r, u.ID),
			FullName: u.FullName, Email: u.Email, Role: u.Role, Status: u.Status,
		}, res.Errors)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.Users.SetPassword(ctx, u.ID, in.Password); err != nil {
		h.Log.Error("reset password failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not change the password."), "/users")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventPasswordReset, map[string]string{"user_id": u.ID.Hex()})
	formutil.Respond(w, r, h.Flash, formutil.OK("Password changed for "+u.FullName+"."), "/users")
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		h.ErrLog.NotFound(w, r, "User not found.", "/users")
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "User not found.", "/users")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "Failed to load the user.", "/users")
		return nil, false
	}
	return u, true
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/users")
		return false
	}
	return true
}

func isSelf(r *http.Request, id primitive.ObjectID) bool {
	_, _, uid, ok := authz.UserCtx(r)
	return ok && uid == id
}

func (h *Handler) invalid(w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	if formutil.WantsJSON(r) {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(errs), "")
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.renderForm(w, r, data, errs)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data formData, errs map[string]string) {
	title := "New user"
	if data.IsEdit {
		title = "Edit user"
	}
	formutil.SetBase(&data.Base, r, title, "/users")
	data.SetErrors(errs)
	data.Roles = roles
	data.Statuses = statuses
	templates.Render(w, r, "system_users_form", data)
}
