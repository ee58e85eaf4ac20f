// internal/app/features/reminders/reminders.go
package reminders

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/templates"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	reminderstore "github.com/nestoreco/nestor/internal/app/store/reminders"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/llm"
	"github.com/nestoreco/nestor/internal/app/system/navigation"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Row is an open reminder with its project title. The dashboard shares it.
type Row struct {
	models.Reminder
	Project string
	Overdue bool
}

type listData struct {
	viewdata.BaseVM
	Rows []Row
}

// reminderInput defines validation rules for a manual reminder.
type reminderInput struct {
	ProjectID string `validate:"required" label:"Project" form:"project_id"`
	Title     string `validate:"required,max=200" label:"Title" form:"title"`
	Body      string `validate:"max=2000" label:"Details" form:"body"`
	DueDate   string `label:"Due date" form:"due_date"`
}

// OpenRows loads up to limit open reminders with their project titles.
func (h *Handler) OpenRows(ctx context.Context, limit int64, now time.Time) ([]Row, error) {
	rs, err := h.Reminders.ListOpen(ctx, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.ProjectID)
	}
	titles := map[primitive.ObjectID]string{}
	if len(ids) > 0 {
		ps, err := h.Projects.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(bson.M{"title": 1}))
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			titles[p.ID] = p.Title
		}
	}
	rows := make([]Row, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, Row{
			Reminder: r,
			Project:  titles[r.ProjectID],
			Overdue:  r.DueDate != nil && r.DueDate.Before(now),
		})
	}
	return rows, nil
}

// ServeList renders every open reminder.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	rows, err := h.OpenRows(ctx, 0, time.Now().UTC())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reminder list failed", err, "Could not load reminders.", "/")
		return
	}
	data := listData{BaseVM: viewdata.NewBaseVM(r, "Reminders", "/"), Rows: rows}
	data.TakeFlash(w, r, h.Flash)
	templates.Render(w, r, "reminders_list", data)
}

// HandleCreate adds a manual reminder to a project.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/reminders")
		return
	}
	in := reminderInput{
		ProjectID: strings.TrimSpace(r.FormValue("project_id")),
		Title:     strings.TrimSpace(r.FormValue("title")),
		Body:      strings.TrimSpace(r.FormValue("body")),
		DueDate:   strings.TrimSpace(r.FormValue("due_date")),
	}
	back := projectBack(r, in.ProjectID)

	errs := map[string]string{}
	if res := inputval.Validate(in); res.HasErrors() {
		errs = res.Errors
	}
	pid, err := primitive.ObjectIDFromHex(in.ProjectID)
	if err != nil && errs["project_id"] == "" {
		errs["project_id"] = "Project is invalid."
	}
	due, err := formutil.ParseDate(in.DueDate)
	if err != nil {
		errs["due_date"] = "Due date must be a date."
	}
	if len(errs) > 0 {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(errs), back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if _, err := h.Projects.GetByID(ctx, pid); errors.Is(err, projectstore.ErrNotFound) {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Project not found."), "/reminders")
		return
	} else if err != nil {
		h.Log.Error("project load failed", zap.Error(err), zap.String("project_id", pid.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the reminder."), back)
		return
	}
	if _, err := h.Reminders.Create(ctx, models.Reminder{
		ProjectID: pid,
		Title:     in.Title,
		Body:      in.Body,
		DueDate:   due,
		Source:    models.ReminderManual,
	}); err != nil {
		h.Log.Error("reminder create failed", zap.Error(err), zap.String("project_id", pid.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the reminder."), back)
		return
	}
	formutil.Respond(w, r, h.Flash, formutil.OK("Reminder added."), back)
}

// HandleGenerate asks the model for reminders about a project and stores
// them as AI reminders.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/reminders")
		return
	}
	raw := strings.TrimSpace(r.FormValue("project_id"))
	back := projectBack(r, raw)
	pid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Project not found."), "/reminders")
		return
	}
	if h.Flows == nil || !h.Flows.Enabled() {
		formutil.Respond(w, r, h.Flash, formutil.Fail("AI reminders are not configured."), back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	p, err := h.Projects.GetByID(ctx, pid)
	if errors.Is(err, projectstore.ErrNotFound) {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Project not found."), "/reminders")
		return
	}
	if err != nil {
		h.Log.Error("project load failed", zap.Error(err), zap.String("project_id", pid.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not generate reminders."), back)
		return
	}

	drafts, err := h.Flows.GenerateReminders(ctx, p)
	if err != nil {
		msg := "The AI could not suggest reminders. Try again later."
		if errors.Is(err, llm.ErrDisabled) {
			msg = "AI reminders are not configured."
		}
		formutil.Respond(w, r, h.Flash, formutil.Fail(msg), back)
		return
	}
	if len(drafts) == 0 {
		formutil.Respond(w, r, h.Flash, formutil.OK("No new reminders suggested."), back)
		return
	}
	rs := make([]models.Reminder, 0, len(drafts))
	for _, d := range drafts {
		rs = append(rs, models.Reminder{
			ProjectID: pid,
			Title:     d.Title,
			Body:      d.Body,
			DueDate:   d.DueDate,
			Source:    models.ReminderAI,
		})
	}
	created, err := h.Reminders.CreateMany(ctx, rs)
	if err != nil {
		h.Log.Error("reminder batch insert failed", zap.Error(err), zap.String("project_id", pid.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the suggested reminders."), back)
		return
	}
	h.Log.Info("ai reminders created", zap.String("project_id", pid.Hex()), zap.Int("count", len(created)))
	msg := "Added 1 suggested reminder."
	if len(created) != 1 {
		msg = "Added " + strconv.Itoa(len(created)) + " suggested reminders."
	}
	formutil.Respond(w, r, h.Flash, formutil.OK(msg), back)
}

// HandleDone closes a reminder.
func (h *Handler) HandleDone(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Reminder done.", h.Reminders.MarkDone)
}

// HandleDelete removes a reminder.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Reminder deleted.", h.Reminders.Delete)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, okMsg string, fn func(context.Context, primitive.ObjectID) error) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFormSize)
	back := navigation.SafeBackURL(r, navigation.RemindersBackURL)
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Reminder not found."), back)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	err := fn(ctx, id)
	switch {
	case errors.Is(err, reminderstore.ErrNotFound):
		formutil.Respond(w, r, h.Flash, formutil.Fail("Reminder not found."), back)
	case err != nil:
		h.Log.Error("reminder update failed", zap.Error(err), zap.String("reminder_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not update the reminder."), back)
	default:
		formutil.Respond(w, r, h.Flash, formutil.OK(okMsg), back)
	}
}

// projectBack returns to the project page unless a safe return is given.
func projectBack(r *http.Request, projectID string) string {
	opts := navigation.RemindersBackURL
	if _, err := primitive.ObjectIDFromHex(projectID); err == nil {
		opts.Fallback = "/projects/" + projectID
	}
	return navigation.SafeBackURL(r, opts)
}
