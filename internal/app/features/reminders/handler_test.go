package reminders_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	"github.com/nestoreco/nestor/internal/app/features/reminders"
	"github.com/nestoreco/nestor/internal/app/system/aiflows"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/llm"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type stubGen struct{ out string }

func (g stubGen) Generate(ctx context.Context, req llm.Request) (string, error) { return g.out, nil }

func newTestHandler(t *testing.T, gen llm.Generator) (*reminders.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	metrics := appmetrics.New()
	flows, err := aiflows.New(gen, logger, metrics)
	if err != nil {
		t.Fatalf("aiflows.New: %v", err)
	}
	h := reminders.NewHandler(db, flows, nil, metrics, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) formutil.Result {
	t.Helper()
	var res formutil.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode result (status %d): %v", rec.Code, err)
	}
	return res
}

func projectReminders(t *testing.T, f *testutil.Fixtures, pid primitive.ObjectID) []models.Reminder {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	cur, err := f.DB().Collection("reminders").Find(ctx, bson.M{"project_id": pid})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	var out []models.Reminder
	if err := cur.All(ctx, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestHandleCreate(t *testing.T) {
	h, f := newTestHandler(t, llm.Disabled{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa", 0)

	form := url.Values{"project_id": {p.ID.Hex()}, "title": {"Call the surveyor"}, "due_date": {"2026-11-02"}}
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.NewFormRequest("/reminders", form, testutil.StaffUser()))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/projects/"+p.ID.Hex() {
		t.Fatalf("status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
	rs := projectReminders(t, f, p.ID)
	if len(rs) != 1 || rs[0].Source != models.ReminderManual || rs[0].DueDate == nil {
		t.Errorf("reminders = %+v", rs)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	h, f := newTestHandler(t, llm.Disabled{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa", 0)

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"missing title", url.Values{"project_id": {p.ID.Hex()}}, "title"},
		{"bad project", url.Values{"project_id": {"nope"}, "title": {"X"}}, "project_id"},
		{"bad date", url.Values{"project_id": {p.ID.Hex()}, "title": {"X"}, "due_date": {"tomorrow"}}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONFormRequest("/reminders", tt.form, testutil.StaffUser()))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			if res := decodeResult(t, rec); res.Errors[tt.field] == "" {
				t.Errorf("errors = %v, want key %q", res.Errors, tt.field)
			}
		})
	}
}

func TestHandleGenerate(t *testing.T) {
	gen := stubGen{out: "```json\n[" +
		`{"title":"Ask supplier for delivery date","body":"Windows stage is late","due_date":"2026-11-05"},` +
		`{"title":"Book site inspection","body":"","due_date":""},` +
		`{"title":"  ","body":"dropped"}` +
		"]\n```"}
	h, f := newTestHandler(t, gen)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa", 1000, testutil.StageSpec{Title: "Windows"})

	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, testutil.NewJSONFormRequest("/reminders/generate", url.Values{"project_id": {p.ID.Hex()}}, testutil.StaffUser()))
	res := decodeResult(t, rec)
	if !res.Success || !strings.Contains(res.Message, "2 suggested") {
		t.Fatalf("result = %+v", res)
	}
	rs := projectReminders(t, f, p.ID)
	if len(rs) != 2 {
		t.Fatalf("reminders = %+v", rs)
	}
	for _, r := range rs {
		if r.Source != models.ReminderAI || r.Done {
			t.Errorf("reminder = %+v", r)
		}
	}
}

func TestHandleGenerate_Disabled(t *testing.T) {
	h, f := newTestHandler(t, llm.Disabled{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa", 0)

	rec := httptest.NewRecorder()
	h.HandleGenerate(rec, testutil.NewJSONFormRequest("/reminders/generate", url.Values{"project_id": {p.ID.Hex()}}, testutil.StaffUser()))
	if res := decodeResult(t, rec); res.Success {
		t.Errorf("result = %+v, want failure", res)
	}
	if rs := projectReminders(t, f, p.ID); len(rs) != 0 {
		t.Errorf("reminders = %+v", rs)
	}
}

func TestDoneAndDelete(t *testing.T) {
	h, f := newTestHandler(t, llm.Disabled{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa", 0)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONFormRequest("/reminders", url.Values{"project_id": {p.ID.Hex()}, "title": {"Call"}}, testutil.StaffUser()))
	rid := projectReminders(t, f, p.ID)[0].ID.Hex()

	post := func(fn http.HandlerFunc, id string) formutil.Result {
		rec := httptest.NewRecorder()
		fn(rec, testutil.WithChiURLParam(testutil.NewJSONFormRequest("/", url.Values{}, testutil.StaffUser()), "id", id))
		return decodeResult(t, rec)
	}
	if res := post(h.HandleDone, rid); !res.Success {
		t.Fatalf("done = %+v", res)
	}
	if rs := projectReminders(t, f, p.ID); !rs[0].Done || rs[0].DoneAt == nil {
		t.Errorf("reminder = %+v", rs[0])
	}
	if res := post(h.HandleDelete, rid); !res.Success {
		t.Fatalf("delete = %+v", res)
	}
	if res := post(h.HandleDelete, rid); res.Success {
		t.Error("deleting twice should fail")
	}
}

func TestOpenRows(t *testing.T) {
	h, f := newTestHandler(t, llm.Disabled{})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa Alpina", 0)
	for _, form := range []url.Values{
		{"project_id": {p.ID.Hex()}, "title": {"Past"}, "due_date": {"2020-01-01"}},
		{"project_id": {p.ID.Hex()}, "title": {"Undated"}},
	} {
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.NewJSONFormRequest("/reminders", form, testutil.StaffUser()))
	}

	rows, err := h.OpenRows(ctx, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("OpenRows: %v", err)
	}
	if len(rows) != 2 || rows[0].Title != "Past" || !rows[0].Overdue || rows[1].Overdue {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Project != "Villa Alpina" {
		t.Errorf("project = %q", rows[0].Project)
	}
}
