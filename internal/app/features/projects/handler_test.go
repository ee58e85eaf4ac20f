package projects_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	"github.com/nestoreco/nestor/internal/app/features/projects"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/blobstore"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*projects.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	blobs, err := blobstore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	logger := zap.NewNop()
	h := projects.NewHandler(db, blobs, nil, appmetrics.New(), uierrors.NewErrorLogger(logger), logger)
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

func withIDs(r *http.Request, kv ...string) *http.Request {
	for i := 0; i+1 < len(kv); i += 2 {
		r = testutil.WithChiURLParam(r, kv[i], kv[i+1])
	}
	return r
}

func loadProject(t *testing.T, f *testutil.Fixtures, id primitive.ObjectID) models.Project {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var p models.Project
	if err := f.DB().Collection("projects").FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		t.Fatalf("load project: %v", err)
	}
	return p
}

func TestHandleCreate_Success(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := f.CreateContact(ctx, "Anna", "Rossi", "anna@example.com", models.RoleOwner)

	form := url.Values{
		"title":              {"Villa Alpina"},
		"application_number": {"SB-2026-001"},
		"owner_id":           {owner.ID.Hex()},
		"deadline":           {"2026-12-31"},
	}
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, testutil.NewFormRequest("/projects", form, testutil.StaffUser()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !strings.HasPrefix(rec.Header().Get("Location"), "/projects/") {
		t.Errorf("Location = %q", rec.Header().Get("Location"))
	}

	var p models.Project
	if err := f.DB().Collection("projects").FindOne(ctx, bson.M{"title": "Villa Alpina"}).Decode(&p); err != nil {
		t.Fatalf("project not created: %v", err)
	}
	if p.Status != models.StatusQuotation {
		t.Errorf("status = %q, want %q", p.Status, models.StatusQuotation)
	}
	if p.OwnerID == nil || *p.OwnerID != owner.ID {
		t.Errorf("owner = %v, want %v", p.OwnerID, owner.ID)
	}
	if len(p.AuditLog) != 1 || p.AuditLog[0].User != "Test Staff" {
		t.Errorf("audit log = %+v", p.AuditLog)
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"missing title", url.Values{"title": {""}}, "title"},
		{"bad deadline", url.Values{"title": {"X"}, "deadline": {"31/12/2026"}}, "deadline"},
		{"delayed is not settable", url.Values{"title": {"X"}, "status": {models.StatusDelayed}}, "status"},
		{"bad owner", url.Values{"title": {"X"}, "owner_id": {"nope"}}, "owner_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleCreate(rec, testutil.NewJSONFormRequest("/projects", tt.form, testutil.StaffUser()))
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			if res := decodeResult(t, rec); res.Errors[tt.field] == "" {
				t.Errorf("errors = %v, want one for %q", res.Errors, tt.field)
			}
		})
	}
	if n, _ := f.DB().Collection("projects").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("%d projects created by invalid posts", n)
	}
}

func TestHandleEdit_UpdatesAndAudits(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa Alpina", 1000)

	form := url.Values{"title": {"Villa Alpina Nord"}, "status": {models.StatusOnTrack}, "address": {"Via Roma 1"}}
	req := withIDs(testutil.NewJSONFormRequest("/projects/"+p.ID.Hex()+"/edit", form, testutil.StaffUser()), "id", p.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleEdit(rec, req)

	if res := decodeResult(t, rec); !res.Success {
		t.Fatalf("result = %+v", res)
	}
	got := loadProject(t, f, p.ID)
	if got.Title != "Villa Alpina Nord" || got.TitleCI != "villa alpina nord" || got.Address != "Via Roma 1" {
		t.Errorf("project = %q / %q / %q", got.Title, got.TitleCI, got.Address)
	}
	if got.Version != p.Version+1 || len(got.AuditLog) != 1 {
		t.Errorf("version = %d, audit = %d entries", got.Version, len(got.AuditLog))
	}
}

func TestHandleAddIntervention_CopiesCatalog(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Casa Verde", 500)
	m := f.CreateMasterIntervention(ctx, "Heating", "Heat pump", "Heating systems (I)", "Survey", "Install", "Test")

	form := url.Values{"master_id": {m.ID.Hex()}, "notes": {"ground floor"}}
	req := withIDs(testutil.NewJSONFormRequest("/projects/x/interventions", form, testutil.StaffUser()), "id", p.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAddIntervention(rec, req)

	if res := decodeResult(t, rec); !res.Success {
		t.Fatalf("result = %+v", res)
	}
	got := loadProject(t, f, p.ID)
	if len(got.Interventions) != 2 {
		t.Fatalf("interventions = %d, want 2", len(got.Interventions))
	}
	var added *models.Intervention
	for i := range got.Interventions {
		if got.Interventions[i].MasterInterventionID == m.ID {
			added = &got.Interventions[i]
		}
	}
	if added == nil {
		t.Fatal("added intervention not found")
	}
	if added.ExpenseCategory != "Heating systems (I)" || len(added.Stages) != 3 || added.Notes != "ground floor" {
		t.Errorf("intervention = %+v", added)
	}
}

func TestHandleAddIntervention_UnknownCatalogEntry(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Casa Verde", 500)

	form := url.Values{"master_id": {primitive.NewObjectID().Hex()}}
	req := withIDs(testutil.NewJSONFormRequest("/", form, testutil.StaffUser()), "id", p.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAddIntervention(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if got := loadProject(t, f, p.ID); got.Version != p.Version {
		t.Error("project must not be written")
	}
}

func TestHandleStageStatus(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name       string
		status     string
		wantCode   int
		wantOK     bool
		wantStatus string
	}{
		{"complete last stage", models.StageCompleted, http.StatusOK, true, models.StatusCompleted},
		{"in progress", models.StageInProgress, http.StatusOK, true, models.StatusOnTrack},
		{"unknown status", "done", http.StatusUnprocessableEntity, false, models.StatusOnTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.CreateProject(ctx, "Stage "+tt.name, 100, testutil.StageSpec{Title: "Install"})
			iv := p.Interventions[0]
			req := withIDs(testutil.NewJSONFormRequest("/", url.Values{"status": {tt.status}}, testutil.StaffUser()),
				"id", p.ID.Hex(), "iid", iv.ID.Hex(), "sid", iv.Stages[0].ID.Hex())
			rec := httptest.NewRecorder()
			h.HandleStageStatus(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if res := decodeResult(t, rec); res.Success != tt.wantOK {
				t.Errorf("result = %+v", res)
			}
			got := loadProject(t, f, p.ID)
			if got.Status != tt.wantStatus {
				t.Errorf("project status = %q, want %q", got.Status, tt.wantStatus)
			}
			wantAudit := 0
			if tt.wantOK {
				wantAudit = 1
			}
			if len(got.AuditLog) != wantAudit {
				t.Errorf("audit entries = %d, want %d", len(got.AuditLog), wantAudit)
			}
		})
	}
}

func TestHandleMoveStage_AtEdgeIsNoOp(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Edge", 100, testutil.StageSpec{Title: "A"}, testutil.StageSpec{Title: "B"})
	iv := p.Interventions[0]

	req := withIDs(testutil.NewJSONFormRequest("/", url.Values{"direction": {"up"}}, testutil.StaffUser()),
		"id", p.ID.Hex(), "iid", iv.ID.Hex(), "sid", iv.Stages[0].ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleMoveStage(rec, req)

	res := decodeResult(t, rec)
	if !res.Success || res.Message == "" {
		t.Errorf("result = %+v, want success with an explanation", res)
	}
	if got := loadProject(t, f, p.ID); got.Version != p.Version || len(got.AuditLog) != 0 {
		t.Errorf("no-op wrote: version %d, %d audit entries", got.Version, len(got.AuditLog))
	}
}

func TestHandleDeleteStage_UnknownStage(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Missing", 100, testutil.StageSpec{Title: "A"})

	req := withIDs(testutil.NewJSONFormRequest("/", url.Values{}, testutil.StaffUser()),
		"id", p.ID.Hex(), "iid", p.Interventions[0].ID.Hex(), "sid", primitive.NewObjectID().Hex())
	rec := httptest.NewRecorder()
	h.HandleDeleteStage(rec, req)

	if res := decodeResult(t, rec); res.Success || res.Message != "Stage not found." {
		t.Errorf("result = %+v", res)
	}
}

func TestHandleAddSub(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Lines", 1000)
	iid := p.Interventions[0].ID.Hex()

	t.Run("valid", func(t *testing.T) {
		form := url.Values{
			"code": {"ENV02"}, "description": {"Windows"}, "quantity": {"4"},
			"eligible_cost": {"2500,50"}, "materials_cost": {"1200"}, "labor_cost": {"300"},
		}
		rec := httptest.NewRecorder()
		h.HandleAddSub(rec, withIDs(testutil.NewJSONFormRequest("/", form, testutil.StaffUser()), "id", p.ID.Hex(), "iid", iid))
		if res := decodeResult(t, rec); !res.Success {
			t.Fatalf("result = %+v", res)
		}
		got := loadProject(t, f, p.ID)
		if got.Budget != 3500.5 {
			t.Errorf("budget = %v, want 3500.5", got.Budget)
		}
	})

	t.Run("negative cost", func(t *testing.T) {
		form := url.Values{"code": {"X"}, "description": {"Y"}, "labor_cost": {"-1"}}
		rec := httptest.NewRecorder()
		h.HandleAddSub(rec, withIDs(testutil.NewJSONFormRequest("/", form, testutil.StaffUser()), "id", p.ID.Hex(), "iid", iid))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
		if res := decodeResult(t, rec); res.Errors["labor_cost"] == "" {
			t.Errorf("errors = %v", res.Errors)
		}
	})
}

func TestHandleDelete(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Doomed", 100)
	if _, err := f.DB().Collection("reminders").InsertOne(ctx, models.Reminder{
		ID: primitive.NewObjectID(), ProjectID: p.ID, Title: "Call owner", Source: models.ReminderManual,
	}); err != nil {
		t.Fatal(err)
	}

	t.Run("staff is refused", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleDelete(rec, withIDs(testutil.NewJSONFormRequest("/", url.Values{}, testutil.StaffUser()), "id", p.ID.Hex()))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("admin deletes with reminders", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleDelete(rec, withIDs(testutil.NewFormRequest("/", url.Values{}, testutil.AdminUser()), "id", p.ID.Hex()))
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/projects" {
			t.Errorf("status = %d, Location = %q", rec.Code, rec.Header().Get("Location"))
		}
		if n, _ := f.DB().Collection("projects").CountDocuments(ctx, bson.M{"_id": p.ID}); n != 0 {
			t.Error("project still present")
		}
		if n, _ := f.DB().Collection("reminders").CountDocuments(ctx, bson.M{"project_id": p.ID}); n != 0 {
			t.Error("reminders still present")
		}
	})
}

func TestServeListCSV(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateProject(ctx, "Alpha", 100)
	f.CreateProject(ctx, "=Beta", 200)

	rec := httptest.NewRecorder()
	h.ServeListCSV(rec, testutil.NewAuthenticatedRequest("GET", "/projects/export.csv", testutil.StaffUser()))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"Title,Application number", "Alpha,", "'=Beta,"} {
		if !strings.Contains(body, want) {
			t.Errorf("export missing %q:\n%s", want, body)
		}
	}
}

func TestServeProjectCSV_Totals(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Villa Alpina", 1234.5, testutil.StageSpec{Title: "Survey"})

	rec := httptest.NewRecorder()
	h.ServeProjectCSV(rec, withIDs(testutil.NewAuthenticatedRequest("GET", "/", testutil.StaffUser()), "id", p.ID.Hex()))

	if !strings.Contains(rec.Header().Get("Content-Disposition"), "villa-alpina-") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	body := rec.Body.String()
	for _, want := range []string{"ENV01-II", "Survey", "Total,,,,,,,1234.50"} {
		if !strings.Contains(body, want) {
			t.Errorf("export missing %q:\n%s", want, body)
		}
	}
}

func TestAttachmentRoundTrip(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Files", 100, testutil.StageSpec{Title: "Permit"})
	iid, sid := p.Interventions[0].ID.Hex(), p.Interventions[0].Stages[0].ID.Hex()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "permit scan.pdf")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("%PDF-1.7 permit"))
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req = withIDs(testutil.WithUser(req, testutil.StaffUser()), "id", p.ID.Hex(), "iid", iid, "sid", sid)
	rec := httptest.NewRecorder()
	h.HandleUploadAttachment(rec, req)
	if res := decodeResult(t, rec); !res.Success {
		t.Fatalf("upload result = %+v", res)
	}

	got := loadProject(t, f, p.ID)
	atts := got.Interventions[0].Stages[0].Attachments
	if len(atts) != 1 || atts[0].FileName != "permit scan.pdf" || atts[0].UploadedBy != "Test Staff" {
		t.Fatalf("attachments = %+v", atts)
	}

	rec = httptest.NewRecorder()
	get := withIDs(testutil.NewAuthenticatedRequest("GET", "/", testutil.StaffUser()),
		"id", p.ID.Hex(), "iid", iid, "sid", sid, "aid", atts[0].ID.Hex())
	h.ServeAttachment(rec, get)
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.7 permit" {
		t.Errorf("download status %d body %q", rec.Code, rec.Body.String())
	}
}

// uploadRequest builds a multipart upload of content as name.
func uploadRequest(t *testing.T, name, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(content))
	_ = mw.Close()
	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req
}

// ctxBlobs is a local store whose Delete fails on a finished context, the
// way a network backend does.
type ctxBlobs struct {
	blobstore.Store
	deleted []string
}

func (b *ctxBlobs) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.deleted = append(b.deleted, key)
	return b.Store.Delete(ctx, key)
}

func TestHandleUploadAttachment_RemovesBlobWhenRequestExpired(t *testing.T) {
	h, f := newTestHandler(t)
	blobs := &ctxBlobs{Store: h.Blobs}
	h.Blobs = blobs
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Late upload", 0, testutil.StageSpec{Title: "Permit"})

	reqCtx, expire := context.WithCancel(context.Background())
	expire()
	req := uploadRequest(t, "permit.pdf", "%PDF")
	req = withIDs(testutil.WithUser(req, testutil.StaffUser()),
		"id", p.ID.Hex(), "iid", p.Interventions[0].ID.Hex(), "sid", p.Interventions[0].Stages[0].ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUploadAttachment(rec, req.WithContext(reqCtx))

	if res := decodeResult(t, rec); res.Success {
		t.Fatalf("upload on an expired request should fail, got %+v", res)
	}
	if len(blobs.deleted) != 1 {
		t.Fatalf("stored file not cleaned up, deleted = %v", blobs.deleted)
	}
	if _, err := h.Blobs.Open(ctx, blobs.deleted[0]); err == nil {
		t.Error("orphan file still present")
	}
	if got := loadProject(t, f, p.ID); len(got.Interventions[0].Stages[0].Attachments) != 0 {
		t.Errorf("attachments = %+v", got.Interventions[0].Stages[0].Attachments)
	}
}

func TestHandleRemoveAttachment(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := f.CreateProject(ctx, "Files", 0, testutil.StageSpec{Title: "Permit"})
	iid, sid := p.Interventions[0].ID.Hex(), p.Interventions[0].Stages[0].ID.Hex()

	req := withIDs(testutil.WithUser(uploadRequest(t, "permit.pdf", "%PDF"), testutil.StaffUser()), "id", p.ID.Hex(), "iid", iid, "sid", sid)
	rec := httptest.NewRecorder()
	h.HandleUploadAttachment(rec, req)
	if res := decodeResult(t, rec); !res.Success {
		t.Fatalf("upload result = %+v", res)
	}
	att := loadProject(t, f, p.ID).Interventions[0].Stages[0].Attachments[0]

	del := func() formutil.Result {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req = withIDs(testutil.WithUser(req, testutil.StaffUser()), "id", p.ID.Hex(), "iid", iid, "sid", sid, "aid", att.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleRemoveAttachment(rec, req)
		return decodeResult(t, rec)
	}

	if res := del(); !res.Success {
		t.Fatalf("remove result = %+v", res)
	}
	got := loadProject(t, f, p.ID)
	if len(got.Interventions[0].Stages[0].Attachments) != 0 {
		t.Errorf("attachments = %+v", got.Interventions[0].Stages[0].Attachments)
	}
	if last := got.AuditLog[len(got.AuditLog)-1]; last.Action != "attachment_removed" {
		t.Errorf("last audit action = %q", last.Action)
	}
	if rc, err := h.Blobs.Open(ctx, att.Key); err == nil {
		_, _ = io.Copy(io.Discard, rc)
		_ = rc.Close()
		t.Error("blob still stored after removal")
	}

	if res := del(); res.Success || res.Message != "Attachment not found." {
		t.Errorf("second remove = %+v", res)
	}
}

func TestServeView_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "application/json")
	req = withIDs(testutil.WithUser(req, testutil.StaffUser()), "id", primitive.NewObjectID().Hex())
	rec := httptest.NewRecorder()
	h.ServeView(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeList_Renders(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	f.CreateProject(ctx, "Alpha", 100)

	rec := httptest.NewRecorder()
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Logf("recovered from panic (expected - template not initialized): %v", r)
			}
		}()
		h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/projects?status=Delayed", testutil.StaffUser()))
	}()
	if rec.Code >= 500 {
		t.Errorf("status = %d", rec.Code)
	}
}
