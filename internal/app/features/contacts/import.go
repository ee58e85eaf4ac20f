// internal/app/features/contacts/import.go
package contacts

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/templates"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	"github.com/nestoreco/nestor/internal/app/system/csvutil"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.uber.org/zap"
)

// ServeImport renders the CSV upload form.
func (h *Handler) ServeImport(w http.ResponseWriter, r *http.Request) {
	var data importData
	formutil.SetBase(&data.Base, r, "Import contacts", "/contacts")
	templates.Render(w, r, "contact_import", data)
}

// HandleImport validates the whole file first and writes nothing when any
// row is bad. Rows whose email already exists are skipped and reported.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxCSVUploadSize)
	if err := r.ParseMultipartForm(limits.MaxCSVUploadSize); err != nil {
		formutil.Respond(w, r, h.Flash, formutil.Fail("The file is too large or the upload was interrupted."), "/contacts/import")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(map[string]string{"file": "Choose a CSV file."}), "/contacts/import")
		return
	}
	defer file.Close()

	rows, report, err := csvutil.PreScanContactsCSV(file, limits.MaxCSVRows)
	if err != nil {
		formutil.Respond(w, r, h.Flash, formutil.Fail("The file could not be read as CSV."), "/contacts/import")
		return
	}
	var data importData
	formutil.SetBase(&data.Base, r, "Import contacts", "/contacts")
	if report != "" {
		if formutil.WantsJSON(r) {
			formutil.Respond(w, r, h.Flash, formutil.Fail(string(report)), "")
			return
		}
		data.Report = report
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "contact_import", data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	for _, row := range rows {
		_, err := h.Contacts.Create(ctx, models.Contact{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     row.Email,
			Phone:     row.Phone,
			Company:   row.Company,
			Role:      row.Role,
		})
		switch {
		case errors.Is(err, contactstore.ErrDuplicateEmail):
			data.Skipped = append(data.Skipped, row.Email)
		case err != nil:
			h.Log.Error("contact import failed", zap.Error(err), zap.Int("imported", data.Imported))
			formutil.Respond(w, r, h.Flash, formutil.Fail("The import stopped part way; some contacts were saved."), "/contacts")
			return
		default:
			data.Imported++
		}
	}
	h.Log.Info("contacts imported", zap.Int("imported", data.Imported), zap.Int("skipped", len(data.Skipped)))

	msg := formutil.OK(importMessage(data.Imported, len(data.Skipped)))
	if formutil.WantsJSON(r) {
		formutil.Respond(w, r, h.Flash, msg, "")
		return
	}
	templates.Render(w, r, "contact_import", data)
}

func importMessage(imported, skipped int) string {
	msg := "Imported " + strconv.Itoa(imported) + " contact"
	if imported != 1 {
		msg += "s"
	}
	if skipped > 0 {
		msg += "; skipped " + strconv.Itoa(skipped) + " with an existing email"
	}
	return msg + "."
}
