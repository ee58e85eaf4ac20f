package csvutil

import (
	"encoding/csv"
	"html/template"
	"io"
	"strings"

	"github.com/nestoreco/nestor/internal/app/system/inputval"
	"github.com/nestoreco/nestor/internal/domain/models"
)

// ContactCSVRow is the normalized row produced by PreScanContactsCSV.
type ContactCSVRow struct {
	FirstName string
	LastName  string
	Email     string // lower-case
	Phone     string
	Company   string
	Role      string // canonical, defaults to other
}

// PreScanContactsCSV reads all rows from r, skips a header if present,
// validates each row, and either returns normalized rows OR a formatted
// HTML error message describing the first few bad lines. It never writes
// to a DB; it's safe to call before any mutations.
//
// Columns: first name, last name, email, phone, company, role.
func PreScanContactsCSV(r io.Reader, maxRows int) (rows []ContactCSVRow, htmlErr template.HTML, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first, ferr := reader.Read()
	if ferr == io.EOF {
		return nil, "", nil
	} else if ferr != nil {
		return nil, template.HTML(template.HTMLEscapeString(ferr.Error())), nil
	}
	if len(first) > 0 {
		first[0] = strings.TrimPrefix(first[0], "\ufeff")
	}
	var raw [][]string
	if !isHeader(first) {
		raw = append(raw, first)
	}
	for {
		rec, e := reader.Read()
		if e == io.EOF {
			break
		}
		if e != nil {
			return nil, "", e
		}
		if len(rec) == 0 {
			continue
		}
		raw = append(raw, rec)
		if maxRows > 0 && len(raw) > maxRows {
			return nil, template.HTML(template.HTMLEscapeString("Upload rejected: too many rows.")), nil
		}
	}

	type rowErr struct{ Name, Email, Reason string }
	var errs []rowErr
	col := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	for _, rec := range raw {
		row := ContactCSVRow{
			FirstName: col(rec, 0),
			LastName:  col(rec, 1),
			Email:     strings.ToLower(col(rec, 2)),
			Phone:     col(rec, 3),
			Company:   col(rec, 4),
			Role:      strings.ToLower(col(rec, 5)),
		}
		if row.FirstName == "" && row.LastName == "" && row.Email == "" {
			continue
		}
		name := strings.TrimSpace(row.FirstName + " " + row.LastName)
		if row.FirstName == "" || row.LastName == "" {
			errs = append(errs, rowErr{Name: name, Email: row.Email, Reason: "missing first or last name"})
		}
		if row.Email != "" && !inputval.IsValidEmail(row.Email) {
			errs = append(errs, rowErr{Name: name, Email: row.Email, Reason: "invalid email"})
		}
		if row.Role == "" {
			row.Role = models.RoleOther
		} else if !models.IsContactRole(row.Role) {
			errs = append(errs, rowErr{Name: name, Email: row.Email, Reason: "unknown role " + row.Role})
		}
		rows = append(rows, row)
	}

	if len(errs) > 0 {
		var b strings.Builder
		b.WriteString("Upload rejected: one or more rows are invalid.<br>")
		b.WriteString("Each row needs a first and last name; email and role are optional.<br>")
		b.WriteString("Allowed roles: ")
		b.WriteString(template.HTMLEscapeString(strings.Join(models.ContactRoles, ", ")))
		b.WriteString(".<br>")

		max := 5
		if len(errs) < max {
			max = len(errs)
		}
		b.WriteString("Examples:<br>")
		for _, e := range errs[:max] {
			name := e.Name
			if name == "" {
				name = "(missing)"
			}
			email := e.Email
			if email == "" {
				email = "(no email)"
			}
			b.WriteString("• ")
			b.WriteString(template.HTMLEscapeString(name))
			b.WriteString(" | ")
			b.WriteString(template.HTMLEscapeString(email))
			b.WriteString(" → ")
			b.WriteString(template.HTMLEscapeString(e.Reason))
			b.WriteString("<br>")
		}
		return nil, template.HTML(b.String()), nil
	}
	return rows, "", nil
}

func isHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(rec[0]))
	b := strings.ToLower(strings.TrimSpace(rec[1]))
	return (a == "first name" || a == "first_name" || a == "firstname") &&
		(b == "last name" || b == "last_name" || b == "lastname")
}
