// internal/app/features/projects/types.go
package projects

import (
	"html/template"

	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/paging"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
)

// Statuses a user can filter by. Delayed is derived at request time.
var filterStatuses = []string{
	models.StatusQuotation,
	models.StatusOnTrack,
	models.StatusDelayed,
	models.StatusCompleted,
}

// Statuses a user can set; Delayed is never stored.
var editableStatuses = []string{
	models.StatusQuotation,
	models.StatusOnTrack,
	models.StatusCompleted,
}

type option struct {
	Value string
	Label string
}

type listRow struct {
	ID                string
	Title             string
	ApplicationNumber string
	Owner             string
	Status            string
	Progress          int
	Alerts            int
	Budget            float64
	Deadline          string
}

type listData struct {
	viewdata.BaseVM

	Search   string
	Status   string
	Statuses []string

	Rows  []listRow
	Pager paging.Nav

	// ExportURL keeps the active filters.
	ExportURL string
}

// projectInput is the header form shared by new and edit.
type projectInput struct {
	Title             string `validate:"required,max=200" label:"Title" form:"title"`
	ApplicationNumber string `validate:"max=100" label:"Application number" form:"application_number"`
	OwnerID           string `form:"owner_id"`
	Address           string `validate:"max=300" label:"Address" form:"address"`
	ProgramName       string `validate:"max=200" label:"Program" form:"program_name"`
	Notes             string `validate:"max=10000" label:"Notes" form:"notes"`
	Deadline          string `form:"deadline"`
	Status            string `validate:"omitempty,projectstatus" label:"Status" form:"status"`
}

type formData struct {
	formutil.Base

	ID     string
	IsEdit bool
	Input  projectInput

	Owners   []option
	Statuses []string
}

type stageView struct {
	models.Stage
	StatusLabel string
	Assignee    string
	Supervisor  string

	// Hex ids for pre-selecting the edit pickers.
	AssigneeHex   string
	SupervisorHex string

	Overdue  bool
	Deadline string
	First    bool
	Last     bool
}

type subView struct {
	models.SubIntervention
	Internal float64
	Profit   float64
	First    bool
	Last     bool
}

type interventionView struct {
	models.Intervention
	Name   string
	Stages []stageView
	Subs   []subView
	Totals projectmetrics.Totals
}

type viewData struct {
	viewdata.BaseVM

	Project       models.Project
	Owner         string
	Deadline      string
	NotesHTML     template.HTML
	Totals        projectmetrics.Totals
	Interventions []interventionView

	Catalog       []models.MasterIntervention
	Contacts      []option
	StageStatuses []option

	Reminders []models.Reminder
	Offers    []models.Offer
	AuditLog  []models.AuditEntry

	CanDelete  bool
	AIEnabled  bool
	DateLayout string
}

type reportData struct {
	viewdata.BaseVM

	Project       models.Project
	Owner         string
	Deadline      string
	Totals        projectmetrics.Totals
	Interventions []interventionView
	GeneratedAt   string
}
