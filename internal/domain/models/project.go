// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project status values. StatusDelayed is only ever produced at request
// time and is never written to the database.
const (
	StatusQuotation = "Quotation"
	StatusOnTrack   = "On Track"
	StatusDelayed   = "Delayed"
	StatusCompleted = "Completed"
)

// Stage status values.
const (
	StagePending    = "pending"
	StageInProgress = "in_progress"
	StageCompleted  = "completed"
	StageFailed     = "failed"
)

// Project is the aggregate root. Interventions, stages, sub-interventions
// and the audit log are embedded; the whole document is rewritten on any
// nested change.
type Project struct {
	ID                primitive.ObjectID  `bson:"_id"`
	Title             string              `bson:"title"`
	TitleCI           string              `bson:"title_ci"`
	ApplicationNumber string              `bson:"application_number,omitempty"`
	OwnerID           *primitive.ObjectID `bson:"owner_id,omitempty"`
	Address           string              `bson:"address,omitempty"`
	ProgramName       string              `bson:"program_name,omitempty"`
	Notes             string              `bson:"notes,omitempty"`
	Deadline          *time.Time          `bson:"deadline,omitempty"`

	Interventions []Intervention `bson:"interventions"`

	// Derived; recomputed on every write (without the time-sensitive check)
	// and again at request time.
	Budget   float64 `bson:"budget"`
	Progress int     `bson:"progress"`
	Alerts   int     `bson:"alerts"`
	Status   string  `bson:"status"`

	// StatusManual is set when a user chose Completed by hand. Only then is
	// Completed kept regardless of progress.
	StatusManual bool `bson:"status_manual,omitempty"`

	AuditLog []AuditEntry `bson:"audit_log"`

	// Version is bumped on every write and used as an optimistic lock.
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Intervention is a renovation measure applied within a project.
// Category labels are copied from the master catalog when the
// intervention is added.
type Intervention struct {
	ID                   primitive.ObjectID `bson:"id"`
	MasterInterventionID primitive.ObjectID `bson:"master_intervention_id"`
	Category             string             `bson:"category"`
	Subcategory          string             `bson:"subcategory,omitempty"`
	ExpenseCategory      string             `bson:"expense_category,omitempty"`
	Notes                string             `bson:"notes,omitempty"`

	SubInterventions []SubIntervention `bson:"sub_interventions"`
	Stages           []Stage           `bson:"stages"`

	TotalCost float64 `bson:"total_cost"`
}

// DisplayName is the label used for ordering and headings.
func (iv Intervention) DisplayName() string {
	if iv.Subcategory != "" {
		return iv.Subcategory
	}
	return iv.Category
}

// SubIntervention is a costed line item. EligibleCost is the program cost;
// materials plus labor is the internal cost.
type SubIntervention struct {
	ID            primitive.ObjectID `bson:"id"`
	Code          string             `bson:"code"`
	Description   string             `bson:"description"`
	Quantity      float64            `bson:"quantity"`
	Unit          string             `bson:"unit,omitempty"`
	EligibleCost  float64            `bson:"eligible_cost"`
	MaterialsCost float64            `bson:"materials_cost"`
	LaborCost     float64            `bson:"labor_cost"`

	// DisplayCode is derived and never persisted.
	DisplayCode string `bson:"-"`
}

// Stage is one implementation step of an intervention.
type Stage struct {
	ID           primitive.ObjectID  `bson:"id"`
	Title        string              `bson:"title"`
	Description  string              `bson:"description,omitempty"`
	Status       string              `bson:"status"`
	Deadline     *time.Time          `bson:"deadline,omitempty"`
	AssigneeID   *primitive.ObjectID `bson:"assignee_id,omitempty"`
	SupervisorID *primitive.ObjectID `bson:"supervisor_id,omitempty"`
	Notes        string              `bson:"notes,omitempty"`
	Attachments  []Attachment        `bson:"attachments"`
	CompletedAt  *time.Time          `bson:"completed_at,omitempty"`
}

// Attachment points at a file in blob storage.
type Attachment struct {
	ID          primitive.ObjectID `bson:"id"`
	FileName    string             `bson:"file_name"`
	Key         string             `bson:"key"`
	ContentType string             `bson:"content_type,omitempty"`
	Size        int64              `bson:"size"`
	UploadedBy  string             `bson:"uploaded_by,omitempty"`
	UploadedAt  time.Time          `bson:"uploaded_at"`
}

// AuditEntry is one append-only record in a project's audit log.
type AuditEntry struct {
	User      string    `bson:"user"`
	Action    string    `bson:"action"`
	Timestamp time.Time `bson:"timestamp"`
	Details   string    `bson:"details,omitempty"`
}

// IsStageStatus reports whether s is a known stage status.
func IsStageStatus(s string) bool {
	switch s {
	case StagePending, StageInProgress, StageCompleted, StageFailed:
		return true
	}
	return false
}

// StageStatusLabel is the human label for a stage status.
func StageStatusLabel(s string) string {
	switch s {
	case StagePending:
		return "Pending"
	case StageInProgress:
		return "In progress"
	case StageCompleted:
		return "Completed"
	case StageFailed:
		return "Failed"
	}
	return s
}
