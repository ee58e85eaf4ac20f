// internal/app/features/offers/types.go
package offers

import (
	"html/template"

	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/viewdata"
	"github.com/nestoreco/nestor/internal/domain/models"
)

var offerStatuses = []string{models.OfferReceived, models.OfferAccepted, models.OfferRejected}

type option struct {
	Value string
	Label string
}

type listRow struct {
	ID         string
	Title      string
	Supplier   string
	Project    string
	ProjectID  string
	Amount     float64
	Status     string
	ValidUntil string
	HasFile    bool
	Analyzed   bool
}

type listData struct {
	viewdata.BaseVM

	SupplierID string
	ProjectID  string
	Status     string
	Suppliers  []option
	Projects   []option
	Statuses   []string
	Rows       []listRow
	Total      float64
}

// offerInput defines validation rules for the offer form.
type offerInput struct {
	Title      string `validate:"required,max=200" label:"Title" form:"title"`
	SupplierID string `validate:"required" label:"Supplier" form:"supplier_id"`
	ProjectID  string `label:"Project" form:"project_id"`
	Amount     string `validate:"max=30" label:"Amount" form:"amount"`
	ValidUntil string `label:"Valid until" form:"valid_until"`
	Status     string `validate:"omitempty,oneof=received accepted rejected" label:"Status" form:"status"`
}

type formData struct {
	formutil.Base

	ID        string
	IsEdit    bool
	Input     offerInput
	Suppliers []option
	Projects  []option
	Statuses  []string
}

type viewData struct {
	viewdata.BaseVM

	Offer        models.Offer
	Supplier     string
	Project      string
	ValidUntil   string
	AnalysisHTML template.HTML
	AnalyzedAt   string
	AIEnabled    bool
	CanDelete    bool
}
