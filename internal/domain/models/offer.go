// internal/domain/models/offer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Offer statuses.
const (
	OfferReceived = "received"
	OfferAccepted = "accepted"
	OfferRejected = "rejected"
)

// Offer is a supplier quotation, optionally linked to a project.
type Offer struct {
	ID         primitive.ObjectID  `bson:"_id"`
	SupplierID primitive.ObjectID  `bson:"supplier_id"`
	ProjectID  *primitive.ObjectID `bson:"project_id,omitempty"`
	Title      string              `bson:"title"`
	TitleCI    string              `bson:"title_ci"`
	Amount     float64             `bson:"amount"`
	ValidUntil *time.Time          `bson:"valid_until,omitempty"`
	Status     string              `bson:"status"`
	File       *Attachment         `bson:"file,omitempty"`

	// Analysis is the AI summary of the uploaded document.
	Analysis   string     `bson:"analysis,omitempty"`
	AnalyzedAt *time.Time `bson:"analyzed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}
