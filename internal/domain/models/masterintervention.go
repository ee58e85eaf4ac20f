// internal/domain/models/masterintervention.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MasterIntervention is a catalog entry interventions are drawn from.
// ExpenseCategory usually carries a parenthesised roman numeral, e.g.
// "Building envelope (II)".
type MasterIntervention struct {
	ID              primitive.ObjectID `bson:"_id"`
	Category        string             `bson:"category" yaml:"category"`
	Subcategory     string             `bson:"subcategory,omitempty" yaml:"subcategory"`
	ExpenseCategory string             `bson:"expense_category,omitempty" yaml:"expense_category"`
	Code            string             `bson:"code,omitempty" yaml:"code"`
	Unit            string             `bson:"unit,omitempty" yaml:"unit"`
	DefaultStages   []string           `bson:"default_stages" yaml:"default_stages"`
	CreatedAt       time.Time          `bson:"created_at" yaml:"-"`
	UpdatedAt       time.Time          `bson:"updated_at" yaml:"-"`
}
