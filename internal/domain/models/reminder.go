// internal/domain/models/reminder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reminder sources.
const (
	ReminderManual = "manual"
	ReminderAI     = "ai"
)

// Reminder is a follow-up item for a project.
type Reminder struct {
	ID        primitive.ObjectID `bson:"_id"`
	ProjectID primitive.ObjectID `bson:"project_id"`
	Title     string             `bson:"title"`
	Body      string             `bson:"body,omitempty"`
	DueDate   *time.Time         `bson:"due_date,omitempty"`
	Source    string             `bson:"source"`
	Done      bool               `bson:"done"`
	DoneAt    *time.Time         `bson:"done_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}
