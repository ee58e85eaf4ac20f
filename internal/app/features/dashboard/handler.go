// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"time"

	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	"github.com/nestoreco/nestor/internal/app/features/reminders"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ReminderLister is the part of the reminders feature the dashboard shows.
type ReminderLister interface {
	OpenRows(ctx context.Context, limit int64, now time.Time) ([]reminders.Row, error)
}

type Handler struct {
	DB        *mongo.Database
	Reminders ReminderLister
	Flash     *flash.Messenger
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, rl ReminderLister, fl *flash.Messenger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Reminders: rl,
		Flash:     fl,
		ErrLog:    errLog,
		Log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
