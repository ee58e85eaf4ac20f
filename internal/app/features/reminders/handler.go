// internal/app/features/reminders/handler.go
package reminders

import (
	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	reminderstore "github.com/nestoreco/nestor/internal/app/store/reminders"
	"github.com/nestoreco/nestor/internal/app/system/aiflows"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves project reminders, manual and AI-suggested.
type Handler struct {
	Reminders *reminderstore.Store
	Projects  *projectstore.Store
	Flows     *aiflows.Flows
	Flash     *flash.Messenger
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	flows *aiflows.Flows,
	fl *flash.Messenger,
	metrics *appmetrics.Metrics,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Reminders: reminderstore.New(db),
		Projects:  projectstore.New(db, logger, metrics),
		Flows:     flows,
		Flash:     fl,
		ErrLog:    errLog,
		Log:       logger,
	}
}
