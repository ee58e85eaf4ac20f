// internal/app/features/systemusers/handler.go
package systemusers

import (
	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	userstore "github.com/nestoreco/nestor/internal/app/store/users"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	Flash    *flash.Messenger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

// NewHandler constructs a System Users feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, fl *flash.Messenger, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Flash:    fl,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}
