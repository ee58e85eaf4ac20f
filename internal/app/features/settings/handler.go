// internal/app/features/settings/handler.go
package settings

import (
	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	masterinterventionstore "github.com/nestoreco/nestor/internal/app/store/masterinterventions"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the admin settings pages: the master intervention catalog
// new project interventions are drawn from.
type Handler struct {
	Catalog  *masterinterventionstore.Store
	Flash    *flash.Messenger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, fl *flash.Messenger, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Catalog:  masterinterventionstore.New(db),
		Flash:    fl,
		AuditLog: audit,
		Log:      logger,
		ErrLog:   errLog,
	}
}
