// internal/app/features/contacts/handler.go
package contacts

import (
	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the contact directory.
type Handler struct {
	Contacts *contactstore.Store
	Flash    *flash.Messenger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	AuditLog *auditlog.Logger

	// refs are checked before a contact is deleted.
	refs []contactstore.Referrer
}

func NewHandler(db *mongo.Database, fl *flash.Messenger, metrics *appmetrics.Metrics, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Contacts: contactstore.New(db),
		Flash:    fl,
		ErrLog:   errLog,
		Log:      logger,
		refs: []contactstore.Referrer{
			projectstore.New(db, logger, metrics),
			offerstore.New(db),
		},
	}
}
