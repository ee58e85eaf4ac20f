// internal/app/features/projects/handler.go
package projects

import (
	"time"

	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	masterinterventionstore "github.com/nestoreco/nestor/internal/app/store/masterinterventions"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	reminderstore "github.com/nestoreco/nestor/internal/app/store/reminders"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/blobstore"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the project list, the project page with its
// intervention tree, reports and exports.
type Handler struct {
	Projects  *projectstore.Store
	Contacts  *contactstore.Store
	Catalog   *masterinterventionstore.Store
	Reminders *reminderstore.Store
	Offers    *offerstore.Store
	Blobs     blobstore.Store
	Flash     *flash.Messenger
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
	AuditLog  *auditlog.Logger

	// AIEnabled shows the reminder generation action.
	AIEnabled bool

	now func() time.Time
}

func NewHandler(
	db *mongo.Database,
	blobs blobstore.Store,
	fl *flash.Messenger,
	metrics *appmetrics.Metrics,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Projects:  projectstore.New(db, logger, metrics),
		Contacts:  contactstore.New(db),
		Catalog:   masterinterventionstore.New(db),
		Reminders: reminderstore.New(db),
		Offers:    offerstore.New(db),
		Blobs:     blobs,
		Flash:     fl,
		ErrLog:    errLog,
		Log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
