// internal/app/features/offers/handler.go
package offers

import (
	"time"

	uierrors "github.com/nestoreco/nestor/internal/app/features/errors"
	contactstore "github.com/nestoreco/nestor/internal/app/store/contacts"
	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/aiflows"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/blobstore"
	"github.com/nestoreco/nestor/internal/app/system/flash"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves supplier offers: the list, the offer page with its
// document and AI analysis, and the offer forms.
type Handler struct {
	Offers   *offerstore.Store
	Contacts *contactstore.Store
	Projects *projectstore.Store
	Blobs    blobstore.Store
	Flows    *aiflows.Flows
	Flash    *flash.Messenger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	AuditLog *auditlog.Logger

	now func() time.Time
}

func NewHandler(
	db *mongo.Database,
	blobs blobstore.Store,
	flows *aiflows.Flows,
	fl *flash.Messenger,
	metrics *appmetrics.Metrics,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Offers:   offerstore.New(db),
		Contacts: contactstore.New(db),
		Projects: projectstore.New(db, logger, metrics),
		Blobs:    blobs,
		Flows:    flows,
		Flash:    fl,
		ErrLog:   errLog,
		Log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}
