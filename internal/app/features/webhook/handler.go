// internal/app/features/webhook/handler.go
package webhook

import (
	"context"

	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/aiflows"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Bot is the part of the Telegram client the webhook uses.
type Bot interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// ProjectLister supplies project context for the message flow.
type ProjectLister interface {
	All(ctx context.Context) ([]models.Project, error)
}

// Handler receives Telegram updates.
type Handler struct {
	Bot      Bot
	Flows    *aiflows.Flows
	Projects ProjectLister
	Secret   string
	Metrics  *appmetrics.Metrics
	Log      *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	bot Bot,
	flows *aiflows.Flows,
	secret string,
	metrics *appmetrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Bot:      bot,
		Flows:    flows,
		Projects: projectstore.New(db, logger, metrics),
		Secret:   secret,
		Metrics:  metrics,
		Log:      logger,
	}
}
