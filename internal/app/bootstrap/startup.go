// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/nestoreco/nestor/internal/app/store/audit"
	userstore "github.com/nestoreco/nestor/internal/app/store/users"
	"github.com/nestoreco/nestor/internal/app/system/aiflows"
	"github.com/nestoreco/nestor/internal/app/system/appmetrics"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/blobstore"
	"github.com/nestoreco/nestor/internal/app/system/llm"
	"github.com/nestoreco/nestor/internal/app/system/ratelimit"
	"github.com/nestoreco/nestor/internal/app/system/telegram"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Services are the long-lived collaborators built once in Startup and
// shared by every feature handler.
type Services struct {
	Metrics  *appmetrics.Metrics
	Blobs    blobstore.Store
	Flows    *aiflows.Flows
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.LoginLimiter
	Bot      *telegram.Client // nil when the webhook is disabled
}

var (
	servicesMu sync.RWMutex
	services   *Services
)

func setServices(s *Services) {
	servicesMu.Lock()
	defer servicesMu.Unlock()
	services = s
}

func currentServices() *Services {
	servicesMu.RLock()
	defer servicesMu.RUnlock()
	return services
}

// Startup runs once after the schema is in place: it applies timeout
// overrides, bootstraps the admin account and builds the shared services.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
		LLM:    appCfg.TimeoutLLM,
	})

	if err := ensureAdmin(ctx, deps, appCfg, logger); err != nil {
		return err
	}

	svc, err := buildServices(ctx, appCfg, deps, logger)
	if err != nil {
		return err
	}
	setServices(svc)
	return nil
}

func ensureAdmin(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	if appCfg.AdminEmail == "" {
		return nil
	}
	created, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, appCfg.AdminName, appCfg.AdminEmail, appCfg.AdminPassword)
	if err != nil {
		logger.Error("admin bootstrap failed", zap.String("email", appCfg.AdminEmail), zap.Error(err))
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("created bootstrap admin", zap.String("email", appCfg.AdminEmail))
	}
	return nil
}

func buildServices(ctx context.Context, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*Services, error) {
	metrics := appmetrics.New()

	blobs, err := newBlobStore(ctx, appCfg)
	if err != nil {
		logger.Error("blob storage init failed", zap.String("storage_type", appCfg.StorageType), zap.Error(err))
		return nil, err
	}

	gen, err := llm.New(ctx, llm.Config{
		Provider: appCfg.LLMProvider,
		APIKey:   appCfg.LLMAPIKey,
		Model:    appCfg.LLMModel,
		Project:  appCfg.LLMProject,
		Location: appCfg.LLMLocation,
	})
	if err != nil {
		logger.Error("llm provider init failed", zap.String("provider", appCfg.LLMProvider), zap.Error(err))
		return nil, err
	}
	flows, err := aiflows.New(gen, logger, metrics)
	if err != nil {
		return nil, err
	}
	logger.Info("AI flows ready", zap.String("provider", appCfg.LLMProvider), zap.Bool("enabled", flows.Enabled()))

	svc := &Services{
		Metrics: metrics,
		Blobs:   blobs,
		Flows:   flows,
		AuditLog: auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
			Auth:  appCfg.AuditLogAuth,
			Admin: appCfg.AuditLogAdmin,
		}),
		Limiter: ratelimit.NewLoginLimiter(),
	}
	if appCfg.TelegramEnabled() {
		bot, err := telegram.New(appCfg.TelegramBotToken, appCfg.TelegramAPIURL, &http.Client{Timeout: 60 * time.Second})
		if err != nil {
			logger.Error("telegram client init failed", zap.Error(err))
			return nil, err
		}
		svc.Bot = bot
	}
	return svc, nil
}

func newBlobStore(ctx context.Context, appCfg AppConfig) (blobstore.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		return blobstore.NewS3(ctx, blobstore.S3Config{
			Region:          appCfg.StorageS3Region,
			Bucket:          appCfg.StorageS3Bucket,
			Prefix:          appCfg.StorageS3Prefix,
			Endpoint:        appCfg.StorageS3Endpoint,
			PathStyle:       appCfg.StorageS3PathStyle,
			AccessKeyID:     appCfg.StorageS3AccessKey,
			SecretAccessKey: appCfg.StorageS3SecretKey,
		})
	case "local", "":
		return blobstore.NewLocal(appCfg.StorageLocalPath)
	}
	return nil, fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
}

// deriveKey hashes explicit to a 32-byte key, or derives one from the
// session key and purpose when explicit is empty.
func deriveKey(explicit, sessionKey, purpose string) []byte {
	if explicit != "" {
		sum := sha256.Sum256([]byte(explicit))
		return sum[:]
	}
	sum := sha256.Sum256([]byte(purpose + ":" + sessionKey))
	return sum[:]
}
