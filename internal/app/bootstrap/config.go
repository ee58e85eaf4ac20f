// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/nestoreco/nestor/internal/app/system/auditlog"
	"github.com/nestoreco/nestor/internal/app/system/llm"
	"go.uber.org/zap"
)

// devSessionKey is the default signing key. ValidateConfig refuses it in prod.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines NESTOR's configuration keys:
//   - config files: mongo_uri, session_name, ...
//   - environment: NESTOR_MONGO_URI, NESTOR_SESSION_NAME, ...
//   - flags: --mongo_uri, --session_name, ...
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "nestor", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "nestor-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "flash_key", Default: "", Desc: "Flash cookie signing key (blank derives one from session_key)"},
	{Name: "csrf_key", Default: "", Desc: "CSRF token key (blank derives one from session_key)"},

	// Attachment storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage root for attachments and offers"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "nestor/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "S3-compatible endpoint URL (MinIO); blank for AWS"},
	{Name: "storage_s3_path_style", Default: false, Desc: "Use path-style S3 addressing"},
	{Name: "storage_s3_access_key", Default: "", Desc: "S3 access key (blank uses the AWS credential chain)"},
	{Name: "storage_s3_secret_key", Default: "", Desc: "S3 secret key"},

	// Language model
	{Name: "llm_provider", Default: "off", Desc: "LLM provider: 'gemini', 'vertex' or 'off'"},
	{Name: "llm_api_key", Default: "", Desc: "Gemini API key"},
	{Name: "llm_model", Default: "gemini-2.0-flash", Desc: "Model name"},
	{Name: "llm_project", Default: "", Desc: "Google Cloud project (vertex)"},
	{Name: "llm_location", Default: "us-central1", Desc: "Google Cloud location (vertex)"},

	// Telegram
	{Name: "telegram_bot_token", Default: "", Desc: "Telegram bot token (blank disables the webhook)"},
	{Name: "telegram_secret", Default: "", Desc: "Secret token registered with setWebhook"},
	{Name: "telegram_api_url", Default: "", Desc: "Bot API base URL (blank uses api.telegram.org)"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Admin bootstrap
	{Name: "admin_name", Default: "Administrator", Desc: "Display name of the bootstrap admin"},
	{Name: "admin_email", Default: "", Desc: "Bootstrap admin email (created on startup if missing)"},
	{Name: "admin_password", Default: "", Desc: "Bootstrap admin password"},

	// Timeouts
	{Name: "timeout_ping", Default: "", Desc: "Health check timeout (e.g. 2s)"},
	{Name: "timeout_short", Default: "", Desc: "Single-document read timeout"},
	{Name: "timeout_medium", Default: "", Desc: "List query and write timeout"},
	{Name: "timeout_long", Default: "", Desc: "Project mutation and upload timeout"},
	{Name: "timeout_llm", Default: "", Desc: "LLM call timeout"},
}

// LoadConfig loads WAFFLE core config and NESTOR's app config.
// Precedence: flags > env > files > .env > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, v, err := config.LoadWithAppConfig(logger, "NESTOR", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         v.String("mongo_uri"),
		MongoDatabase:    v.String("mongo_database"),
		MongoMaxPoolSize: uint64(v.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(v.Int("mongo_min_pool_size")),

		SessionKey:    v.String("session_key"),
		SessionName:   v.String("session_name"),
		SessionDomain: v.String("session_domain"),
		FlashKey:      v.String("flash_key"),
		CSRFKey:       v.String("csrf_key"),

		StorageType:        strings.ToLower(v.String("storage_type")),
		StorageLocalPath:   v.String("storage_local_path"),
		StorageS3Region:    v.String("storage_s3_region"),
		StorageS3Bucket:    v.String("storage_s3_bucket"),
		StorageS3Prefix:    v.String("storage_s3_prefix"),
		StorageS3Endpoint:  v.String("storage_s3_endpoint"),
		StorageS3PathStyle: v.Bool("storage_s3_path_style"),
		StorageS3AccessKey: v.String("storage_s3_access_key"),
		StorageS3SecretKey: v.String("storage_s3_secret_key"),

		LLMProvider: strings.ToLower(v.String("llm_provider")),
		LLMAPIKey:   v.String("llm_api_key"),
		LLMModel:    v.String("llm_model"),
		LLMProject:  v.String("llm_project"),
		LLMLocation: v.String("llm_location"),

		TelegramBotToken: v.String("telegram_bot_token"),
		TelegramSecret:   v.String("telegram_secret"),
		TelegramAPIURL:   v.String("telegram_api_url"),

		AuditLogAuth:  v.String("audit_log_auth"),
		AuditLogAdmin: v.String("audit_log_admin"),

		AdminName:     v.String("admin_name"),
		AdminEmail:    v.String("admin_email"),
		AdminPassword: v.String("admin_password"),

		TimeoutPing:   v.Duration("timeout_ping", 0),
		TimeoutShort:  v.Duration("timeout_short", 0),
		TimeoutMedium: v.Duration("timeout_medium", 0),
		TimeoutLong:   v.Duration("timeout_long", 0),
		TimeoutLLM:    v.Duration("timeout_llm", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig checks the settings that would otherwise fail late: the
// Mongo URI, storage backend, LLM provider, audit modes and, in
// production, the session key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateAppConfig(appCfg, coreCfg.Env == "prod"); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	if appCfg.LLMProvider == llm.ProviderOff && appCfg.TelegramEnabled() {
		logger.Warn("telegram webhook enabled without an LLM provider; messages will get a fixed reply")
	}
	return nil
}

func validateAppConfig(c AppConfig, prod bool) error {
	var problems []string

	if c.MongoDatabase == "" {
		problems = append(problems, "mongo_database is required")
	}
	if len(c.SessionKey) < 32 {
		problems = append(problems, "session_key must be at least 32 characters")
	}
	if prod && c.SessionKey == devSessionKey {
		problems = append(problems, "session_key must be changed in production")
	}

	switch c.StorageType {
	case "local":
		if c.StorageLocalPath == "" {
			problems = append(problems, "storage_local_path is required for local storage")
		}
	case "s3":
		if c.StorageS3Bucket == "" {
			problems = append(problems, "storage_s3_bucket is required for s3 storage")
		}
		if (c.StorageS3AccessKey == "") != (c.StorageS3SecretKey == "") {
			problems = append(problems, "storage_s3_access_key and storage_s3_secret_key must be set together")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage_type %q must be 'local' or 's3'", c.StorageType))
	}

	switch c.LLMProvider {
	case llm.ProviderOff, "":
	case llm.ProviderGemini:
		if c.LLMAPIKey == "" {
			problems = append(problems, "llm_api_key is required for the gemini provider")
		}
	case llm.ProviderVertex:
		if c.LLMProject == "" {
			problems = append(problems, "llm_project is required for the vertex provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("llm_provider %q must be 'gemini', 'vertex' or 'off'", c.LLMProvider))
	}

	if (c.TelegramBotToken == "") != (c.TelegramSecret == "") {
		problems = append(problems, "telegram_bot_token and telegram_secret must be set together")
	}

	for _, m := range []struct{ key, mode string }{
		{"audit_log_auth", c.AuditLogAuth},
		{"audit_log_admin", c.AuditLogAdmin},
	} {
		switch m.mode {
		case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			problems = append(problems, fmt.Sprintf("%s %q must be all, db, log or off", m.key, m.mode))
		}
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		problems = append(problems, "admin_email and admin_password must be set together")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
