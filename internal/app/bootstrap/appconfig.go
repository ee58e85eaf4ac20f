// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds NESTOR's service-specific configuration.
//
// Values come from flags, NESTOR_* environment variables, config files
// and .env (loaded in LoadConfig). WAFFLE's CoreConfig covers ports, TLS,
// logging and CORS; everything specific to this app lives here.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Sessions, flash and CSRF
	SessionKey    string // signs session cookies (must be strong in production)
	SessionName   string
	SessionDomain string // blank means current host
	FlashKey      string // defaults to a key derived from SessionKey
	CSRFKey       string // defaults to a key derived from SessionKey

	// Attachment storage
	StorageType      string // "local" or "s3"
	StorageLocalPath string

	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageS3Endpoint  string // S3-compatible endpoint (MinIO); blank for AWS
	StorageS3PathStyle bool
	StorageS3AccessKey string // blank uses the default AWS credential chain
	StorageS3SecretKey string

	// Language model
	LLMProvider string // gemini, vertex or off
	LLMAPIKey   string
	LLMModel    string
	LLMProject  string
	LLMLocation string

	// Telegram bot
	TelegramBotToken string
	TelegramSecret   string
	TelegramAPIURL   string

	// Audit logging: all, db, log or off
	AuditLogAuth  string
	AuditLogAdmin string

	// Admin bootstrap
	AdminName     string
	AdminEmail    string
	AdminPassword string

	// Timeout overrides; zero keeps the default.
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	TimeoutLLM    time.Duration
}

// TelegramEnabled reports whether the webhook should be mounted.
func (c AppConfig) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramSecret != ""
}
