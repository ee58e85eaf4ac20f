// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxFormSize is the maximum size for ordinary form submissions.
	MaxFormSize = 1 << 20 // 1 MB

	// MaxUploadSize is the maximum size of an uploaded stage attachment
	// or offer document, including multipart overhead.
	MaxUploadSize = 25 << 20 // 25 MB

	// MaxUploadMemory is how much of a multipart upload is held in memory
	// before spilling to temporary files.
	MaxUploadMemory = 8 << 20 // 8 MB

	// MaxCSVUploadSize and MaxCSVRows bound contact imports.
	MaxCSVUploadSize = 5 << 20 // 5 MB
	MaxCSVRows       = 20000

	// MaxWebhookBody bounds a Telegram update.
	MaxWebhookBody = 1 << 20 // 1 MB
)
