package blobstore

import (
	"io"
	"mime"
	"net/http"
)

// ServeFile writes r as a download named fileName.
func ServeFile(w http.ResponseWriter, fileName, contentType string, r io.Reader) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, err := io.Copy(w, r)
	return err
}
