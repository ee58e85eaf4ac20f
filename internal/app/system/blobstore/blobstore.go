// Package blobstore stores uploaded files (stage attachments, supplier
// offers) on the local filesystem or in an S3-compatible bucket.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("blob not found")

// Object describes a stored file.
type Object struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// Store is implemented by the local and S3 backends.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Upload writes r under a unique key of the form
// prefix/YYYY/MM/<uuid8>-<sanitized filename>.
func Upload(ctx context.Context, s Store, prefix, filename string, r io.Reader, size int64, contentType string) (Object, error) {
	now := time.Now().UTC()
	key := filepath.ToSlash(filepath.Join(
		prefix,
		fmt.Sprintf("%04d/%02d", now.Year(), now.Month()),
		fmt.Sprintf("%s-%s", uuid.New().String()[:8], SanitizeFilename(filename)),
	))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.Put(ctx, key, r, size, contentType); err != nil {
		return Object{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	return Object{Key: key, FileName: filepath.Base(filename), ContentType: contentType, Size: size}, nil
}

// SanitizeFilename keeps [A-Za-z0-9._-] and replaces everything else with
// '_'. Long names are cut to 100 bytes, keeping a short extension.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filepath.ToSlash(filename))
	out := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 || string(out) == "." || string(out) == ".." {
		return "file"
	}
	if len(out) > 100 {
		ext := filepath.Ext(string(out))
		if ext != "" && len(ext) < 10 {
			out = append(out[:100-len(ext)], ext...)
		} else {
			out = out[:100]
		}
	}
	return string(out)
}
