// Package media stores uploaded files and records them as attachment
// entities. Backends: local disk and MinIO object storage.
package media

import (
	"context"
	"io"
	"strings"
)

// Object describes a stored upload.
type Object struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
}

// Storage persists uploaded file bytes.
type Storage interface {
	Save(ctx context.Context, key, mime string, size int64, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// AllowedMime reports whether the content type is accepted for upload.
func AllowedMime(mime string) bool {
	switch {
	case strings.HasPrefix(mime, "image/"),
		strings.HasPrefix(mime, "audio/"),
		strings.HasPrefix(mime, "video/"):
		return true
	}
	switch mime {
	case "application/pdf", "text/plain", "application/zip":
		return true
	}
	return false
}
