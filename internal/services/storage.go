package services

import (
	"context"
	"io"
)

// StorageService stores uploaded guest documents
type StorageService interface {
	// Upload stores the object under key and returns its URL
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error)

	// Delete removes an object; missing objects are not an error
	Delete(ctx context.Context, key string) error

	// GetURL returns the URL an object is served from
	GetURL(key string) string
}
