package storage

import (
	"context"
	"errors"
	"time"
)

// DefaultPresignedURLExpiry is used when a caller passes a non-positive expiry.
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrObjectNotFound is returned when an object key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectInfo is what the store knows about an uploaded object.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// FileStorage defines the object storage operations used for check-in media.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that accepts a PUT of objectKey.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that serves a GET of objectKey.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// StatObject reports size and content type, or ErrObjectNotFound.
	StatObject(ctx context.Context, objectKey string) (*ObjectInfo, error)

	DeleteObject(ctx context.Context, objectKey string) error
}
