package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/affeed/affeed/internal/config"
)

// ErrNotFound is returned when no blob exists under the given key.
var ErrNotFound = errors.New("blob not found")

// Storage holds uploaded media blobs. A stored key is the preview
// reference of the draft that owns it: allocated on file select, released
// on reset, or handed over to the published post.
type Storage interface {
	// Save stores a blob under key with its content type
	Save(key, contentType string, r io.Reader) error

	// Open returns the blob's bytes and content type
	Open(key string) (io.ReadCloser, string, error)

	// Delete removes the blob
	Delete(key string) error

	// URL returns the URL under which the blob is served
	URL(key string) string
}

// New creates the storage backend selected by config. The in-memory
// backend is the default: previews resolve locally without a network
// round trip and every blob dies with the process, like the rest of the
// session state.
func New(c *config.Config) (Storage, error) {
	switch c.StorageBackend {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "s3":
		slog.Info("initializing S3 storage", "bucket", c.S3Bucket, "region", c.S3Region, "endpoint", c.S3Endpoint)
		return NewS3Storage(S3Config{
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Endpoint:      c.S3Endpoint,
			PresignExpiry: c.S3PresignExpiry,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}
}
