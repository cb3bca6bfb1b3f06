// Package mediastore is the client for the external image host. The
// database keeps only object keys and public URLs; the bytes live here.
package mediastore

import (
	"context"
	"errors"
	"io"
)

// MaxDeleteBatch is the provider's cap on keys per bulk-delete call.
// Callers must pre-batch larger key lists (see pkg/batch).
const MaxDeleteBatch = 100

var (
	// ErrBatchTooLarge reports a bulk delete exceeding the provider cap.
	ErrBatchTooLarge = errors.New("mediastore: delete batch exceeds provider cap")

	// ErrUnsupportedType reports an upload with a content type the store
	// refuses to serve.
	ErrUnsupportedType = errors.New("mediastore: unsupported content type")
)

// Upload is the stored result of a successful image upload.
type Upload struct {
	Key string // object key, used for later deletion
	URL string // public URL served to clients
}

// Store is what the services program against. The S3 implementation is the
// production one; tests substitute fakes.
type Store interface {
	// Upload stores image bytes under a caller-chosen key and returns the
	// public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (Upload, error)

	// Delete removes a single object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteBatch removes up to MaxDeleteBatch objects in one provider
	// call. Fails with ErrBatchTooLarge when given more.
	DeleteBatch(ctx context.Context, keys []string) error
}
