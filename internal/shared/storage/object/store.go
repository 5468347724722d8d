package object

import (
	"context"
	"errors"
	"io"
	"time"

	"docsort-backend/internal/shared/util"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving, retrieving, and removing uploaded files.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// Presigner is implemented by stores that let clients upload directly with a
// short-lived URL. The returned storage key is owned by ownerID.
type Presigner interface {
	PresignPut(ctx context.Context, ownerID string, fileName string, contentType string, expires time.Duration) (storageKey string, uploadURL string, err error)
}

// OwnerPrefix is the key prefix under which a store places ownerID's objects.
func OwnerPrefix(ownerID string) string {
	return util.HashOwnerKey(ownerID) + "/"
}
