package storage

import (
	"context"
	"io"
)

// ArtifactStore persists generated workbook files. The export service
// depends on this interface so deployments can swap the backing store
// without touching billing logic.
type ArtifactStore interface {
	// Put stores the content under key and returns the number of bytes
	// written.
	Put(ctx context.Context, key string, content io.Reader) (int64, error)
	// Get opens the stored content. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Exists reports whether the key holds content
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the content. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
