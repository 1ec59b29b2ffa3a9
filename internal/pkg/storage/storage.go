package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Get when no object exists at the path.
var ErrObjectNotFound = errors.New("storage object not found")

// Storage is the durable home of uploaded binary content.
// Paths are slash-separated keys relative to the backend's root.
type Storage interface {
	// Save writes content under path, replacing any existing object.
	Save(ctx context.Context, path string, content io.Reader, contentType string) error

	// Get opens the object at path. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}
