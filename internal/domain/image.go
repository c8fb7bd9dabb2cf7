package domain

import (
	"context"
	"time"
)

// ImageEntry is one image file under a selected root folder
type ImageEntry struct {
	// Path is the absolute file path, with forward slashes
	Path    string
	Width   int
	Height  int
	Size    int64
	ModTime time.Time
	SHA256  string
}

// Fresh reports whether a cached entry still describes a file with the given size and modification time
func (e *ImageEntry) Fresh(size int64, modTime time.Time) bool {
	return e != nil && e.Size == size && e.ModTime.Equal(modTime)
}

// ImageRepository defines the interface for the image catalog
type ImageRepository interface {
	// Get retrieves a cached entry by path, nil when there is none
	Get(ctx context.Context, path string) (*ImageEntry, error)

	// Upsert creates or replaces the entry for entry.Path
	Upsert(ctx context.Context, entry *ImageEntry) error

	// List retrieves all entries ordered by path
	List(ctx context.Context) ([]*ImageEntry, error)

	// Duplicates groups paths that share the same content hash
	Duplicates(ctx context.Context) (map[string][]string, error)

	// Delete removes an entry by path
	Delete(ctx context.Context, path string) error
}
