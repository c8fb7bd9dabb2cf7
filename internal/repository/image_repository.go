package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lewtec/keylabel/internal/domain"
)

// ImageRepository implements domain.ImageRepository on the sqlite catalog
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates a new ImageRepository
func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

const imageColumns = `path, size, mod_time, sha256, width, height`

// Get retrieves an image by its path, nil when it is not cataloged
func (r *ImageRepository) Get(ctx context.Context, path string) (*domain.ImageEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE path = ?`, path)
	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("while reading catalog entry %s: %w", path, err)
	}
	return img, nil
}

// Upsert inserts or replaces the entry for img.Path
func (r *ImageRepository) Upsert(ctx context.Context, img *domain.ImageEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO images (`+imageColumns+`) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
  size = excluded.size,
  mod_time = excluded.mod_time,
  sha256 = excluded.sha256,
  width = excluded.width,
  height = excluded.height`,
		img.Path, img.Size, img.ModTime.UnixNano(), img.SHA256, img.Width, img.Height)
	if err != nil {
		return fmt.Errorf("while saving catalog entry %s: %w", img.Path, err)
	}
	return nil
}

// List retrieves all images ordered by path
func (r *ImageRepository) List(ctx context.Context) ([]*domain.ImageEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("while listing catalog: %w", err)
	}
	defer rows.Close()

	var result []*domain.ImageEntry
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("while listing catalog: %w", err)
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

// Duplicates groups the paths of images sharing the same content hash
func (r *ImageRepository) Duplicates(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT sha256, path FROM images
WHERE sha256 IN (
  SELECT sha256 FROM images WHERE sha256 != '' GROUP BY sha256 HAVING COUNT(*) > 1
)
ORDER BY sha256, path`)
	if err != nil {
		return nil, fmt.Errorf("while looking for duplicate images: %w", err)
	}
	defer rows.Close()

	result := map[string][]string{}
	for rows.Next() {
		var hash, path string
		if err := rows.Scan(&hash, &path); err != nil {
			return nil, fmt.Errorf("while looking for duplicate images: %w", err)
		}
		result[hash] = append(result[hash], path)
	}
	return result, rows.Err()
}

// Delete removes an image by path
func (r *ImageRepository) Delete(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("while deleting catalog entry %s: %w", path, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*domain.ImageEntry, error) {
	var (
		img     domain.ImageEntry
		modTime int64
	)
	if err := row.Scan(&img.Path, &img.Size, &modTime, &img.SHA256, &img.Width, &img.Height); err != nil {
		return nil, err
	}
	img.ModTime = time.Unix(0, modTime)
	return &img, nil
}

// Verify that ImageRepository implements domain.ImageRepository
var _ domain.ImageRepository = (*ImageRepository)(nil)
