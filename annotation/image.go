package annotation

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/lewtec/keylabel/internal/domain"
	_ "golang.org/x/image/bmp"
)

// ImageSize decodes only the header of an image file to get its dimensions
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("while decoding %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// CatalogImage returns the catalog entry of the file at path, decoding and
// hashing it when the cached entry is missing or stale. A nil repository
// only reads the image header.
func CatalogImage(ctx context.Context, repo domain.ImageRepository, path string) (*domain.ImageEntry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("while resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	key := filepath.ToSlash(abs)
	if repo != nil {
		cached, err := repo.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if cached.Fresh(info.Size(), info.ModTime()) {
			return cached, nil
		}
	}

	width, height, err := ImageSize(abs)
	if err != nil {
		return nil, err
	}
	entry := &domain.ImageEntry{
		Path:    key,
		Width:   width,
		Height:  height,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if repo == nil {
		return entry, nil
	}
	if entry.SHA256, err = HashFile(abs); err != nil {
		return nil, err
	}
	if err := repo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
