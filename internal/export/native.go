// Package export reads and writes annotation documents in the native format
// and converts them to COCO, YOLO, Pascal VOC and statistics reports.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/google/uuid"
	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/pathmatch"
)

// ReadNative decodes a native annotation document
func ReadNative(r io.Reader) (*domain.Document, error) {
	var doc domain.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("while decoding annotation file: %w", err)
	}
	return &doc, nil
}

// ReadNativeFile opens and decodes the native annotation file at filename
func ReadNativeFile(filename string) (*domain.Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("while opening annotation file: %w", err)
	}
	defer f.Close()
	return ReadNative(f)
}

// WriteNative refreshes the info counters of doc and writes it to name
func WriteNative(fs billy.Filesystem, name string, doc *domain.Document) error {
	doc.UpdateCounters()
	return WriteJSON(fs, name, doc)
}

// WriteNativeFile writes doc to a path on the local filesystem
func WriteNativeFile(filename string, doc *domain.Document) error {
	dir, name := splitPath(filename)
	return WriteNative(osfs.New(dir), name, doc)
}

// WriteJSON encodes v with two space indentation into a uuid named temp file
// next to name, then renames it over name
func WriteJSON(fs billy.Filesystem, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("while encoding %s: %w", name, err)
	}
	return writeAtomic(fs, name, data)
}

func writeAtomic(fs billy.Filesystem, name string, data []byte) error {
	dir := path.Dir(name)
	if dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("while creating folder %s: %w", dir, err)
		}
	}
	tempFile := path.Join(dir, fmt.Sprintf(".%s.tmp", uuid.New()))
	f, err := fs.Create(tempFile)
	if err != nil {
		return fmt.Errorf("while creating temp file for %s: %w", name, err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		fs.Remove(tempFile)
		return fmt.Errorf("while writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		fs.Remove(tempFile)
		return fmt.Errorf("while closing %s: %w", name, err)
	}
	if err := fs.Rename(tempFile, name); err != nil {
		fs.Remove(tempFile)
		return fmt.Errorf("while replacing %s: %w", name, err)
	}
	return nil
}

func writeFile(fs billy.Filesystem, name string, data []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("while creating folder %s: %w", dir, err)
		}
	}
	f, err := fs.Create(name)
	if err != nil {
		return fmt.Errorf("while creating %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("while writing %s: %w", name, err)
	}
	return f.Close()
}

func splitPath(filename string) (string, string) {
	return filepath.Dir(filename), filepath.Base(filename)
}

// Stem returns the image file name without folders and extension
func Stem(image string) string {
	base := pathmatch.Base(image)
	return base[:len(base)-len(path.Ext(base))]
}

// COCOPath returns the companion "<base>_coco.json" path of a native file
func COCOPath(nativePath string) string {
	ext := path.Ext(nativePath)
	return nativePath[:len(nativePath)-len(ext)] + "_coco.json"
}
