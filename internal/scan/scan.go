// Package scan lists the images below a folder.
package scan

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Extensions are the lower-case file extensions treated as images
var Extensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"}

// IsImage reports whether name has one of Extensions, ignoring case
func IsImage(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, candidate := range Extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Images walks root inside fsys and returns the image paths relative to
// root, with forward slashes, sorted lexicographically
func Images(fsys fs.FS, root string) ([]string, error) {
	if root == "" {
		root = "."
	}
	var images []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImage(d.Name()) {
			return nil
		}
		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, root+"/")
		}
		images = append(images, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while scanning %s for images: %w", root, err)
	}
	sort.Strings(images)
	return images, nil
}
