// Package pathmatch decides whether a path stored in an annotation document
// refers to the same file as an image found on disk, even when the two were
// written relative to different base folders or with different separators.
package pathmatch

import (
	"path"
	"path/filepath"
	"strings"
)

// ImagesDirName is the ancestor folder that annotation paths are usually relative to
const ImagesDirName = "images"

// Rule is one heuristic of the match cascade. Both arguments are already normalized and non-empty.
type Rule func(imagePath, annotationPath string) bool

// Rules is the cascade used by Match, most precise first
var Rules = []Rule{Exact, SameBase, SuffixOf, SegmentSuffix}

// Normalize replaces backslashes with forward slashes
func Normalize(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// Base returns the final component of a normalized path
func Base(p string) string {
	p = Normalize(p)
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Match reports whether the on-disk relative path and the stored annotation
// path name the same image. Empty inputs never match.
func Match(imagePath, annotationPath string) bool {
	if imagePath == "" || annotationPath == "" {
		return false
	}
	img := Normalize(imagePath)
	ann := Normalize(annotationPath)
	for _, rule := range Rules {
		if rule(img, ann) {
			return true
		}
	}
	return false
}

// Exact matches identical strings
func Exact(img, ann string) bool {
	return img == ann
}

// SameBase matches paths whose final components are equal
func SameBase(img, ann string) bool {
	return Base(img) == Base(ann)
}

// SuffixOf matches when either path ends with the other, e.g.
// "frames/x/f1.jpg" and "DL/frames/x/f1.jpg"
func SuffixOf(img, ann string) bool {
	return strings.HasSuffix(img, ann) || strings.HasSuffix(ann, img)
}

// SegmentSuffix matches when, for some split point of the image path, its
// trailing segments equal the same number of trailing segments of the annotation path
func SegmentSuffix(img, ann string) bool {
	imgParts := strings.Split(img, "/")
	annParts := strings.Split(ann, "/")
	for i := range imgParts {
		tail := imgParts[i:]
		if len(tail) > len(annParts) {
			continue
		}
		if equalParts(tail, annParts[len(annParts)-len(tail):]) {
			return true
		}
	}
	return false
}

func equalParts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RelativePath returns fullPath relative to base with forward slashes, or ""
// when no relative path exists
func RelativePath(fullPath, base string) string {
	rel, err := filepath.Rel(base, fullPath)
	if err != nil {
		return ""
	}
	return Normalize(filepath.ToSlash(rel))
}

// BaseImagesDir returns the first ancestor of folder named "images" (inclusive),
// or folder itself when there is none
func BaseImagesDir(folder string) string {
	clean := filepath.Clean(folder)
	parts := strings.Split(filepath.ToSlash(clean), "/")
	for i, part := range parts {
		if part != ImagesDirName {
			continue
		}
		base := strings.Join(parts[:i+1], "/")
		if base == "" {
			base = "/"
		}
		return filepath.FromSlash(base)
	}
	return folder
}

// AnnotationMatchPath returns the image path relative to the "images" ancestor
// of folder, which is what annotation files usually store when the user picked
// a deeper sub folder
func AnnotationMatchPath(fullPath, folder string) string {
	return RelativePath(fullPath, BaseImagesDir(folder))
}

// Join joins a root folder and a forward slash relative path
func Join(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(path.Clean(rel)))
}
