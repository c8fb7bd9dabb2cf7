package store

import (
	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/pathmatch"
)

// Query describes the image a record is being resolved for
type Query struct {
	// RelPath is relative to the folder the user selected
	RelPath string
	// MatchPath is relative to the "images" ancestor of that folder
	MatchPath string
	// FallbackPath is the raw image list entry, used when RelPath is empty
	FallbackPath string
	Width        int
	Height       int
}

func (q Query) normalized() Query {
	q.RelPath = pathmatch.Normalize(q.RelPath)
	q.MatchPath = pathmatch.Normalize(q.MatchPath)
	q.FallbackPath = pathmatch.Normalize(q.FallbackPath)
	return q
}

func (q Query) filename() string {
	if q.RelPath != "" {
		return pathmatch.Base(q.RelPath)
	}
	return pathmatch.Base(q.FallbackPath)
}

// Strategy is one step of record resolution. Find returns the index key that
// matched together with its record.
type Strategy struct {
	Name string
	Find func(ix *Index, q Query) (string, *domain.Record, bool)
}

// Strategies is the resolution order: exact structural matches first, fuzzy
// matches last, so two images that only share a filename are not cross-wired
// while an exact entry exists.
var Strategies = []Strategy{
	{Name: "match-path", Find: ExactMatchPath},
	{Name: "relative-path", Find: ExactRelPath},
	{Name: "filename", Find: Filename},
	{Name: "fuzzy-match-path", Find: FuzzyMatchPath},
	{Name: "fuzzy-relative-path", Find: FuzzyRelPath},
}

// ExactMatchPath looks up the path relative to the images ancestor
func ExactMatchPath(ix *Index, q Query) (string, *domain.Record, bool) {
	rec, ok := ix.Get(q.MatchPath)
	return q.MatchPath, rec, ok
}

// ExactRelPath looks up the path relative to the selected folder
func ExactRelPath(ix *Index, q Query) (string, *domain.Record, bool) {
	rec, ok := ix.Get(q.RelPath)
	return q.RelPath, rec, ok
}

// Filename looks up the bare filename key. The reported key is the first
// indexed path with that base name.
func Filename(ix *Index, q Query) (string, *domain.Record, bool) {
	name := q.filename()
	rec, ok := ix.Get(name)
	if !ok {
		return "", nil, false
	}
	key := name
	ix.Each(func(k string, _ *domain.Record) bool {
		if pathmatch.Base(k) == name {
			key = k
			return false
		}
		return true
	})
	return key, rec, true
}

// FuzzyMatchPath runs the pathmatch cascade against the images-relative path
func FuzzyMatchPath(ix *Index, q Query) (string, *domain.Record, bool) {
	return fuzzy(ix, q.MatchPath)
}

// FuzzyRelPath runs the pathmatch cascade against the folder-relative path
func FuzzyRelPath(ix *Index, q Query) (string, *domain.Record, bool) {
	return fuzzy(ix, q.RelPath)
}

func fuzzy(ix *Index, imagePath string) (string, *domain.Record, bool) {
	if imagePath == "" {
		return "", nil, false
	}
	var (
		key   string
		found *domain.Record
	)
	ix.Each(func(k string, rec *domain.Record) bool {
		if pathmatch.Match(imagePath, k) {
			key, found = k, rec
			return false
		}
		return true
	})
	return key, found, found != nil
}
