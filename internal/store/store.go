// Package store owns the records of one annotation document and resolves
// on-disk images to them.
package store

import (
	"errors"

	"github.com/lewtec/keylabel/internal/domain"
	"github.com/lewtec/keylabel/internal/pathmatch"
)

// ErrNoDocument is returned when an operation needs a loaded document
var ErrNoDocument = errors.New("no annotation document loaded")

// Resolution is the outcome of resolving an image to a record
type Resolution struct {
	Record *domain.Record
	// Key is the index key that matched, i.e. the path as stored in the document
	Key string
	// Strategy names the step that matched; empty when the record was created
	Strategy string
	Created  bool
}

// Store holds one document and its lookup index
type Store struct {
	doc   *domain.Document
	index *Index
}

// New creates an empty store with no document loaded
func New() *Store {
	return &Store{index: newIndex()}
}

// Load replaces the document and rebuilds the index. Every record is indexed
// under its normalized path and, when that key is still free, under its bare
// filename, so the first record wins filename collisions.
func (s *Store) Load(doc *domain.Document) {
	s.doc = doc
	s.index = newIndex()
	if doc == nil {
		return
	}
	for _, rec := range doc.Annotations {
		if rec.Image == "" {
			continue
		}
		normalized := pathmatch.Normalize(rec.Image)
		s.index.set(normalized, rec)
		s.index.setDefault(pathmatch.Base(normalized), rec)
	}
}

// Loaded reports whether a document is present
func (s *Store) Loaded() bool {
	return s.doc != nil
}

// Document returns the loaded document, nil when there is none
func (s *Store) Document() *domain.Document {
	return s.doc
}

// Index exposes the lookup index
func (s *Store) Index() *Index {
	return s.index
}

// Resolve runs Strategies in order and returns the first hit
func (s *Store) Resolve(q Query) (Resolution, bool) {
	if s.doc == nil {
		return Resolution{}, false
	}
	q = q.normalized()
	for _, strategy := range Strategies {
		key, rec, ok := strategy.Find(s.index, q)
		if !ok {
			continue
		}
		return Resolution{Record: rec, Key: key, Strategy: strategy.Name}, true
	}
	return Resolution{}, false
}

// ResolveOrCreate resolves the image to a record, rewriting the record's image
// path to the current relative path on a hit. On a miss it appends a new empty
// record to the document and indexes it.
func (s *Store) ResolveOrCreate(q Query) (Resolution, error) {
	if s.doc == nil {
		return Resolution{}, ErrNoDocument
	}
	q = q.normalized()
	if res, ok := s.Resolve(q); ok {
		if q.RelPath != "" && res.Record.Image != q.RelPath {
			res.Record.Image = q.RelPath
			s.index.setDefault(q.RelPath, res.Record)
		}
		return res, nil
	}

	image := q.RelPath
	if image == "" {
		image = q.FallbackPath
	}
	rec := &domain.Record{
		Image:     image,
		Width:     q.Width,
		Height:    q.Height,
		Keypoints: []domain.Keypoint{},
	}
	s.doc.Annotations = append(s.doc.Annotations, rec)
	s.index.set(image, rec)
	s.index.setDefault(pathmatch.Base(image), rec)
	return Resolution{Record: rec, Key: image, Created: true}, nil
}

// IsAnnotated reports whether the first index entry naming this image has a
// non-empty keypoint list. Absent entries count: only the length is checked.
func (s *Store) IsAnnotated(relPath, matchPath string) bool {
	if s.doc == nil {
		return false
	}
	relPath = pathmatch.Normalize(relPath)
	matchPath = pathmatch.Normalize(matchPath)
	base := pathmatch.Base(relPath)
	annotated := false
	s.index.Each(func(key string, rec *domain.Record) bool {
		if key == relPath || (matchPath != "" && key == matchPath) || pathmatch.Base(key) == base {
			annotated = len(rec.Keypoints) > 0
			return false
		}
		return true
	})
	return annotated
}
