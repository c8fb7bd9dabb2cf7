package store

import "github.com/lewtec/keylabel/internal/domain"

// Index maps normalized annotation paths, and bare filenames as a fallback,
// to records. Iteration follows the order keys were first inserted.
type Index struct {
	keys    []string
	records map[string]*domain.Record
}

func newIndex() *Index {
	return &Index{records: make(map[string]*domain.Record)}
}

// Get returns the record stored under key
func (ix *Index) Get(key string) (*domain.Record, bool) {
	if key == "" {
		return nil, false
	}
	rec, ok := ix.records[key]
	return rec, ok
}

// Len returns the number of keys
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Each calls fn for every key in insertion order until fn returns false
func (ix *Index) Each(fn func(key string, rec *domain.Record) bool) {
	for _, key := range ix.keys {
		if !fn(key, ix.records[key]) {
			return
		}
	}
}

// set stores rec under key, replacing any previous record without moving the key
func (ix *Index) set(key string, rec *domain.Record) {
	if key == "" {
		return
	}
	if _, ok := ix.records[key]; !ok {
		ix.keys = append(ix.keys, key)
	}
	ix.records[key] = rec
}

// setDefault stores rec under key only when the key is unused
func (ix *Index) setDefault(key string, rec *domain.Record) {
	if _, ok := ix.records[key]; ok {
		return
	}
	ix.set(key, rec)
}
