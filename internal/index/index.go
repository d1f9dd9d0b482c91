// Package index defines the tag-aware inverted index and its persisted JSON form.
//
// The artifact is a single JSON object mapping each term key to
// [idf, [[documentId, weight, {tag: count}], ...]]. Keys are written in sorted
// order and postings in document order, so an unchanged corpus always produces
// the same bytes.
package index

import (
	"strings"
)

// StemPrefix marks synthetic stem keys. Words never start with it because the
// tokenizer strips '#' from word edges.
const StemPrefix = "#"

// StemKey returns the index key for a stem.
func StemKey(stem string) string {
	return StemPrefix + stem
}

// IsStemKey reports whether key is a synthetic stem key.
func IsStemKey(key string) bool {
	return strings.HasPrefix(key, StemPrefix)
}

// Histogram maps a tag name (or "none") to the number of occurrences of one term
// in one document that fell inside that tag.
type Histogram map[string]float64

// Total returns the sum of all counts.
func (h Histogram) Total() float64 {
	var sum float64
	for _, c := range h {
		sum += c
	}
	return sum
}

// Posting attaches one document to a term. Weight holds TF until the index is
// finalized and TF×IDF afterwards.
type Posting struct {
	DocID  string
	Weight float64
	Tags   Histogram
}

// TermEntry is the IDF of a term and its postings in document order.
type TermEntry struct {
	IDF      float64
	Postings []Posting
}

// InvertedIndex maps term keys to entries. It is not modified after it is
// built or loaded.
type InvertedIndex struct {
	Terms map[string]*TermEntry
	// Documents is the corpus size the IDFs were computed against. After Load it is
	// the number of distinct documents referenced by postings.
	Documents int
}

// New returns an empty index.
func New() *InvertedIndex {
	return &InvertedIndex{Terms: make(map[string]*TermEntry)}
}

// Lookup returns the entry for key.
func (x *InvertedIndex) Lookup(key string) (*TermEntry, bool) {
	e, ok := x.Terms[key]
	return e, ok
}

// Len returns the number of keys, stems included.
func (x *InvertedIndex) Len() int {
	return len(x.Terms)
}

// UniqueWords returns the number of literal (non-stem) keys.
func (x *InvertedIndex) UniqueWords() int {
	n := 0
	for key := range x.Terms {
		if !IsStemKey(key) {
			n++
		}
	}
	return n
}

// countDocuments returns the number of distinct document ids across all postings.
func (x *InvertedIndex) countDocuments() int {
	seen := make(map[string]struct{})
	for _, e := range x.Terms {
		for _, p := range e.Postings {
			seen[p.DocID] = struct{}{}
		}
	}
	return len(seen)
}
