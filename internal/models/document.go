// Package models defines core data structures for documents, queries, and search results.
package models

import "time"

// Document is one corpus document as held by the document cache.
type Document struct {
	ID      string `json:"id" db:"id"`
	URL     string `json:"url" db:"url"`
	Content string `json:"content" db:"content"`
	// TokenCount is the indexable-token total: literal words plus stem occurrences.
	TokenCount int       `json:"token_count" db:"token_count"`
	IndexedAt  time.Time `json:"indexed_at" db:"indexed_at"`
}
