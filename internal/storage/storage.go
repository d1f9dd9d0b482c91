// Package storage caches indexed documents so that search can build snippets
// without touching the corpus directory.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/tagdex/internal/models"
)

// ErrNotFound is returned when a document id is not in the cache.
var ErrNotFound = errors.New("document not found")

// Storage defines document cache operations.
type Storage interface {
	// ReplaceDocuments swaps the whole cache for docs in one transaction.
	ReplaceDocuments(ctx context.Context, docs []*models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
