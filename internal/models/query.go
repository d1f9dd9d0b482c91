package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned for a query with no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
	// Limit stops after this many documents; 0 means no cutoff.
	Limit int `json:"limit,omitempty"`
	// Window is the snippet half-width in bytes; 0 uses the engine default.
	Window int `json:"window,omitempty"`
}

// Validate trims the query text and rejects empty queries and negative bounds.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", q.Limit)
	}
	if q.Window < 0 {
		return fmt.Errorf("window must not be negative, got %d", q.Window)
	}
	return nil
}
