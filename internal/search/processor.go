package search

import (
	"github.com/hyperjump/tagdex/internal/analysis"
	"github.com/hyperjump/tagdex/internal/index"
	"github.com/hyperjump/tagdex/internal/models"
)

// ProcessQuery validates the search query.
func ProcessQuery(query *models.SearchQuery) error {
	return query.Validate()
}

// queryWord is one word of the query with its stem.
type queryWord struct {
	literal string
	// stem is empty when the stemmer declined the word.
	stem string
}

// stemKey returns the index key of the stem, or "" when there is none.
func (w queryWord) stemKey() string {
	if w.stem == "" {
		return ""
	}
	return index.StemKey(w.stem)
}

// parseQuery tokenizes text like a document line and stems each word. Markup in
// the query is ignored. Repeated words are kept.
func parseQuery(text string, stemmer analysis.Stemmer) []queryWord {
	var words []queryWord
	for tok := range analysis.Tokens(text) {
		if tok.Markup {
			continue
		}
		w := queryWord{literal: tok.Text}
		if stem, ok := stemmer.Stem(tok.Text); ok {
			w.stem = stem
		}
		words = append(words, w)
	}
	return words
}
