package analysis

import (
	"fmt"
	"unicode"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
	"github.com/kljensen/snowball/english"

	"github.com/hyperjump/tagdex/internal/config"
)

// Stemmer produces the linguistic stem of a word. It returns false when the word
// cannot be stemmed; callers then index the literal form only.
type Stemmer interface {
	Stem(word string) (string, bool)
}

// NewStemmer returns the stemmer registered under name (see config.Stemmer*).
func NewStemmer(name string) (Stemmer, error) {
	switch name {
	case config.StemmerSnowball, "":
		return SnowballStemmer{}, nil
	case config.StemmerPorter:
		return PorterStemmer{}, nil
	case config.StemmerNone:
		return NoopStemmer{}, nil
	default:
		return nil, fmt.Errorf("unknown stemmer %q", name)
	}
}

// SnowballStemmer is the English Snowball (Porter2) algorithm.
type SnowballStemmer struct{}

// Stem implements Stemmer.
func (SnowballStemmer) Stem(word string) (stem string, ok bool) {
	if !stemmable(word) {
		return "", false
	}
	defer func() {
		if recover() != nil {
			stem, ok = "", false
		}
	}()
	stem = english.Stem(word, true)
	return stem, stem != ""
}

// PorterStemmer is the original Porter algorithm as shipped with bleve.
type PorterStemmer struct{}

// Stem implements Stemmer.
func (PorterStemmer) Stem(word string) (string, bool) {
	if !stemmable(word) {
		return "", false
	}
	stem := porterstemmer.StemString(word)
	return stem, stem != ""
}

// NoopStemmer never stems; the index then holds literal forms only.
type NoopStemmer struct{}

// Stem implements Stemmer.
func (NoopStemmer) Stem(string) (string, bool) { return "", false }

// stemmable accepts ASCII words containing at least one letter. Both algorithms
// are defined over English letters; anything else is left literal.
func stemmable(word string) bool {
	hasLetter := false
	for _, r := range word {
		if r > unicode.MaxASCII {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
