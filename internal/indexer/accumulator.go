package indexer

import (
	"strings"

	"github.com/hyperjump/tagdex/internal/analysis"
	"github.com/hyperjump/tagdex/internal/config"
	"github.com/hyperjump/tagdex/internal/index"
)

// counter holds one term's occurrences in one document.
type counter struct {
	count int
	tags  index.Histogram
}

// accumulator collects term counters for a single document. Counters live in an
// arena indexed by term id so that repeated terms cost one map lookup.
type accumulator struct {
	ids   map[string]int
	keys  []string
	terms []counter
	// total is the indexable-token count: literal words plus stem occurrences.
	total int
	// words counts literal word occurrences only.
	words int
}

func newAccumulator() *accumulator {
	return &accumulator{ids: make(map[string]int)}
}

// record adds one occurrence of key. The occurrence is shared evenly between the
// open tags, or counted under "none" when no tag is open.
func (a *accumulator) record(key string, open []string) {
	id, ok := a.ids[key]
	if !ok {
		id = len(a.terms)
		a.ids[key] = id
		a.keys = append(a.keys, key)
		a.terms = append(a.terms, counter{tags: make(index.Histogram, 1)})
	}
	c := &a.terms[id]
	c.count++
	if len(open) == 0 {
		c.tags[config.NoTag]++
	} else {
		share := 1 / float64(len(open))
		for _, tag := range open {
			c.tags[tag] += share
		}
	}
	a.total++
}

// tf returns the term frequency of counter id. A document without tokens has
// no counters, but the guard keeps the division safe regardless.
func (a *accumulator) tf(id int) float64 {
	if a.total == 0 {
		return 0
	}
	return float64(a.terms[id].count) / float64(a.total)
}

// scanner turns document text into an accumulator. Each worker owns one.
type scanner struct {
	tracker *analysis.TagTracker
	stemmer analysis.Stemmer
	stems   map[string]string
}

func newScanner(tags []string, stemmer analysis.Stemmer) *scanner {
	return &scanner{
		tracker: analysis.NewTagTracker(tags),
		stemmer: stemmer,
		stems:   make(map[string]string),
	}
}

// stem returns the stem key for word, or "" when the word has no stem distinct
// from itself.
func (s *scanner) stem(word string) string {
	if key, ok := s.stems[word]; ok {
		return key
	}
	key := ""
	if stem, ok := s.stemmer.Stem(word); ok && stem != word {
		key = index.StemKey(stem)
	}
	s.stems[word] = key
	return key
}

func (s *scanner) scan(content string) *accumulator {
	s.tracker.Reset()
	acc := newAccumulator()
	for line := range strings.Lines(content) {
		for tok := range analysis.Tokens(line) {
			if tok.Markup {
				s.tracker.Apply(tok)
				continue
			}
			open := s.tracker.Open()
			acc.record(tok.Text, open)
			acc.words++
			if key := s.stem(tok.Text); key != "" {
				acc.record(key, open)
			}
		}
	}
	return acc
}
