package search

import (
	"sort"

	"github.com/hyperjump/tagdex/internal/config"
	"github.com/hyperjump/tagdex/internal/index"
)

// TagWeights maps a tag name to its importance. The "none" entry weighs
// untagged occurrences and any tag missing from the table.
type TagWeights map[string]float64

// weight returns the weight of tag, falling back to the untagged weight.
func (w TagWeights) weight(tag string) float64 {
	if v, ok := w[tag]; ok {
		return v
	}
	return w[config.NoTag]
}

// EffectiveWeight scales a posting's stored weight by the tag-weighted average
// of its histogram. An empty histogram yields 0.
func (w TagWeights) EffectiveWeight(p index.Posting) float64 {
	tags := make([]string, 0, len(p.Tags))
	for tag := range p.Tags {
		tags = append(tags, tag)
	}
	// fixed summation order keeps scores bit-identical between runs
	sort.Strings(tags)
	var weighted, total float64
	for _, tag := range tags {
		c := p.Tags[tag]
		weighted += w.weight(tag) * c
		total += c
	}
	if total == 0 {
		return 0
	}
	return p.Weight * weighted / total
}

// scored is a candidate document with one slot per active query term.
type scored struct {
	docID   string
	values  []float64
	present []bool
	missing int
	// relevance is the dot product of values with the active term IDFs.
	relevance float64
}

// rankScored orders candidates by number of missing terms, then by relevance
// descending, then by document id.
func rankScored(docs []*scored) {
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.missing != b.missing {
			return a.missing < b.missing
		}
		if a.relevance != b.relevance {
			return a.relevance > b.relevance
		}
		return a.docID < b.docID
	})
}
