// Package search ranks documents of an inverted index against a free-text query
// and cuts highlighted excerpts from the matching documents.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tagdex/internal/analysis"
	"github.com/hyperjump/tagdex/internal/config"
	"github.com/hyperjump/tagdex/internal/corpus"
	"github.com/hyperjump/tagdex/internal/index"
	"github.com/hyperjump/tagdex/internal/models"
)

// DocumentSource returns the raw text of a document for snippet extraction.
// *corpus.Corpus and *storage.SQLiteStorage implement it.
type DocumentSource interface {
	Content(ctx context.Context, id string) (string, error)
}

// Engine answers queries against a loaded index. It holds no mutable state
// and may be shared between goroutines.
type Engine struct {
	index   *index.InvertedIndex
	stemmer analysis.Stemmer
	weights TagWeights
	window  int
	links   corpus.Links
	source  DocumentSource
	logger  *zap.Logger // optional
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for warnings about missing links and unreadable documents.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithLinks sets the document id to URL table.
func WithLinks(links corpus.Links) EngineOption {
	return func(e *Engine) { e.links = links }
}

// WithSource sets where document text for snippets is read from. Without a
// source results carry no snippets.
func WithSource(src DocumentSource) EngineOption {
	return func(e *Engine) { e.source = src }
}

// NewEngine creates a search engine over x. cfg supplies tag weights and the
// snippet window; nil uses the defaults.
func NewEngine(x *index.InvertedIndex, stemmer analysis.Stemmer, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		index:   x,
		stemmer: stemmer,
		weights: TagWeights(config.DefaultTagWeights()),
		window:  DefaultSnippetWindow,
	}
	if cfg != nil {
		if len(cfg.TagWeights) > 0 {
			e.weights = TagWeights(cfg.TagWeights)
		}
		if cfg.SnippetWindow > 0 {
			e.window = cfg.SnippetWindow
		}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// activeTerm is a query word found in the index.
type activeTerm struct {
	word     queryWord
	idf      float64
	postings []index.Posting
	// stemOnly is set when the literal form is not indexed.
	stemOnly bool
}

// activeTerms returns the query words present in the index under their literal
// form or their stem key, with the postings that count for each.
func (e *Engine) activeTerms(words []queryWord) []activeTerm {
	var active []activeTerm
	for _, w := range words {
		lit, hasLit := e.index.Lookup(w.literal)
		var stem *index.TermEntry
		hasStem := false
		if key := w.stemKey(); key != "" {
			stem, hasStem = e.index.Lookup(key)
		}
		if !hasLit && !hasStem {
			continue
		}
		t := activeTerm{word: w}
		if hasLit {
			t.idf = lit.IDF
			t.postings = append(t.postings, lit.Postings...)
		} else {
			t.idf = stem.IDF
			t.stemOnly = true
		}
		if hasStem && (w.stem != w.literal || !hasLit) {
			t.postings = append(t.postings, stem.Postings...)
		}
		active = append(active, t)
	}
	return active
}

// score builds a slot vector per touched document and ranks the documents.
func (e *Engine) score(active []activeTerm) []*scored {
	n := len(active)
	byDoc := make(map[string]*scored)
	var docs []*scored
	for i, t := range active {
		for _, p := range t.postings {
			d, ok := byDoc[p.DocID]
			if !ok {
				d = &scored{docID: p.DocID, values: make([]float64, n), present: make([]bool, n)}
				byDoc[p.DocID] = d
				docs = append(docs, d)
			}
			// a document listed under both the literal and the stem adds up in one slot
			d.values[i] += e.weights.EffectiveWeight(p)
			d.present[i] = true
		}
	}
	for _, d := range docs {
		for i, t := range active {
			if !d.present[i] {
				d.missing++
			}
			d.relevance += d.values[i] * t.idf
		}
	}
	rankScored(docs)
	return docs
}

// Search evaluates the query and returns ranked results with URLs and snippets.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query); err != nil {
		return nil, err
	}

	active := e.activeTerms(parseQuery(query.Query, e.stemmer))
	docs := e.score(active)
	total := len(docs)
	if query.Limit > 0 && len(docs) > query.Limit {
		docs = docs[:query.Limit]
	}

	response := &models.SearchResponse{
		Query:       query.Query,
		ActiveTerms: make([]string, 0, len(active)),
		Results:     make([]*models.SearchResult, 0, len(docs)),
		Total:       total,
	}
	var terms, stems []string
	for _, t := range active {
		response.ActiveTerms = append(response.ActiveTerms, t.word.literal)
		terms = append(terms, t.word.literal)
		if t.word.stem != "" && (t.word.stem != t.word.literal || t.stemOnly) {
			stems = append(stems, t.word.stem)
		}
	}
	window := e.window
	if query.Window > 0 {
		window = query.Window
	}
	extractor := NewSnippetExtractor(terms, stems, window)

	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		response.Results = append(response.Results, &models.SearchResult{
			Rank:      i + 1,
			URL:       e.url(d.docID),
			DocID:     d.docID,
			Relevance: d.relevance,
			Missing:   d.missing,
			Snippets:  e.snippets(ctx, extractor, d.docID),
		})
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

func (e *Engine) url(docID string) string {
	u, ok := e.links.URL(docID)
	if !ok && e.logger != nil {
		e.logger.Warn("no link for document", zap.String("doc_id", docID))
	}
	return u
}

func (e *Engine) snippets(ctx context.Context, extractor *SnippetExtractor, docID string) []string {
	if e.source == nil {
		return nil
	}
	content, err := e.source.Content(ctx, docID)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("cannot read document for snippets", zap.String("doc_id", docID), zap.Error(err))
		}
		return nil
	}
	return extractor.Extract(CollapseWhitespace(content))
}
