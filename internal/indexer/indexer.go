// Package indexer builds the tag-aware inverted index from a document corpus.
package indexer

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/tagdex/internal/analysis"
	"github.com/hyperjump/tagdex/internal/corpus"
	"github.com/hyperjump/tagdex/internal/index"
	"github.com/hyperjump/tagdex/internal/metrics"
	"github.com/hyperjump/tagdex/internal/models"
	"github.com/hyperjump/tagdex/internal/storage"
)

// Source lists and reads documents. *corpus.Corpus implements it.
type Source interface {
	List() ([]string, error)
	Read(id string) (string, error)
}

// Stats describes one index run.
type Stats struct {
	RunID string
	// Documents is the number of documents scanned, empty ones included.
	Documents int
	// Words is the number of literal word occurrences.
	Words int64
	// UniqueWords is the number of distinct literal terms.
	UniqueWords int
	// Terms is the number of index keys, stem keys included.
	Terms     int
	SizeBytes int64
	Elapsed   time.Duration
}

// Builder indexes a corpus. It is safe to reuse across runs but not to run
// concurrently with itself.
type Builder struct {
	tags        []string
	stemmer     analysis.Stemmer
	workers     int
	logger      *zap.Logger // optional
	store       storage.Storage
	links       corpus.Links
	metrics     *metrics.IndexMetrics
	metricsPath string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for run and per-document events.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithWorkers bounds the number of documents scanned concurrently.
// Values below 1 use runtime.NumCPU().
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) { b.workers = n }
}

// WithStore rebuilds the document cache on every run. links supplies the
// URL stored with each document and may be nil.
func WithStore(s storage.Storage, links corpus.Links) BuilderOption {
	return func(b *Builder) {
		b.store = s
		b.links = links
	}
}

// WithMetrics records run metrics in m. When path is not empty the registry is
// written there after each successful Run.
func WithMetrics(m *metrics.IndexMetrics, path string) BuilderOption {
	return func(b *Builder) {
		b.metrics = m
		b.metricsPath = path
	}
}

// NewBuilder creates a builder that tracks tags and expands words with stemmer.
func NewBuilder(stemmer analysis.Stemmer, tags []string, opts ...BuilderOption) *Builder {
	b := &Builder{
		tags:    append([]string(nil), tags...),
		stemmer: stemmer,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers < 1 {
		b.workers = runtime.NumCPU()
	}
	return b
}

// scanned is the result of accumulating one document.
type scanned struct {
	acc     *accumulator
	tokens  int
	content string // kept only when a store is configured
}

// Build scans every document of src and returns the finalized index. The
// first read error cancels the remaining work.
func (b *Builder) Build(ctx context.Context, src Source) (*index.InvertedIndex, *Stats, error) {
	start := time.Now()
	stats := &Stats{RunID: uuid.New().String()}

	ids, err := src.List()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list documents: %w", err)
	}
	stats.Documents = len(ids)
	if b.logger != nil {
		b.logger.Info("index run started",
			zap.String("run_id", stats.RunID),
			zap.Int("documents", len(ids)),
			zap.Int("workers", b.workers))
	}

	results := make([]scanned, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	scanners := make(chan *scanner, b.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := src.Read(id)
			if err != nil {
				return err
			}
			var s *scanner
			select {
			case s = <-scanners:
			default:
				s = newScanner(b.tags, b.stemmer)
			}
			acc := s.scan(content)
			scanners <- s
			results[i].acc = acc
			results[i].tokens = acc.total
			if b.store != nil {
				results[i].content = content
			}
			if b.logger != nil {
				b.logger.Debug("indexer document scanned",
					zap.String("doc_id", id),
					zap.Int("tokens", acc.total))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan documents: %w", err)
	}

	x := b.reduce(ids, results, stats)

	if b.store != nil {
		if err := b.store.ReplaceDocuments(ctx, b.documents(ids, results)); err != nil {
			return nil, nil, fmt.Errorf("failed to update document cache: %w", err)
		}
	}

	stats.UniqueWords = x.UniqueWords()
	stats.Terms = x.Len()
	stats.Elapsed = time.Since(start)
	return x, stats, nil
}

// reduce merges per-document accumulators in document order and applies IDF.
func (b *Builder) reduce(ids []string, results []scanned, stats *Stats) *index.InvertedIndex {
	x := index.New()
	x.Documents = len(ids)
	for i, res := range results {
		acc := res.acc
		stats.Words += int64(acc.words)
		if b.metrics != nil {
			b.metrics.ObserveDocument(acc.total)
		}
		for id, key := range acc.keys {
			e, ok := x.Terms[key]
			if !ok {
				e = &index.TermEntry{}
				x.Terms[key] = e
			}
			e.Postings = append(e.Postings, index.Posting{
				DocID:  ids[i],
				Weight: acc.tf(id),
				Tags:   acc.terms[id].tags,
			})
		}
		results[i].acc = nil
	}
	n := float64(x.Documents)
	for _, e := range x.Terms {
		e.IDF = math.Log(n / float64(len(e.Postings)))
		for j := range e.Postings {
			e.Postings[j].Weight *= e.IDF
		}
	}
	return x
}

func (b *Builder) documents(ids []string, results []scanned) []*models.Document {
	docs := make([]*models.Document, len(ids))
	for i, id := range ids {
		url, _ := b.links.URL(id)
		docs[i] = &models.Document{
			ID:         id,
			URL:        url,
			Content:    results[i].content,
			TokenCount: results[i].tokens,
		}
	}
	return docs
}

// Run builds the index, saves it to path, and records metrics.
func (b *Builder) Run(ctx context.Context, src Source, path string) (*Stats, error) {
	x, stats, err := b.Build(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := index.Save(path, x); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat index: %w", err)
	}
	stats.SizeBytes = info.Size()
	stats.Elapsed = stats.Elapsed.Round(time.Millisecond)

	if b.metrics != nil {
		b.metrics.ObserveRun(stats.Words, stats.UniqueWords, stats.SizeBytes, stats.Elapsed)
		if b.metricsPath != "" {
			if err := b.metrics.WriteTextfile(b.metricsPath); err != nil {
				return nil, err
			}
		}
	}
	if b.logger != nil {
		b.logger.Info("index run finished",
			zap.String("run_id", stats.RunID),
			zap.Int("documents", stats.Documents),
			zap.Int64("words", stats.Words),
			zap.Int("unique_words", stats.UniqueWords),
			zap.Int64("size_bytes", stats.SizeBytes),
			zap.Duration("elapsed", stats.Elapsed))
	}
	return stats, nil
}
