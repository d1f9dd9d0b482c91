// Package metrics defines the Prometheus collectors for index runs and writes
// them in text exposition format for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IndexMetrics holds the collectors for index runs on a private registry.
type IndexMetrics struct {
	registry *prometheus.Registry

	DocumentsIndexedTotal  prometheus.Counter
	WordOccurrencesTotal   prometheus.Counter
	UniqueTerms            prometheus.Gauge
	DocumentTokens         prometheus.Histogram
	IndexBuildSeconds      prometheus.Gauge
	IndexSizeBytes         prometheus.Gauge
	LastSuccessfulBuildSec prometheus.Gauge
}

// New creates and registers all index metrics.
func New() *IndexMetrics {
	m := &IndexMetrics{
		registry: prometheus.NewRegistry(),
		DocumentsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tagdex_documents_indexed_total",
				Help: "Total documents scanned by index runs.",
			},
		),
		WordOccurrencesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tagdex_word_occurrences_total",
				Help: "Total literal word occurrences scanned by index runs.",
			},
		),
		UniqueTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagdex_unique_terms",
				Help: "Number of distinct literal terms in the last built index.",
			},
		),
		DocumentTokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tagdex_document_tokens",
				Help:    "Indexable tokens per document, stem occurrences included.",
				Buckets: prometheus.ExponentialBuckets(16, 4, 8),
			},
		),
		IndexBuildSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagdex_index_build_seconds",
				Help: "Wall time of the last index run in seconds.",
			},
		),
		IndexSizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagdex_index_size_bytes",
				Help: "Size of the persisted index artifact in bytes.",
			},
		),
		LastSuccessfulBuildSec: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tagdex_last_successful_build_timestamp_seconds",
				Help: "Unix time of the last successful index run.",
			},
		),
	}

	m.registry.MustRegister(
		m.DocumentsIndexedTotal,
		m.WordOccurrencesTotal,
		m.UniqueTerms,
		m.DocumentTokens,
		m.IndexBuildSeconds,
		m.IndexSizeBytes,
		m.LastSuccessfulBuildSec,
	)
	return m
}

// Registry returns the registry holding the index collectors.
func (m *IndexMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDocument records the token total of one scanned document.
func (m *IndexMetrics) ObserveDocument(tokens int) {
	m.DocumentsIndexedTotal.Inc()
	m.DocumentTokens.Observe(float64(tokens))
}

// ObserveRun records the outcome of a completed index run.
func (m *IndexMetrics) ObserveRun(words int64, uniqueTerms int, sizeBytes int64, elapsed time.Duration) {
	m.WordOccurrencesTotal.Add(float64(words))
	m.UniqueTerms.Set(float64(uniqueTerms))
	m.IndexSizeBytes.Set(float64(sizeBytes))
	m.IndexBuildSeconds.Set(elapsed.Seconds())
	m.LastSuccessfulBuildSec.SetToCurrentTime()
}

// WriteTextfile writes the registry to path in text exposition format.
func (m *IndexMetrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
