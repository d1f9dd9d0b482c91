// Package cli formats tagdex results and statistics for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/tagdex/internal/indexer"
	"github.com/hyperjump/tagdex/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const ruleWidth = 80

var (
	headRule = strings.Repeat("=", ruleWidth)
	midRule  = "\n" + strings.Repeat("-", ruleWidth) + "\n"
)

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	if len(response.Results) == 0 {
		fmt.Fprintf(w, "No results for %q.\n", response.Query)
		return
	}
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintln(w, headRule)
	fmt.Fprintf(w, "%d %s\n", result.Rank, result.URL)
	fmt.Fprintf(w, "cached copy: %s\n", result.DocID)
	fmt.Fprintln(w, headRule)
	blocks := make([]string, 0, len(result.Snippets)+2)
	blocks = append(blocks, "")
	blocks = append(blocks, result.Snippets...)
	blocks = append(blocks, "")
	fmt.Fprintln(w, strings.Join(blocks, midRule))
}

// WriteIndexStats writes the summary of an index run.
func WriteIndexStats(w io.Writer, stats *indexer.Stats) {
	fmt.Fprintf(w, "Total documents: %d\n", stats.Documents)
	fmt.Fprintf(w, "Total words: %d\n", stats.Words)
	fmt.Fprintf(w, "Total unique words: %d\n", stats.UniqueWords)
	fmt.Fprintf(w, "Index size: %s\n", FormatSize(stats.SizeBytes))
	fmt.Fprintf(w, "Elapsed: %s\n", stats.Elapsed)
}

// Status describes the persisted index and document cache.
type Status struct {
	IndexPath         string `json:"index_path"`
	IndexSizeBytes    int64  `json:"index_size_bytes"`
	Documents         int    `json:"documents"`
	Terms             int    `json:"terms"`
	UniqueWords       int    `json:"unique_words"`
	DatabasePath      string `json:"database_path,omitempty"`
	DatabaseSizeBytes int64  `json:"database_size_bytes,omitempty"`
	CachedDocuments   int64  `json:"cached_documents,omitempty"`
}

// WriteStatus writes status to w in the given format.
func WriteStatus(w io.Writer, status *Status, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Index: %s (%s)\n", status.IndexPath, FormatSize(status.IndexSizeBytes))
	fmt.Fprintf(w, "Documents: %d\n", status.Documents)
	fmt.Fprintf(w, "Terms: %d (%d unique words)\n", status.Terms, status.UniqueWords)
	if status.DatabasePath != "" {
		fmt.Fprintf(w, "Document cache: %s (%s, %d documents)\n",
			status.DatabasePath, FormatSize(status.DatabaseSizeBytes), status.CachedDocuments)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatSize renders n bytes with its KiB equivalent.
func FormatSize(n int64) string {
	return fmt.Sprintf("%d bytes (%.1f KiB)", n, float64(n)/1024)
}
