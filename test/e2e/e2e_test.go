package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/tagdex/internal/analysis"
	"github.com/hyperjump/tagdex/internal/config"
	"github.com/hyperjump/tagdex/internal/corpus"
	"github.com/hyperjump/tagdex/internal/index"
	"github.com/hyperjump/tagdex/internal/indexer"
	"github.com/hyperjump/tagdex/internal/models"
	"github.com/hyperjump/tagdex/internal/search"
)

const e2eLinksFile = "bookkeeping.tsv"

// buildEngine indexes the pages under root, reloads the saved index and
// returns an engine reading snippets from the corpus.
func buildEngine(t *testing.T, root string) (*search.Engine, *indexer.Stats) {
	t.Helper()
	ctx := context.Background()
	stemmer := analysis.SnowballStemmer{}
	src := corpus.New(root)
	indexPath := filepath.Join(t.TempDir(), "index.json")

	stats, err := indexer.NewBuilder(stemmer, config.DefaultTags, indexer.WithWorkers(4)).Run(ctx, src, indexPath)
	if err != nil {
		t.Fatalf("index run: %v", err)
	}
	x, err := index.Load(indexPath)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	links, err := corpus.LoadLinks(filepath.Join(root, e2eLinksFile))
	if err != nil {
		t.Fatalf("load links: %v", err)
	}
	return search.NewEngine(x, stemmer, nil, search.WithLinks(links), search.WithSource(src)), stats
}

func TestE2E_SearchReturnsCorrectResults(t *testing.T) {
	root := t.TempDir()
	c := BuildCorpus(60)
	if err := c.Write(root, e2eLinksFile); err != nil {
		t.Fatal(err)
	}
	engine, stats := buildEngine(t, root)
	if stats.Documents != len(c.Pages) {
		t.Fatalf("indexed %d documents, want %d", stats.Documents, len(c.Pages))
	}
	t.Logf("indexed %d documents; running %d query test cases", stats.Documents, len(c.TestCases))

	for _, tc := range c.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: tc.Query})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(resp.ActiveTerms) == 0 {
				t.Fatalf("query %q: no active terms", tc.Query)
			}
			assertCoverageOrder(t, resp)

			result := findResult(resp, tc.ExpectedID)
			if result == nil {
				t.Fatalf("query %q: page %s not in %d results", tc.Query, tc.ExpectedID, len(resp.Results))
			}
			if result.Missing != 0 {
				t.Errorf("query %q: page %s misses %d words", tc.Query, tc.ExpectedID, result.Missing)
			}
			page, _ := c.Page(tc.ExpectedID)
			if result.URL != page.URL {
				t.Errorf("URL = %q, want %q", result.URL, page.URL)
			}
			if len(result.Snippets) == 0 {
				t.Errorf("query %q: page %s has no snippets", tc.Query, tc.ExpectedID)
			}
		})
	}
}

func TestE2E_HeadingOutranksBody(t *testing.T) {
	root := t.TempDir()
	pages := map[string]string{
		"0/0": "<html>\n<p>zebra alpha beta</p>\n</html>\n",
		"0/1": "<html>\n<h1>zebra</h1>\n<p>alpha beta</p>\n</html>\n",
		"1/0": "<html>\n<p>gamma delta</p>\n</html>\n",
	}
	for id, body := range pages {
		path := filepath.Join(root, filepath.FromSlash(id))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, e2eLinksFile), []byte("0/0\tbody.example\n0/1\theading.example\n"), 0600); err != nil {
		t.Fatal(err)
	}

	engine, _ := buildEngine(t, root)
	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "zebra"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].DocID != "0/1" || resp.Results[0].URL != "heading.example" {
		t.Errorf("heading page should rank first, got %s (%s)", resp.Results[0].DocID, resp.Results[0].URL)
	}
	if resp.Results[0].Relevance <= resp.Results[1].Relevance {
		t.Errorf("relevance %v should exceed %v", resp.Results[0].Relevance, resp.Results[1].Relevance)
	}
}

func TestE2E_LimitKeepsTotal(t *testing.T) {
	root := t.TempDir()
	if err := BuildCorpus(60).Write(root, e2eLinksFile); err != nil {
		t.Fatal(err)
	}
	engine, _ := buildEngine(t, root)
	resp, err := engine.Search(context.Background(), &models.SearchQuery{Query: "machine learning", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Total < 3 {
		t.Errorf("Total = %d, want the count before the limit", resp.Total)
	}
}

func assertCoverageOrder(t *testing.T, resp *models.SearchResponse) {
	t.Helper()
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Missing < resp.Results[i-1].Missing {
			t.Errorf("result %d misses %d words but follows one missing %d",
				i, resp.Results[i].Missing, resp.Results[i-1].Missing)
		}
	}
}

func findResult(resp *models.SearchResponse, docID string) *models.SearchResult {
	for _, r := range resp.Results {
		if r.DocID == docID {
			return r
		}
	}
	return nil
}
