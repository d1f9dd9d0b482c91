package benchmark

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/tagdex/internal/analysis"
	"github.com/hyperjump/tagdex/internal/config"
	"github.com/hyperjump/tagdex/internal/corpus"
	"github.com/hyperjump/tagdex/internal/indexer"
	"github.com/hyperjump/tagdex/internal/models"
	"github.com/hyperjump/tagdex/internal/search"
	"github.com/hyperjump/tagdex/test/e2e"
)

func writeCorpus(b *testing.B, n int) string {
	b.Helper()
	root := b.TempDir()
	if err := e2e.BuildCorpus(n).Write(root, "bookkeeping.tsv"); err != nil {
		b.Fatal(err)
	}
	return root
}

func BenchmarkBuild(b *testing.B) {
	src := corpus.New(writeCorpus(b, 500))
	builder := indexer.NewBuilder(analysis.SnowballStemmer{}, config.DefaultTags)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := builder.Build(ctx, src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearch(b *testing.B) {
	root := writeCorpus(b, 500)
	src := corpus.New(root)
	stemmer := analysis.SnowballStemmer{}
	x, _, err := indexer.NewBuilder(stemmer, config.DefaultTags).Build(context.Background(), src)
	if err != nil {
		b.Fatal(err)
	}
	links, err := corpus.LoadLinks(filepath.Join(root, "bookkeeping.tsv"))
	if err != nil {
		b.Fatal(err)
	}
	engine := search.NewEngine(x, stemmer, nil, search.WithLinks(links), search.WithSource(src))
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Search(ctx, &models.SearchQuery{Query: "machine learning algorithms", Limit: 10}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSnippets(b *testing.B) {
	text := search.CollapseWhitespace(e2e.BuildCorpus(1).Pages[0].HTML())
	extractor := search.NewSnippetExtractor([]string{"python", "programming"}, []string{"program"}, search.DefaultSnippetWindow)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = extractor.Extract(text)
	}
}
