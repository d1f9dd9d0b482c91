// Package main is the tagdex CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tagdex/internal/analysis"
	"github.com/hyperjump/tagdex/internal/cli"
	"github.com/hyperjump/tagdex/internal/config"
	"github.com/hyperjump/tagdex/internal/corpus"
	"github.com/hyperjump/tagdex/internal/index"
	"github.com/hyperjump/tagdex/internal/indexer"
	"github.com/hyperjump/tagdex/internal/metrics"
	"github.com/hyperjump/tagdex/internal/models"
	"github.com/hyperjump/tagdex/internal/search"
	"github.com/hyperjump/tagdex/internal/storage"
	"github.com/hyperjump/tagdex/internal/watcher"
	"github.com/hyperjump/tagdex/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/tagdex/config.yaml"
	localConfigName   = "tagdex.yaml"
)

// loadConfig loads config from path. When path is the default, tagdex.yaml in the
// current directory takes precedence; when neither exists the defaults are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, localConfigName)
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("tagdex version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fail prints "Failed to <what>: <err>" to stderr and exits 1.
func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "Failed to %s: %v\n", what, err)
	os.Exit(1)
}

// setup loads the config and creates the logger shared by every command.
func setup(configPath string) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fail("load config", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fail("create logger", err)
	}
	if resolved != "" {
		logger.Debug("config loaded", zap.String("config_path", resolved))
	} else {
		logger.Debug("no config file found, using defaults")
	}
	return cfg, logger
}

// Pipeline is the index run shared by "index" and "watch".
type Pipeline struct {
	Corpus  *corpus.Corpus
	Builder *indexer.Builder
	OutPath string
	store   *storage.SQLiteStorage
}

// Close releases the document cache if one is open.
func (p *Pipeline) Close() {
	if p.store != nil {
		_ = p.store.Close()
	}
}

// Run performs one full index run.
func (p *Pipeline) Run(ctx context.Context) (*indexer.Stats, error) {
	return p.Builder.Run(ctx, p.Corpus, p.OutPath)
}

func newPipeline(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	stemmer, err := analysis.NewStemmer(cfg.Index.Stemmer)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		Corpus:  corpus.New(cfg.Corpus.Root),
		OutPath: cfg.Index.Path,
	}
	opts := []indexer.BuilderOption{
		indexer.WithLogger(logger),
		indexer.WithWorkers(cfg.Corpus.Workers),
	}
	if cfg.Storage.DatabasePath != "" {
		links, err := loadLinks(cfg, logger)
		if err != nil {
			return nil, err
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		p.store = store
		opts = append(opts, indexer.WithStore(store, links))
	}
	if cfg.Metrics.TextfilePath != "" {
		opts = append(opts, indexer.WithMetrics(metrics.New(), cfg.Metrics.TextfilePath))
	}
	p.Builder = indexer.NewBuilder(stemmer, cfg.Index.Tags, opts...)
	return p, nil
}

// loadLinks reads the links table. A missing table is tolerated (every result
// then shows the unknown-source placeholder); a malformed one is not.
func loadLinks(cfg *config.Config, logger *zap.Logger) (corpus.Links, error) {
	path := cfg.Corpus.LinksPath()
	links, err := corpus.LoadLinks(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("links table not found", zap.String("path", path))
		return corpus.Links{}, nil
	}
	return links, err
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	corpusRoot := fs.String("corpus", "", "corpus root directory (overrides config)")
	outPath := fs.String("out", "", "index output file (overrides config)")
	workers := fs.Int("workers", 0, "documents scanned concurrently (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath)
	defer logger.Sync()
	applyIndexOverrides(cfg, *corpusRoot, *outPath, *workers)

	p, err := newPipeline(cfg, logger)
	if err != nil {
		fail("initialize indexer", err)
	}
	defer p.Close()

	stats, err := p.Run(context.Background())
	if err != nil {
		fail("build index", err)
	}
	cli.WriteIndexStats(os.Stdout, stats)
}

func applyIndexOverrides(cfg *config.Config, root, out string, workers int) {
	if root != "" {
		cfg.Corpus.Root = root
	}
	if out != "" {
		cfg.Index.Path = out
	}
	if workers > 0 {
		cfg.Corpus.Workers = workers
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: tagdex search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Without arguments the query is read from stdin.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Documents containing every query word come first; inside each group results are
ordered by relevance. Words inside headings and bold text weigh more.

Examples:
  tagdex search machine learning
  tagdex search --limit 5 "information retrieval"
  tagdex search --output json computer science
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// promptQuery writes the prompt to w and reads one line from r.
func promptQuery(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Search: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", -1, "stop after this many documents (0 = all; default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	window := fs.Int("window", 0, "snippet half-width in bytes (default from config)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		queryStr, err = promptQuery(os.Stdin, os.Stdout)
		if err != nil {
			fail("read query", err)
		}
	}

	cfg, logger := setup(*configPath)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fail("initialize search", err)
	}
	defer components.Close()

	searchQuery := &models.SearchQuery{
		Query:  queryStr,
		Limit:  cfg.Search.Limit,
		Window: *window,
	}
	if *limit >= 0 {
		searchQuery.Limit = *limit
	}
	response, err := components.Engine.Search(context.Background(), searchQuery)
	if errors.Is(err, models.ErrEmptyQuery) {
		printSearchUsage(fs)
		os.Exit(1)
	}
	if err != nil {
		fail("search", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fail("write output", err)
	}
}

// Components holds initialized query-time services.
type Components struct {
	Index   *index.InvertedIndex
	Storage *storage.SQLiteStorage
	Engine  *search.Engine
}

// Close releases the document cache if one is open.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	x, err := index.Load(cfg.Index.Path)
	if err != nil {
		return nil, err
	}
	stemmer, err := analysis.NewStemmer(cfg.Index.Stemmer)
	if err != nil {
		return nil, err
	}
	links, err := loadLinks(cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &Components{Index: x}
	var source search.DocumentSource = corpus.New(cfg.Corpus.Root)
	if cfg.Storage.DatabasePath != "" {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		source = store
	}
	c.Engine = search.NewEngine(x, stemmer, &cfg.Search,
		search.WithLinks(links),
		search.WithSource(source),
		search.WithLogger(logger))
	return c, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger := setup(*configPath)
	defer logger.Sync()

	status, err := collectStatus(context.Background(), cfg)
	if err != nil {
		fail("read status", err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fail("write output", err)
	}
}

func collectStatus(ctx context.Context, cfg *config.Config) (*cli.Status, error) {
	x, err := index.Load(cfg.Index.Path)
	if err != nil {
		return nil, err
	}
	size, err := storage.DiskUsageBytes(cfg.Index.Path)
	if err != nil {
		return nil, err
	}
	status := &cli.Status{
		IndexPath:      cfg.Index.Path,
		IndexSizeBytes: size,
		Documents:      x.Documents,
		Terms:          x.Len(),
		UniqueWords:    x.UniqueWords(),
	}
	if cfg.Storage.DatabasePath == "" {
		return status, nil
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	if status.CachedDocuments, err = store.CountDocuments(ctx); err != nil {
		return nil, err
	}
	status.DatabasePath = store.Path()
	if status.DatabaseSizeBytes, err = storage.DiskUsageBytes(storage.DatabaseFiles(cfg.Storage.DatabasePath)...); err != nil {
		return nil, err
	}
	return status, nil
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath)
	defer logger.Sync()

	p, err := newPipeline(cfg, logger)
	if err != nil {
		fail("initialize indexer", err)
	}
	defer p.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start from a fresh index so that searches match the corpus right away.
	if _, err := p.Run(ctx); err != nil {
		fail("build index", err)
	}

	ignore := append([]string{cfg.Index.Path, cfg.Metrics.TextfilePath}, storage.DatabaseFiles(cfg.Storage.DatabasePath)...)
	w := watcher.NewWatcher(p.Corpus.Root(),
		func(ctx context.Context) error {
			_, err := p.Run(ctx)
			return err
		},
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(cfg.Watch.Debounce)),
		watcher.WithIgnore(ignore...))
	if err := w.Start(ctx); err != nil {
		fail("start watcher", err)
	}
	fmt.Printf("Watching %s (Ctrl+C to stop)\n", p.Corpus.Root())
	<-ctx.Done()
	w.Stop()
	logger.Info("Shutting down...")
}

func printUsage() {
	fmt.Println(`tagdex - Tag-aware TF-IDF search over a local web page corpus

Usage:
  tagdex index [flags]            Build the index from the corpus
  tagdex search [flags] <query>   Search the index
  tagdex status [flags]           Show index and document cache status
  tagdex watch [flags]            Re-index whenever the corpus changes
  tagdex version                  Show version
  tagdex help                     Show this help

Index Flags:
  --config string    Config file path (default: ./tagdex.yaml, then /usr/local/etc/tagdex/config.yaml)
  --corpus string    Corpus root directory
  --out string       Index output file
  --workers int      Documents scanned concurrently (default: number of CPUs)

Search Flags:
  --config string    Config file path
  --limit int        Stop after this many documents (0 = all)
  --output string    Output format: text or json (default: text)
  --window int       Snippet half-width in bytes (default: 37)

Status Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Watch Flags:
  --config string    Config file path

Examples:
  tagdex index --corpus WEBPAGES_SIMPLE
  tagdex search machine learning
  tagdex search --limit 10 --output json "software engineering"
  tagdex status
  tagdex watch`)
}
