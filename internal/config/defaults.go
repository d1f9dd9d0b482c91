package config

import (
	"runtime"
	"time"
)

// Stemmer names accepted by index.stemmer.
const (
	StemmerSnowball = "snowball"
	StemmerPorter   = "porter"
	StemmerNone     = "none"
)

// NoTag is the histogram key for occurrences outside every recognized tag.
const NoTag = "none"

// DefaultTags is the recognized structural tag set.
var DefaultTags = []string{"h1", "h2", "h3", "b"}

// DefaultTagWeights returns a fresh copy of the default tag weight table.
func DefaultTagWeights() map[string]float64 {
	return map[string]float64{
		"h1":  0.9,
		"h2":  0.8,
		"h3":  0.7,
		"b":   0.6,
		NoTag: 0.5,
	}
}

// Default returns a config with every field set to its default value.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Corpus.Root == "" {
		cfg.Corpus.Root = "WEBPAGES_SIMPLE"
	}
	if cfg.Corpus.LinksFile == "" {
		cfg.Corpus.LinksFile = "bookkeeping.tsv"
	}
	if cfg.Corpus.Workers <= 0 {
		cfg.Corpus.Workers = runtime.NumCPU()
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "index.json"
	}
	if cfg.Index.Stemmer == "" {
		cfg.Index.Stemmer = StemmerSnowball
	}
	if cfg.Index.Tags == nil {
		cfg.Index.Tags = append([]string(nil), DefaultTags...)
	}
	if cfg.Search.TagWeights == nil {
		cfg.Search.TagWeights = DefaultTagWeights()
	}
	if cfg.Search.SnippetWindow == 0 {
		cfg.Search.SnippetWindow = 37
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(2 * time.Second)
	}
}
