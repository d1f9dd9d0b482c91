// Package config provides configuration loading and structs for tagdex.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug" toml:"debug"`
	Corpus  CorpusConfig  `yaml:"corpus" toml:"corpus"`
	Index   IndexConfig   `yaml:"index" toml:"index"`
	Search  SearchConfig  `yaml:"search" toml:"search"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Watch   WatchConfig   `yaml:"watch" toml:"watch"`
}

// CorpusConfig describes where documents and the links table live.
type CorpusConfig struct {
	Root      string `yaml:"root" toml:"root"`
	LinksFile string `yaml:"links_file" toml:"links_file"`
	// Workers bounds the number of documents accumulated concurrently.
	Workers int `yaml:"workers" toml:"workers"`
}

// IndexConfig holds settings for building the inverted index.
type IndexConfig struct {
	Path    string   `yaml:"path" toml:"path"`
	Stemmer string   `yaml:"stemmer" toml:"stemmer"`
	Tags    []string `yaml:"tags" toml:"tags"`
}

// SearchConfig holds query-time scoring and presentation settings.
type SearchConfig struct {
	TagWeights    map[string]float64 `yaml:"tag_weights" toml:"tag_weights"`
	SnippetWindow int                `yaml:"snippet_window" toml:"snippet_window"`
	// Limit stops result emission after this many documents; 0 means no cutoff.
	Limit int `yaml:"limit" toml:"limit"`
}

// StorageConfig holds the optional document cache location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" toml:"database_path"`
}

// MetricsConfig holds the optional Prometheus textfile location.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" toml:"textfile_path"`
}

// WatchConfig holds corpus watcher settings.
type WatchConfig struct {
	Debounce Duration `yaml:"debounce" toml:"debounce"`
}

// Duration is a time.Duration written as a string such as "2s" in both YAML
// and TOML files.
type Duration time.Duration

// UnmarshalText parses a time.ParseDuration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders d the way UnmarshalText reads it.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// LinksPath returns the links table path. A relative LinksFile is resolved
// against the corpus root.
func (c *CorpusConfig) LinksPath() string {
	if c.LinksFile == "" || filepath.IsAbs(c.LinksFile) {
		return c.LinksFile
	}
	return filepath.Join(c.Root, c.LinksFile)
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Files ending in .toml are parsed as TOML; everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.Root = expandPath(cfg.Corpus.Root, configDir)
	cfg.Index.Path = expandPath(cfg.Index.Path, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Metrics.TextfilePath = expandPath(cfg.Metrics.TextfilePath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the config to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that cannot produce a working index or query.
func (c *Config) Validate() error {
	switch c.Index.Stemmer {
	case StemmerSnowball, StemmerPorter, StemmerNone:
	default:
		return fmt.Errorf("unknown stemmer %q", c.Index.Stemmer)
	}
	if c.Search.SnippetWindow < 0 {
		return fmt.Errorf("snippet_window must not be negative, got %d", c.Search.SnippetWindow)
	}
	if c.Search.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Search.Limit)
	}
	for _, tag := range c.Index.Tags {
		if _, ok := c.Search.TagWeights[tag]; !ok {
			return fmt.Errorf("tag %q has no weight in search.tag_weights", tag)
		}
	}
	if _, ok := c.Search.TagWeights[NoTag]; !ok {
		return fmt.Errorf("search.tag_weights must define %q", NoTag)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "~/" are relative to the
// home directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
