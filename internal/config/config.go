// Package config loads the application configuration from an optional TOML
// file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variable names. Credentials only come from the environment
// (or a .env file); the TOML file never holds secrets.
const (
	EnvCohereAPIKey = "COHERE_API_KEY"
	EnvQdrantURL    = "QDRANT_URL"
	EnvQdrantAPIKey = "QDRANT_API_KEY"

	EnvChunkSize  = "BOOKRAG_CHUNK_SIZE"
	EnvOverlap    = "BOOKRAG_CHUNK_OVERLAP"
	EnvCollection = "BOOKRAG_COLLECTION"
	EnvDataDir    = "BOOKRAG_DATA_DIR"
)

// CohereConfig configures the embedding service.
type CohereConfig struct {
	APIKey string `toml:"-"`
	Model  string `toml:"model"`
}

// QdrantConfig contains connection details for the vector index.
type QdrantConfig struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"-"`
	Collection string `toml:"collection"`
}

// ChunkingConfig configures the text chunker.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// SourceConfig configures where pages come from.
type SourceConfig struct {
	// BaseURL is the documentation site root. Sitemap discovery starts at
	// BaseURL/sitemap.xml.
	BaseURL string `toml:"base_url"`

	// RequestsPerSecond caps the fetch rate against the site.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Config is the root application configuration.
type Config struct {
	Cohere   CohereConfig   `toml:"cohere"`
	Qdrant   QdrantConfig   `toml:"qdrant"`
	Chunking ChunkingConfig `toml:"chunking"`
	Source   SourceConfig   `toml:"source"`

	// DataDir is where the local page bookkeeping database lives.
	DataDir string `toml:"data_dir"`
}

func defaults() Config {
	return Config{
		Cohere: CohereConfig{
			Model: "embed-english-v3.0",
		},
		Qdrant: QdrantConfig{
			Collection: "book_content",
		},
		Chunking: ChunkingConfig{
			ChunkSize: 800,
			Overlap:   100,
		},
		Source: SourceConfig{
			RequestsPerSecond: 2,
		},
	}
}

// Load builds the configuration from defaults, then the TOML file at path
// when it exists, then environment variables. A .env file in the working
// directory is loaded first, without overriding variables already set.
//
// An empty path means "only the default location": ~/.bookrag/config.toml.
func Load(path string) (*Config, error) {
	// Missing .env is the common case and not an error.
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".bookrag", "config.toml")
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults plus environment is a complete configuration.
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvCohereAPIKey); v != "" {
		cfg.Cohere.APIKey = v
	}
	if v := os.Getenv(EnvQdrantURL); v != "" {
		cfg.Qdrant.URL = v
	}
	if v := os.Getenv(EnvQdrantAPIKey); v != "" {
		cfg.Qdrant.APIKey = v
	}
	if v := os.Getenv(EnvCollection); v != "" {
		cfg.Qdrant.Collection = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvChunkSize)); err == nil && v > 0 {
		cfg.Chunking.ChunkSize = v
	}
	if v, err := strconv.Atoi(os.Getenv(EnvOverlap)); err == nil && v >= 0 {
		cfg.Chunking.Overlap = v
	}
}

// Validate checks that the configuration can reach its external services.
func (c *Config) Validate() error {
	if c.Cohere.APIKey == "" {
		return fmt.Errorf("missing Cohere API key: set %s", EnvCohereAPIKey)
	}
	if c.Qdrant.URL == "" {
		return fmt.Errorf("missing Qdrant URL: set %s or qdrant.url in the config file", EnvQdrantURL)
	}
	return nil
}
