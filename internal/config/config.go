package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Ledger    LedgerConfig    `toml:"ledger"`
	Engine    EngineConfig    `toml:"engine"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Ingest    IngestConfig    `toml:"ingest"`
	Drive     DriveConfig     `toml:"drive"`
	Observer  ObserverConfig  `toml:"observer"`
}

type LedgerConfig struct {
	Path              string `toml:"path"`
	DefaultCollection string `toml:"default_collection"`
}

type EngineConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	APIKey     string `toml:"api_key"`
}

type IngestConfig struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	Concurrency  int `toml:"concurrency"`
	FetchRetries int `toml:"fetch_retries"`
}

type DriveConfig struct {
	CredentialsFile string `toml:"credentials_file"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Ledger:    LedgerConfig{Path: "vecshelf.json", DefaultCollection: "documents"},
		Engine:    EngineConfig{URL: "http://localhost:19530"},
		Embedding: EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1024},
		Ingest:    IngestConfig{ChunkSize: 500, ChunkOverlap: 0, Concurrency: 4, FetchRetries: 3},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "vecshelf.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("VECSHELF_LEDGER_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("VECSHELF_ENGINE_URL"); v != "" {
		cfg.Engine.URL = v
	}
	if v := os.Getenv("VECSHELF_ENGINE_TOKEN"); v != "" {
		cfg.Engine.Token = v
	}
	if v := os.Getenv("VECSHELF_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("VECSHELF_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("VECSHELF_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("VECSHELF_EMBEDDING_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Embedding.Dimensions = n
		}
	}
	if v := os.Getenv("VECSHELF_DRIVE_CREDENTIALS"); v != "" {
		cfg.Drive.CredentialsFile = v
	}
	if os.Getenv("VECSHELF_OBSERVER_ENABLED") == "true" || os.Getenv("VECSHELF_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	// Gemini's embedding model differs from the OpenAI default; swap it
	// when the provider changed but the model did not. The gemini batch
	// API cannot narrow the output, so the width follows the model's
	// native 3072 unless explicitly configured.
	if cfg.Embedding.Provider == "gemini" && cfg.Embedding.Model == "text-embedding-3-small" {
		cfg.Embedding.Model = "gemini-embedding-001"
		if cfg.Embedding.Dimensions == 1024 {
			cfg.Embedding.Dimensions = 3072
		}
	}

	return cfg
}
