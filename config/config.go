package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the docrag tool.
type Config struct {
	Index      IndexConfig      `yaml:"index"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// IndexConfig holds vector index persistence settings.
// File names are relative to the .rag directory.
type IndexConfig struct {
	VectorFile   string `yaml:"vector_file"`
	MetaFile     string `yaml:"meta_file"`
	RegistryFile string `yaml:"registry_file"`
}

// ChunkingConfig holds chunking configuration.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"` // accepted, not applied by section chunking
}

// IngestConfig holds ingestion pipeline configuration.
type IngestConfig struct {
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
	MinChars      int      `yaml:"min_chars"`
	BatchSize     int      `yaml:"batch_size"`
	StoredChars   int      `yaml:"stored_chars"`
	SkipUnchanged bool     `yaml:"skip_unchanged"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "fastembed", "openai", "hash"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
	CacheDir  string `yaml:"cache_dir"`
	CacheSize int    `yaml:"cache_size"`
}

// GenerationConfig holds text generation configuration.
type GenerationConfig struct {
	Provider    string `yaml:"provider"` // "ollama", "openai"
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"` // results must score strictly above this to reach the prompt
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			VectorFile:   "index.bin",
			MetaFile:     "meta.json",
			RegistryFile: "registry.db",
		},
		Chunking: ChunkingConfig{
			MaxTokens:     600,
			OverlapTokens: 100,
		},
		Ingest: IngestConfig{
			Includes:      []string{"**/*.pdf", "**/*.md", "**/*.markdown", "**/*.txt"},
			Excludes:      []string{"**/.git/**", "**/.rag/**", "**/node_modules/**"},
			MinChars:      50,
			BatchSize:     20,
			StoredChars:   1500,
			SkipUnchanged: true,
		},
		Embedding: EmbeddingConfig{
			Provider:  "fastembed",
			Model:     "sentence-transformers/all-MiniLM-L6-v2",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 16,
			CacheSize: 256,
		},
		Generation: GenerationConfig{
			Provider:    "ollama",
			Model:       "gemma:2b",
			BaseURL:     "http://localhost:11434",
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 120,
		},
		Retrieve: RetrieveConfig{
			TopK:     5,
			MinScore: 0.3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for docrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".rag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate reports settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be positive, got %d", c.Ingest.BatchSize)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RAGDir returns the directory holding index state.
func RAGDir(dir string) string {
	return filepath.Join(dir, ".rag")
}

// IndexPath returns the path of the binary vector file.
func (c *Config) IndexPath(dir string) string {
	return filepath.Join(RAGDir(dir), c.Index.VectorFile)
}

// MetaPath returns the path of the JSON metadata file.
func (c *Config) MetaPath(dir string) string {
	return filepath.Join(RAGDir(dir), c.Index.MetaFile)
}

// RegistryPath returns the path of the ingestion registry database.
func (c *Config) RegistryPath(dir string) string {
	return filepath.Join(RAGDir(dir), c.Index.RegistryFile)
}

// EnsureRAGDir ensures the .rag directory exists.
func EnsureRAGDir(dir string) error {
	return os.MkdirAll(RAGDir(dir), 0755)
}
