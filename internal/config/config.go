// Package config provides configuration loading for riskcore.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates a configuration value failed validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root configuration for the riskcore service.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Risk        RiskConfig        `koanf:"risk"`
	Storage     StorageConfig     `koanf:"storage"`
	Training    TrainingConfig    `koanf:"training"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
	File   string `koanf:"file"`   // optional rotating log file path
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	Provider string        `koanf:"provider"` // fastembed or tei
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"` // tei only
	CacheDir string        `koanf:"cache_dir"`
	Timeout  time.Duration `koanf:"timeout"`
}

// VectorStoreConfig controls the clause similarity index.
type VectorStoreConfig struct {
	DataDir string `koanf:"data_dir"`
}

// RiskConfig controls the risk classifier.
type RiskConfig struct {
	ModelPath    string  `koanf:"model_path"`
	Rounds       int     `koanf:"rounds"`
	MaxDepth     int     `koanf:"max_depth"`
	LearningRate float64 `koanf:"learning_rate"`
}

// StorageConfig points at the historical contract database.
type StorageConfig struct {
	DSN string `koanf:"dsn"`
}

// TrainingConfig controls training data assembly.
type TrainingConfig struct {
	BatchSize int `koanf:"batch_size"`
}

// ApplyDefaults fills in defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Embeddings.Provider == "" {
		c.Embeddings.Provider = "fastembed"
	}
	if c.Embeddings.Model == "" {
		c.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.Embeddings.BaseURL == "" {
		c.Embeddings.BaseURL = "http://localhost:8080"
	}
	if c.Embeddings.Timeout == 0 {
		c.Embeddings.Timeout = 30 * time.Second
	}

	if c.VectorStore.DataDir == "" {
		c.VectorStore.DataDir = "data/embeddings"
	}

	if c.Risk.ModelPath == "" {
		c.Risk.ModelPath = "data/models/risk_model.gob"
	}
	if c.Risk.Rounds == 0 {
		c.Risk.Rounds = 100
	}
	if c.Risk.MaxDepth == 0 {
		c.Risk.MaxDepth = 6
	}
	if c.Risk.LearningRate == 0 {
		c.Risk.LearningRate = 0.1
	}

	if c.Training.BatchSize == 0 {
		c.Training.BatchSize = 500
	}
}

// Validate checks cross-field constraints after defaults are applied.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	switch c.Embeddings.Provider {
	case "fastembed", "tei":
	default:
		return fmt.Errorf("%w: unknown embeddings provider %q", ErrInvalidConfig, c.Embeddings.Provider)
	}
	if c.Embeddings.Provider == "tei" && c.Embeddings.BaseURL == "" {
		return fmt.Errorf("%w: tei provider requires base_url", ErrInvalidConfig)
	}

	if c.Risk.Rounds < 1 {
		return fmt.Errorf("%w: risk rounds must be positive", ErrInvalidConfig)
	}
	if c.Risk.MaxDepth < 1 {
		return fmt.Errorf("%w: risk max_depth must be positive", ErrInvalidConfig)
	}
	if c.Risk.LearningRate <= 0 || c.Risk.LearningRate > 1 {
		return fmt.Errorf("%w: risk learning_rate must be in (0, 1]", ErrInvalidConfig)
	}

	if c.Training.BatchSize < 1 {
		return fmt.Errorf("%w: training batch_size must be positive", ErrInvalidConfig)
	}
	return nil
}
