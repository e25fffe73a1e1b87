// Package config provides configuration loading and structs for the fastcos server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/fastcos/internal/codec"
	"github.com/hyperjump/fastcos/internal/vector"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Scoring ScoringConfig `yaml:"scoring"`
	Search  SearchConfig  `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the segment database and the name index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// ScoringConfig holds vector scoring settings.
type ScoringConfig struct {
	// DefaultMode applies when a script sets neither cosine nor mode.
	DefaultMode string `yaml:"default_mode"`
	// ByteOrder of stored and encoded vectors: "big" or "little".
	ByteOrder string `yaml:"byte_order"`
	// QueryCacheSize is the number of parsed query vectors kept. Negative disables the cache.
	QueryCacheSize int `yaml:"query_cache_size"`
	MaxDimensions  int `yaml:"max_dimensions"`
}

// SearchConfig holds search settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// MaxCandidates caps the documents taken from the name index before scoring.
	MaxCandidates int `yaml:"max_candidates"`
}

// Mode returns the parsed default scoring mode.
func (s ScoringConfig) Mode() (vector.Mode, error) {
	return vector.ParseMode(s.DefaultMode)
}

// Codec returns the codec for the configured byte order.
func (s ScoringConfig) Codec() (codec.Codec, error) {
	return codec.ForByteOrder(s.ByteOrder)
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := c.Scoring.Mode(); err != nil {
		return fmt.Errorf("scoring.default_mode: %w", err)
	}
	if _, err := c.Scoring.Codec(); err != nil {
		return fmt.Errorf("scoring.byte_order: %w", err)
	}
	if c.Scoring.MaxDimensions < 0 {
		return fmt.Errorf("scoring.max_dimensions must not be negative")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit %d exceeds search.max_limit %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.MaxCandidates < c.Search.MaxLimit {
		return fmt.Errorf("search.max_candidates %d is below search.max_limit %d", c.Search.MaxCandidates, c.Search.MaxLimit)
	}
	return nil
}

// Load reads and parses the config file at path, expands paths, applies defaults, and validates.
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path.
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

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
