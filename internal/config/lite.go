// Package config provides configuration management for the scoring servers.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/food-health-score-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external databases and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files

	// Cache settings
	CacheMaxItems int           // Maximum items in memory cache
	CacheTTL      time.Duration // Default cache TTL

	// Scoring assets; empty selects the embedded copies
	ThresholdsPath      string
	AdditivesPath       string
	DietaryKeywordsPath string
	DefaultFocus        string

	// Percentile tracking
	PercentileEnabled    bool
	PercentileMinSamples int

	// Transport settings
	Transport string // Transport type: stdio
	HTTPPort  int

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".food-health-score")

	return &LiteConfig{
		DataDir:              dataDir,
		CacheMaxItems:        1000,
		CacheTTL:             24 * time.Hour,
		DefaultFocus:         string(domain.FocusBalanced),
		PercentileEnabled:    true,
		PercentileMinSamples: 20,
		Transport:            "stdio",
		HTTPPort:             8080,
		LogLevel:             "info",
		LogFormat:            "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("FHS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("FHS_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("FHS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	cfg.ThresholdsPath = os.Getenv("FHS_THRESHOLDS_PATH")
	cfg.AdditivesPath = os.Getenv("FHS_ADDITIVES_PATH")
	cfg.DietaryKeywordsPath = os.Getenv("FHS_DIETARY_KEYWORDS_PATH")
	if v := os.Getenv("FHS_DEFAULT_FOCUS"); v != "" {
		cfg.DefaultFocus = v
	}

	if v := os.Getenv("FHS_PERCENTILE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PercentileEnabled = b
		}
	}
	if v := os.Getenv("FHS_PERCENTILE_MIN_SAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PercentileMinSamples = n
		}
	}

	if v := os.Getenv("FHS_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("FHS_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	if v := os.Getenv("FHS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FHS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// PercentileDBPath returns the path to the percentile SQLite database.
func (c *LiteConfig) PercentileDBPath() string {
	return filepath.Join(c.DataDir, "percentiles.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// ScoringConfig maps the lite settings onto the scoring asset configuration.
func (c *LiteConfig) ScoringConfig() domain.ScoringConfig {
	return domain.ScoringConfig{
		ThresholdsPath:      c.ThresholdsPath,
		AdditivesPath:       c.AdditivesPath,
		DietaryKeywordsPath: c.DietaryKeywordsPath,
		DefaultFocus:        c.DefaultFocus,
		ClassifierCacheSize: c.CacheMaxItems,
	}
}

// PercentileConfig maps the lite settings onto a SQLite-backed tracker.
func (c *LiteConfig) PercentileConfig() domain.PercentileConfig {
	return domain.PercentileConfig{
		Enabled:    c.PercentileEnabled,
		Backend:    "sqlite",
		SQLitePath: c.PercentileDBPath(),
		MinSamples: c.PercentileMinSamples,
	}
}

// DomainConfig expands the lite settings into a full configuration with an
// in-memory score cache and no external services.
func (c *LiteConfig) DomainConfig() *domain.Config {
	return &domain.Config{
		Environment: "development",
		Cache: domain.CacheConfig{
			Backend:    "memory",
			DefaultTTL: c.CacheTTL,
			MaxItems:   c.CacheMaxItems,
		},
		Logging: domain.LoggingConfig{
			Level:  c.LogLevel,
			Format: c.LogFormat,
			Output: "stderr",
		},
		MCP: domain.MCPConfig{
			ServerName:    "food-health-score-lite",
			TransportType: c.Transport,
		},
		Scoring:    c.ScoringConfig(),
		Percentile: c.PercentileConfig(),
	}
}
