package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	MCP         MCPConfig        `mapstructure:"mcp"`
	Scoring     ScoringConfig    `mapstructure:"scoring"`
	Percentile  PercentileConfig `mapstructure:"percentile"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TLSEnabled     bool          `mapstructure:"tls_enabled"`
	CertFile       string        `mapstructure:"cert_file"`
	KeyFile        string        `mapstructure:"key_file"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig represents score cache configuration
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"` // "memory", "redis", "none"
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxItems    int           `mapstructure:"max_items"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName     string        `mapstructure:"server_name"`
	ServerVersion  string        `mapstructure:"server_version"`
	TransportType  string        `mapstructure:"transport_type"` // "stdio"
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ScoringConfig points at the versioned scoring assets. Empty paths select the
// embedded defaults.
type ScoringConfig struct {
	ThresholdsPath      string `mapstructure:"thresholds_path"`
	AdditivesPath       string `mapstructure:"additives_path"`
	DietaryKeywordsPath string `mapstructure:"dietary_keywords_path"`
	DefaultFocus        string `mapstructure:"default_focus"`
	ClassifierCacheSize int    `mapstructure:"classifier_cache_size"`
}

// PercentileConfig selects and tunes the percentile tracker backend.
type PercentileConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Backend          string        `mapstructure:"backend"` // "memory", "sqlite", "postgres", "redis"
	SQLitePath       string        `mapstructure:"sqlite_path"`
	RedisKeyPrefix   string        `mapstructure:"redis_key_prefix"`
	MinSamples       int           `mapstructure:"min_samples"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
	BreakerFailures  uint32        `mapstructure:"breaker_failures"`
	BreakerOpenFor   time.Duration `mapstructure:"breaker_open_for"`
	BreakerHalfOpens uint32        `mapstructure:"breaker_half_opens"`
}

// RateLimitConfig represents per-client request rate limiting
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}
