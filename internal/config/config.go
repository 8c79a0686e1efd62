package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/food-health-score-server/internal/domain"
)

// EnvPrefix is the prefix of environment overrides, e.g. HEALTH_SCORE_SERVER_PORT.
const EnvPrefix = "HEALTH_SCORE"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// Option customizes a Manager.
type Option func(*Manager)

// WithConfigFile reads an explicit file instead of searching the default paths.
func WithConfigFile(path string) Option {
	return func(m *Manager) {
		m.configFile = path
	}
}

// WithViper uses a caller-owned viper instance, e.g. one with cobra flags bound.
func WithViper(v *viper.Viper) Option {
	return func(m *Manager) {
		m.v = v
	}
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.v == nil {
		m.v = viper.New()
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := m.v
	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/food-health-score/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.tls_enabled", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "food_health_score")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "")

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.default_ttl", "24h")
	v.SetDefault("cache.max_items", 10000)
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// MCP defaults
	v.SetDefault("mcp.server_name", "food-health-score")
	v.SetDefault("mcp.server_version", domain.AlgorithmVersion)
	v.SetDefault("mcp.transport_type", "stdio")
	v.SetDefault("mcp.request_timeout", "30s")

	// Scoring defaults; empty asset paths select the embedded assets
	v.SetDefault("scoring.thresholds_path", "")
	v.SetDefault("scoring.additives_path", "")
	v.SetDefault("scoring.dietary_keywords_path", "")
	v.SetDefault("scoring.default_focus", string(domain.FocusBalanced))
	v.SetDefault("scoring.classifier_cache_size", 4096)

	// Percentile defaults
	v.SetDefault("percentile.enabled", true)
	v.SetDefault("percentile.backend", "memory")
	v.SetDefault("percentile.sqlite_path", "./data/percentiles.db")
	v.SetDefault("percentile.redis_key_prefix", "fhs:percentile:")
	v.SetDefault("percentile.min_samples", 20)
	v.SetDefault("percentile.call_timeout", "250ms")
	v.SetDefault("percentile.breaker_failures", 5)
	v.SetDefault("percentile.breaker_open_for", "30s")
	v.SetDefault("percentile.breaker_half_opens", 1)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetScoringConfig returns the scoring asset configuration
func (m *Manager) GetScoringConfig() *domain.ScoringConfig {
	return &m.config.Scoring
}

// GetPercentileConfig returns the percentile tracker configuration
func (m *Manager) GetPercentileConfig() *domain.PercentileConfig {
	return &m.config.Percentile
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.TLSEnabled && (config.Server.CertFile == "" || config.Server.KeyFile == "") {
		return fmt.Errorf("TLS requires cert_file and key_file")
	}

	switch config.Cache.Backend {
	case "memory", "none":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s", config.Cache.Backend)
	}

	if config.Scoring.DefaultFocus != "" {
		if _, err := domain.ParseHealthFocus(config.Scoring.DefaultFocus); err != nil {
			return fmt.Errorf("invalid scoring.default_focus: %w", err)
		}
	}

	if config.Percentile.Enabled {
		switch config.Percentile.Backend {
		case "memory":
		case "sqlite":
			if config.Percentile.SQLitePath == "" {
				return fmt.Errorf("percentile sqlite_path is required for the sqlite backend")
			}
		case "postgres":
			if config.Database.Host == "" {
				return fmt.Errorf("database host is required")
			}
			if config.Database.Database == "" {
				return fmt.Errorf("database name is required")
			}
			if config.Database.Username == "" {
				return fmt.Errorf("database username is required")
			}
		case "redis":
			if config.Cache.RedisURL == "" {
				return fmt.Errorf("Redis URL is required for the redis percentile backend")
			}
		default:
			return fmt.Errorf("invalid percentile backend: %s", config.Percentile.Backend)
		}
		if config.Percentile.MinSamples < 1 {
			return fmt.Errorf("percentile min_samples must be at least 1")
		}
	}

	if config.RateLimit.Enabled && config.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit requests_per_second must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseConnectionString returns a formatted database connection string
func (m *Manager) GetDatabaseConnectionString() string {
	db := m.config.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}

var _ domain.ConfigManager = (*Manager)(nil)
