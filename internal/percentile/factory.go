package percentile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// Backends lists the supported store backends.
var Backends = []string{"memory", "sqlite", "postgres", "redis"}

// Dependencies carries shared connections a backend may reuse.
type Dependencies struct {
	Pool     *pgxpool.Pool
	RedisURL string
}

// DefaultSQLitePath returns the default SQLite location under the user's home directory.
func DefaultSQLitePath(home string) string {
	return filepath.Join(home, ".food-health-score", "percentiles.db")
}

// NewStore opens the configured backend.
func NewStore(ctx context.Context, cfg domain.PercentileConfig, deps Dependencies) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("percentile sqlite_path is required")
		}
		return NewSQLiteStore(cfg.SQLitePath)
	case "postgres":
		return NewPostgresStore(ctx, deps.Pool)
	case "redis":
		client, err := newRedisClient(ctx, deps.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.RedisKeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown percentile backend %q", cfg.Backend)
	}
}

func newRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is required for the redis percentile backend")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewTrackerFromConfig opens the configured store and wraps it in a Tracker.
func NewTrackerFromConfig(ctx context.Context, cfg domain.PercentileConfig, deps Dependencies, logger *logrus.Logger) (*Tracker, error) {
	store, err := NewStore(ctx, cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to open percentile store: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"backend":     cfg.Backend,
		"min_samples": cfg.MinSamples,
	}).Info("Percentile tracker ready")

	return NewTracker(store, TrackerConfig{
		MinSamples:       cfg.MinSamples,
		CallTimeout:      cfg.CallTimeout,
		BreakerFailures:  cfg.BreakerFailures,
		BreakerOpenFor:   cfg.BreakerOpenFor,
		BreakerHalfOpens: cfg.BreakerHalfOpens,
	}, logger), nil
}
