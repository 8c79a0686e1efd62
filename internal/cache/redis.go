package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/food-health-score-server/internal/domain"
)

// RedisCache shares scores between server instances.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// cachedScore wraps a score with cache metadata.
type cachedScore struct {
	Score    *domain.HealthScore `json:"score"`
	CachedAt time.Time           `json:"cached_at"`
}

// NewRedisCache connects to the configured Redis instance.
func NewRedisCache(ctx context.Context, config domain.CacheConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCacheFromClient(client, config.DefaultTTL), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{redis: client, defaultTTL: ttl}
}

// Get retrieves a cached score.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.HealthScore, bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached score: %w", err)
	}

	var cached cachedScore
	if err := json.Unmarshal([]byte(val), &cached); err != nil || cached.Score == nil {
		// corrupted entry
		c.redis.Del(ctx, key)
		return nil, false, nil
	}
	return cached.Score, true, nil
}

// Set caches a score for the default TTL.
func (c *RedisCache) Set(ctx context.Context, key string, score *domain.HealthScore) error {
	data, err := json.Marshal(cachedScore{Score: score, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.defaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache score: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
