// Package cache stores finished health scores keyed by a request fingerprint.
//
// A score is a pure function of the product, the caller's options and the asset
// versions in force, so the fingerprint hashes exactly those.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// Defaults applied when the configuration leaves a field empty.
const (
	DefaultTTL      = 24 * time.Hour
	DefaultMaxItems = 10000
	keyPrefix       = "fhs:score:"
)

// Fingerprint returns the cache key for a request scored under the given asset stamps.
func Fingerprint(req domain.ScoreRequest, stamps ...string) (string, error) {
	payload, err := json.Marshal(struct {
		Request domain.ScoreRequest `json:"request"`
		Stamps  []string            `json:"stamps"`
	}{req, stamps})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

// New builds the configured cache. The "none" backend returns a nil cache.
func New(ctx context.Context, config domain.CacheConfig, logger *logrus.Logger) (domain.ScoreCache, error) {
	switch config.Backend {
	case "none":
		return nil, nil
	case "", "memory":
		return NewMemoryCache(config.MaxItems, config.DefaultTTL), nil
	case "redis":
		remote, err := NewRedisCache(ctx, config)
		if err != nil {
			return nil, err
		}
		logger.WithField("ttl", remote.defaultTTL.String()).Info("Redis score cache connected")
		return NewTieredCache(NewMemoryCache(config.MaxItems, config.DefaultTTL), remote, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", config.Backend)
	}
}
