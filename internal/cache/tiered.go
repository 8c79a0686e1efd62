package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// TieredCache reads through a local cache to a shared one and backfills local
// entries on remote hits. Remote errors are logged and treated as misses.
type TieredCache struct {
	local  domain.ScoreCache
	remote domain.ScoreCache
	logger *logrus.Logger
}

// NewTieredCache combines a local and a remote cache.
func NewTieredCache(local, remote domain.ScoreCache, logger *logrus.Logger) *TieredCache {
	return &TieredCache{local: local, remote: remote, logger: logger}
}

// Get checks the local tier first.
func (c *TieredCache) Get(ctx context.Context, key string) (*domain.HealthScore, bool, error) {
	if score, ok, _ := c.local.Get(ctx, key); ok {
		return score, true, nil
	}

	score, ok, err := c.remote.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).Warn("Remote score cache unavailable")
		return nil, false, nil
	}
	if ok {
		_ = c.local.Set(ctx, key, score)
	}
	return score, ok, nil
}

// Set writes both tiers.
func (c *TieredCache) Set(ctx context.Context, key string, score *domain.HealthScore) error {
	_ = c.local.Set(ctx, key, score)
	if err := c.remote.Set(ctx, key, score); err != nil {
		c.logger.WithError(err).Warn("Failed to write remote score cache")
	}
	return nil
}
