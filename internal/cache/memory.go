package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/food-health-score-server/internal/domain"
)

// MemoryCache is an in-process LRU with per-entry expiry.
type MemoryCache struct {
	lru *expirable.LRU[string, *domain.HealthScore]
}

// NewMemoryCache creates a cache holding at most size entries for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultMaxItems
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, *domain.HealthScore](size, nil, ttl)}
}

// Get returns a shallow copy of a cached score, so callers may replace its
// fields without touching the stored entry.
func (c *MemoryCache) Get(_ context.Context, key string) (*domain.HealthScore, bool, error) {
	score, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	cp := *score
	return &cp, true, nil
}

// Set stores a shallow copy of score.
func (c *MemoryCache) Set(_ context.Context, key string, score *domain.HealthScore) error {
	cp := *score
	c.lru.Add(key, &cp)
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
