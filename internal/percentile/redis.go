package percentile

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces the per-category hashes.
const DefaultRedisKeyPrefix = "fhs:percentile:"

// RedisStore keeps one hash per category, mapping score to count.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(category string) string {
	return s.prefix + NormalizeCategory(category)
}

// Add records count occurrences of score in category.
func (s *RedisStore) Add(ctx context.Context, category string, score int, count int64) error {
	field := strconv.Itoa(ClampScore(score))
	if err := s.client.HIncrBy(ctx, s.key(category), field, count).Err(); err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	return nil
}

// Histogram returns the category's distribution.
func (s *RedisStore) Histogram(ctx context.Context, category string) (*Histogram, error) {
	fields, err := s.client.HGetAll(ctx, s.key(category)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read histogram: %w", err)
	}

	h := &Histogram{}
	for field, value := range fields {
		score, err := strconv.Atoi(field)
		if err != nil || score < 0 || score > MaxScore {
			continue
		}
		count, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid count for score %s: %w", field, err)
		}
		h[score] += count
	}
	return h, nil
}

// Categories lists recorded categories in sorted order.
func (s *RedisStore) Categories(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan categories: %w", err)
		}
		for _, k := range keys {
			seen[strings.TrimPrefix(k, s.prefix)] = true
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
