package percentile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using PostgreSQL.
// It expects the score_counts table to already exist (created via migrations).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL percentile store.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Add records count occurrences of score in category.
func (s *PostgresStore) Add(ctx context.Context, category string, score int, count int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO score_counts (category, score, count) VALUES ($1, $2, $3)
		ON CONFLICT (category, score) DO UPDATE SET count = score_counts.count + EXCLUDED.count
	`, NormalizeCategory(category), ClampScore(score), count)
	if err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	return nil
}

// Histogram returns the category's distribution.
func (s *PostgresStore) Histogram(ctx context.Context, category string) (*Histogram, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT score, count FROM score_counts WHERE category = $1",
		NormalizeCategory(category),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query histogram: %w", err)
	}
	defer rows.Close()

	h := &Histogram{}
	for rows.Next() {
		var score int
		var count int64
		if err := rows.Scan(&score, &count); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		h[ClampScore(score)] += count
	}
	return h, rows.Err()
}

// Categories lists recorded categories in sorted order.
func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT DISTINCT category FROM score_counts WHERE count > 0 ORDER BY category",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close is a no-op; the pool is owned by the database connection.
func (s *PostgresStore) Close() error {
	return nil
}
