package percentile

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite percentile store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers run while a score is being recorded
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	store, err := NewSQLiteStoreFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.dbPath = dbPath
	return store, nil
}

// NewSQLiteStoreFromDB wraps an already opened database and ensures the schema exists.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS score_counts (
		category TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (category, score)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Add records count occurrences of score in category.
func (s *SQLiteStore) Add(ctx context.Context, category string, score int, count int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO score_counts (category, score, count) VALUES (?, ?, ?)
		ON CONFLICT (category, score) DO UPDATE SET count = count + excluded.count
	`, NormalizeCategory(category), ClampScore(score), count)
	if err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	return nil
}

// Histogram returns the category's distribution.
func (s *SQLiteStore) Histogram(ctx context.Context, category string) (*Histogram, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT score, count FROM score_counts WHERE category = ?",
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
func (s *SQLiteStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
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

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
