// Package percentile provides the category percentile tracker: an append-only
// accumulator of final scores per product category.
//
// Scores are integers in [0, 100], so every backend keeps a 101-bucket histogram
// per category. The percentile of a score is the share of recorded scores in the
// same category that are strictly lower.
package percentile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// MaxScore is the highest recordable score.
const MaxScore = 100

// DefaultCategory is used for blank category keys.
const DefaultCategory = "other"

// Histogram counts recorded scores by value.
type Histogram [MaxScore + 1]int64

// Total returns the number of recorded scores.
func (h *Histogram) Total() int64 {
	var total int64
	for _, c := range h {
		total += c
	}
	return total
}

// Below returns how many recorded scores are strictly lower than score.
func (h *Histogram) Below(score int) int64 {
	score = ClampScore(score)
	var below int64
	for s := 0; s < score; s++ {
		below += h[s]
	}
	return below
}

// Percentile returns the share of recorded scores below score, in percent.
func (h *Histogram) Percentile(score int) float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	return float64(h.Below(score)) / float64(total) * 100
}

// Store defines the interface for percentile storage backends.
type Store interface {
	// Add records count occurrences of score in category.
	Add(ctx context.Context, category string, score int, count int64) error

	// Histogram returns the score distribution of a category. Unknown categories
	// yield an empty histogram.
	Histogram(ctx context.Context, category string) (*Histogram, error)

	// Categories lists every category with at least one recorded score.
	Categories(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// ClampScore restricts score to [0, MaxScore].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// NormalizeCategory lower-cases and trims a category key.
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return DefaultCategory
	}
	return category
}

// Export is the JSON snapshot format used to move distributions between backends.
type Export struct {
	Version    string                `json:"version"`
	ExportedAt time.Time             `json:"exported_at"`
	Categories map[string][]ScoreCnt `json:"categories"`
}

// ScoreCnt is one non-empty histogram bucket.
type ScoreCnt struct {
	Score int   `json:"score"`
	Count int64 `json:"count"`
}

// ExportJSON writes every category histogram of store to writer.
func ExportJSON(ctx context.Context, store Store, writer io.Writer) error {
	categories, err := store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
		Categories: make(map[string][]ScoreCnt, len(categories)),
	}
	for _, category := range categories {
		h, err := store.Histogram(ctx, category)
		if err != nil {
			return fmt.Errorf("failed to read %s histogram: %w", category, err)
		}
		var buckets []ScoreCnt
		for score, count := range h {
			if count > 0 {
				buckets = append(buckets, ScoreCnt{Score: score, Count: count})
			}
		}
		export.Categories[category] = buckets
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON adds an exported snapshot to store and returns the number of scores added.
func ImportJSON(ctx context.Context, store Store, reader io.Reader) (int64, error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	var imported int64
	for category, buckets := range export.Categories {
		for _, b := range buckets {
			if b.Count <= 0 || b.Score < 0 || b.Score > MaxScore {
				continue
			}
			if err := store.Add(ctx, category, b.Score, b.Count); err != nil {
				return imported, fmt.Errorf("failed to import %s: %w", category, err)
			}
			imported += b.Count
		}
	}
	return imported, nil
}
