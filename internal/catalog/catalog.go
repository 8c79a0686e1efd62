// Package catalog builds a scored essentials catalog from an Open Food Facts
// tab-separated data dump.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// Defaults for Options.
const (
	DefaultCountry = "united-states"
	DefaultLimit   = 5000
	Version        = "1.0.0"
)

// ProductScorer scores one request.
type ProductScorer interface {
	Score(req domain.ScoreRequest) *domain.HealthScore
}

// Options controls catalog generation.
type Options struct {
	Country string
	Limit   int
	Workers int
}

func (o Options) withDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// Nutrition is the per-100 g nutrition block of a catalog entry. Sodium is in mg.
type Nutrition struct {
	Calories      *float64 `json:"calories,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	SaturatedFat  *float64 `json:"saturatedFat,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
}

// Entry is one scored catalog product.
type Entry struct {
	Barcode     string         `json:"barcode"`
	Name        string         `json:"name"`
	Brand       string         `json:"brand,omitempty"`
	Category    string         `json:"category"`
	Nutrition   Nutrition      `json:"nutrition"`
	ServingSize string         `json:"servingSize,omitempty"`
	Ingredients []string       `json:"ingredients,omitempty"`
	Score       int            `json:"score"`
	Grade       domain.Grade   `json:"grade"`
	Verdict     domain.Verdict `json:"verdict"`
}

// Catalog is the generated document.
type Catalog struct {
	Version          string    `json:"version"`
	AlgorithmVersion string    `json:"algorithmVersion"`
	GeneratedAt      time.Time `json:"generatedAt"`
	ProductCount     int       `json:"productCount"`
	Products         []Entry   `json:"products"`
}

// Stats summarizes one generation run.
type Stats struct {
	Read     int `json:"read"`
	Accepted int `json:"accepted"`
	Filtered int `json:"filtered"`
	Rejected int `json:"rejected"`
	Selected int `json:"selected"`
}

// Generator turns dump rows into a scored catalog.
type Generator struct {
	scorer ProductScorer
	logger *logrus.Logger
}

// NewGenerator creates a generator.
func NewGenerator(scorer ProductScorer, logger *logrus.Logger) *Generator {
	return &Generator{scorer: scorer, logger: logger}
}

// Generate reads the dump, keeps the most scanned products and scores them.
func (g *Generator) Generate(ctx context.Context, r io.Reader, opts Options) (*Catalog, Stats, error) {
	opts = opts.withDefaults()

	rows, stats, err := g.readRows(ctx, r, opts.Country)
	if err != nil {
		return nil, stats, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Scans > rows[j].Scans
	})
	if len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	stats.Selected = len(rows)

	g.logger.WithFields(logrus.Fields{
		"accepted": stats.Accepted,
		"filtered": stats.Filtered,
		"rejected": stats.Rejected,
		"selected": stats.Selected,
	}).Info("Selected catalog products")

	entries, err := g.scoreAll(ctx, rows, opts.Workers)
	if err != nil {
		return nil, stats, err
	}

	return &Catalog{
		Version:          Version,
		AlgorithmVersion: domain.AlgorithmVersion,
		GeneratedAt:      time.Now().UTC(),
		ProductCount:     len(entries),
		Products:         entries,
	}, stats, nil
}

func (g *Generator) readRows(ctx context.Context, r io.Reader, country string) ([]Row, Stats, error) {
	var stats Stats
	reader, err := NewReader(r, country)
	if err != nil {
		return nil, stats, err
	}

	var rows []Row
	for {
		if stats.Read%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		row, status, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read dump after %d records: %w", stats.Read, err)
		}
		stats.Read++

		switch status {
		case Accepted:
			stats.Accepted++
			rows = append(rows, row)
		case Filtered:
			stats.Filtered++
		default:
			stats.Rejected++
		}
	}
	return rows, stats, nil
}

// scoreAll scores rows on a fixed worker pool, keeping input order.
func (g *Generator) scoreAll(ctx context.Context, rows []Row, workers int) ([]Entry, error) {
	entries := make([]Entry, len(rows))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				entries[i] = g.entry(rows[i].Product)
			}
		}()
	}

	var err error
feed:
	for i := range rows {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (g *Generator) entry(p domain.Product) Entry {
	score := g.scorer.Score(domain.ScoreRequest{Product: p})
	return Entry{
		Barcode:  p.Barcode,
		Name:     p.Name,
		Brand:    p.Brand,
		Category: p.Category,
		Nutrition: Nutrition{
			Calories:      p.Calories,
			Protein:       p.Protein,
			Carbohydrates: p.Carbohydrates,
			Fat:           p.Fat,
			SaturatedFat:  p.SaturatedFat,
			Fiber:         p.Fiber,
			Sugar:         p.Sugar,
			Sodium:        p.Sodium,
		},
		ServingSize: p.ServingSize,
		Ingredients: p.Ingredients,
		Score:       score.Overall,
		Grade:       score.Grade,
		Verdict:     score.Verdict,
	}
}

// WriteJSON writes the catalog as indented JSON.
func WriteJSON(w io.Writer, catalog *Catalog) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(catalog); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}
