package percentile

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Tracker defaults.
const (
	DefaultMinSamples       = 20
	DefaultCallTimeout      = 250 * time.Millisecond
	DefaultBreakerFailures  = 5
	DefaultBreakerOpenFor   = 30 * time.Second
	DefaultBreakerHalfOpens = 1
)

// TrackerConfig tunes the tracker.
type TrackerConfig struct {
	MinSamples       int
	CallTimeout      time.Duration
	BreakerFailures  uint32
	BreakerOpenFor   time.Duration
	BreakerHalfOpens uint32
}

func (c TrackerConfig) withDefaults() TrackerConfig {
	if c.MinSamples <= 0 {
		c.MinSamples = DefaultMinSamples
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = DefaultBreakerFailures
	}
	if c.BreakerOpenFor <= 0 {
		c.BreakerOpenFor = DefaultBreakerOpenFor
	}
	if c.BreakerHalfOpens == 0 {
		c.BreakerHalfOpens = DefaultBreakerHalfOpens
	}
	return c
}

// Lookup is the detailed answer for one score in one category.
type Lookup struct {
	Category   string  `json:"category"`
	Score      int     `json:"score"`
	Samples    int64   `json:"samples"`
	Below      int64   `json:"below"`
	Percentile float64 `json:"percentile"`
	Available  bool    `json:"available"`
}

// Tracker accumulates scores in a Store and answers percentile queries.
// Every store call runs behind a circuit breaker with a deadline, and any
// failure is logged and reported as "no percentile".
type Tracker struct {
	store   Store
	breaker *gobreaker.CircuitBreaker
	config  TrackerConfig
	logger  *logrus.Logger
}

// NewTracker creates a tracker over store.
func NewTracker(store Store, config TrackerConfig, logger *logrus.Logger) *Tracker {
	config = config.withDefaults()
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "percentile-store",
		MaxRequests: config.BreakerHalfOpens,
		Timeout:     config.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Percentile store circuit breaker changed state")
		},
	})

	return &Tracker{
		store:   store,
		breaker: breaker,
		config:  config,
		logger:  logger,
	}
}

// RecordScore adds a final score to its category.
func (t *Tracker) RecordScore(score int, category string) {
	category = NormalizeCategory(category)
	_, err := t.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), t.config.CallTimeout)
		defer cancel()
		return nil, t.store.Add(ctx, category, ClampScore(score), 1)
	})
	if err != nil {
		t.logger.WithError(err).WithFields(logrus.Fields{
			"category": category,
			"score":    score,
		}).Warn("Failed to record score")
	}
}

// Percentile returns the share of the category scoring below score, once the
// category holds at least the configured minimum of samples.
func (t *Tracker) Percentile(score int, category string) (float64, bool) {
	category = NormalizeCategory(category)
	lookup, err := t.Lookup(context.Background(), score, category)
	if err != nil {
		t.logger.WithError(err).WithField("category", category).Warn("Percentile unavailable")
		return 0, false
	}
	return lookup.Percentile, lookup.Available
}

// Lookup returns the detailed percentile answer.
func (t *Tracker) Lookup(ctx context.Context, score int, category string) (*Lookup, error) {
	category = NormalizeCategory(category)
	score = ClampScore(score)

	result, err := t.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, t.config.CallTimeout)
		defer cancel()
		return t.store.Histogram(callCtx, category)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s histogram: %w", category, err)
	}

	h := result.(*Histogram)
	lookup := &Lookup{
		Category: category,
		Score:    score,
		Samples:  h.Total(),
		Below:    h.Below(score),
	}
	if lookup.Samples >= int64(t.config.MinSamples) {
		lookup.Available = true
		lookup.Percentile = float64(lookup.Below) / float64(lookup.Samples) * 100
	}
	return lookup, nil
}

// Categories lists the categories known to the store.
func (t *Tracker) Categories(ctx context.Context) ([]string, error) {
	return t.store.Categories(ctx)
}

// Store returns the underlying store.
func (t *Tracker) Store() Store {
	return t.store
}

// State reports the breaker state.
func (t *Tracker) State() string {
	return t.breaker.State().String()
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	return t.store.Close()
}
