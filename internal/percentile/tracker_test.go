package percentile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food-health-score-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

// failingStore fails every call and counts how often it was reached.
type failingStore struct {
	mu    sync.Mutex
	calls int
}

func (f *failingStore) hit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("connection refused")
}

func (f *failingStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *failingStore) Add(context.Context, string, int, int64) error { return f.hit() }
func (f *failingStore) Histogram(context.Context, string) (*Histogram, error) {
	return nil, f.hit()
}
func (f *failingStore) Categories(context.Context) ([]string, error) { return nil, f.hit() }
func (f *failingStore) Close() error                                { return nil }

// slowStore blocks until the call deadline expires.
type slowStore struct{ *MemoryStore }

func (s *slowStore) Histogram(ctx context.Context, _ string) (*Histogram, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

var _ domain.PercentileTracker = (*Tracker)(nil)

func TestTracker_MinSamples(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), TrackerConfig{MinSamples: 4}, testLogger())

	for _, s := range []int{20, 40, 60} {
		tracker.RecordScore(s, "Snack")
	}
	_, ok := tracker.Percentile(50, "snack")
	assert.False(t, ok, "three samples are below the minimum")

	tracker.RecordScore(80, "snack")
	pct, ok := tracker.Percentile(50, "snack")
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 1e-9)

	pct, ok = tracker.Percentile(20, "snack")
	require.True(t, ok)
	assert.InDelta(t, 0.0, pct, 1e-9, "equal scores do not count as below")

	_, ok = tracker.Percentile(50, "cheese")
	assert.False(t, ok, "categories are tracked separately")
}

func TestTracker_Lookup(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), TrackerConfig{MinSamples: 2}, testLogger())
	tracker.RecordScore(30, "")
	tracker.RecordScore(70, "other")

	lookup, err := tracker.Lookup(context.Background(), 71, "OTHER")
	require.NoError(t, err)
	assert.Equal(t, &Lookup{
		Category:   "other",
		Score:      71,
		Samples:    2,
		Below:      2,
		Percentile: 100,
		Available:  true,
	}, lookup)

	categories, err := tracker.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, categories)
}

func TestTracker_BreakerOpensOnFailures(t *testing.T) {
	store := &failingStore{}
	tracker := NewTracker(store, TrackerConfig{
		MinSamples:      1,
		BreakerFailures: 3,
		BreakerOpenFor:  time.Minute,
	}, testLogger())

	for i := 0; i < 3; i++ {
		_, ok := tracker.Percentile(50, "snack")
		assert.False(t, ok)
	}
	assert.Equal(t, 3, store.Calls())
	assert.Equal(t, "open", tracker.State())

	tracker.RecordScore(50, "snack")
	_, ok := tracker.Percentile(50, "snack")
	assert.False(t, ok)
	assert.Equal(t, 3, store.Calls(), "open breaker short-circuits the store")
}

func TestTracker_LogsStoreFailuresAtWarn(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	tracker := NewTracker(&failingStore{}, TrackerConfig{MinSamples: 1}, logger)

	tracker.RecordScore(42, " Snack ")
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Failed to record score", entry.Message)
	assert.Equal(t, "snack", entry.Data["category"])
	assert.Error(t, entry.Data[logrus.ErrorKey].(error))

	hook.Reset()
	_, ok := tracker.Percentile(42, "Beverage")
	assert.False(t, ok)
	require.Len(t, hook.AllEntries(), 1)
	entry = hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Percentile unavailable", entry.Message)
	assert.Equal(t, "beverage", entry.Data["category"])
}

func TestTracker_CallTimeout(t *testing.T) {
	store := &slowStore{MemoryStore: NewMemoryStore()}
	tracker := NewTracker(store, TrackerConfig{
		MinSamples:  1,
		CallTimeout: 10 * time.Millisecond,
	}, testLogger())

	start := time.Now()
	_, ok := tracker.Percentile(50, "snack")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(NewMemoryStore(), TrackerConfig{MinSamples: 1}, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			tracker.RecordScore(score, "snack")
			tracker.Percentile(score, "snack")
		}(i * 2)
	}
	wg.Wait()

	lookup, err := tracker.Lookup(context.Background(), 100, "snack")
	require.NoError(t, err)
	assert.Equal(t, int64(50), lookup.Samples)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewStore(ctx, domain.PercentileConfig{Backend: "memory"}, Dependencies{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(ctx, domain.PercentileConfig{Backend: "sqlite"}, Dependencies{})
	assert.Error(t, err)

	_, err = NewStore(ctx, domain.PercentileConfig{Backend: "postgres"}, Dependencies{})
	assert.Error(t, err)

	_, err = NewStore(ctx, domain.PercentileConfig{Backend: "redis"}, Dependencies{})
	assert.Error(t, err)

	_, err = NewStore(ctx, domain.PercentileConfig{Backend: "cassandra"}, Dependencies{})
	assert.Error(t, err)

	tracker, err := NewTrackerFromConfig(ctx, domain.PercentileConfig{}, Dependencies{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultMinSamples, tracker.config.MinSamples)
	assert.Equal(t, "closed", tracker.State())
	require.NoError(t, tracker.Close())
}
