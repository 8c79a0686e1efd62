package percentile

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps histograms in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	histograms map[string]*Histogram
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{histograms: make(map[string]*Histogram)}
}

// Add records count occurrences of score in category.
func (s *MemoryStore) Add(_ context.Context, category string, score int, count int64) error {
	category = NormalizeCategory(category)
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histograms[category]
	if !ok {
		h = &Histogram{}
		s.histograms[category] = h
	}
	h[ClampScore(score)] += count
	return nil
}

// Histogram returns a copy of the category's distribution.
func (s *MemoryStore) Histogram(_ context.Context, category string) (*Histogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &Histogram{}
	if h, ok := s.histograms[NormalizeCategory(category)]; ok {
		*out = *h
	}
	return out, nil
}

// Categories lists recorded categories in sorted order.
func (s *MemoryStore) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.histograms))
	for c := range s.histograms {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
