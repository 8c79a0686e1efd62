package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/food-health-score-server/internal/assets"
	"github.com/food-health-score-server/internal/domain"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestScorer(t *testing.T, opts ...ScorerOption) *Scorer {
	t.Helper()
	logger := quietLogger()

	table, err := assets.EmbeddedThresholdTable()
	require.NoError(t, err)
	lexicon, err := assets.EmbeddedAdditiveLexicon()
	require.NoError(t, err)
	keywords, err := assets.EmbeddedDietaryKeywords()
	require.NoError(t, err)
	classifier, err := NewKeywordIngredientClassifier(logger, 128)
	require.NoError(t, err)

	return NewScorer(logger, table, lexicon, classifier, keywords, opts...)
}

func newTestNormalizer(t *testing.T) *InputNormalizer {
	t.Helper()
	logger := quietLogger()
	lexicon, err := assets.EmbeddedAdditiveLexicon()
	require.NoError(t, err)
	classifier, err := NewKeywordIngredientClassifier(logger, 128)
	require.NoError(t, err)
	return NewInputNormalizer(logger, classifier, lexicon)
}

// baselineProduct is a moderate per-100 g product well inside every ceiling.
func baselineProduct() domain.Product {
	return domain.Product{
		Name:           "Oat Clusters",
		Calories:       domain.Float(100),
		Protein:        domain.Float(5),
		Carbohydrates:  domain.Float(10),
		Fat:            domain.Float(3),
		SaturatedFat:   domain.Float(1),
		Fiber:          domain.Float(2),
		Sugar:          domain.Float(3),
		Sodium:         domain.Float(10),
		NutritionBasis: string(domain.BasisPer100g),
		Ingredients:    []string{"whole grain oats", "almonds"},
	}
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(name string) domain.IngredientClassification {
	args := m.Called(name)
	return args.Get(0).(domain.IngredientClassification)
}

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) RecordScore(score int, category string) {
	m.Called(score, category)
}

func (m *mockTracker) Percentile(score int, category string) (float64, bool) {
	args := m.Called(score, category)
	return args.Get(0).(float64), args.Bool(1)
}
