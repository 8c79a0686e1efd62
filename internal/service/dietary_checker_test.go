package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food-health-score-server/internal/assets"
	"github.com/food-health-score-server/internal/domain"
)

func newTestDietaryChecker(t *testing.T) *DietaryChecker {
	t.Helper()
	sets, err := assets.EmbeddedDietaryKeywords()
	require.NoError(t, err)
	return NewDietaryChecker(sets)
}

func TestDietaryChecker_Violations(t *testing.T) {
	checker := newTestDietaryChecker(t)

	tests := []struct {
		name         string
		ingredients  []string
		restrictions []domain.DietaryRestriction
		expected     []domain.DietaryRestriction
	}{
		{
			name:         "exempt plant milk",
			ingredients:  []string{"coconut milk", "sugar"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionVegan, domain.RestrictionDairyFree},
			expected:     []domain.DietaryRestriction{},
		},
		{
			name:         "milk chocolate",
			ingredients:  []string{"Milk Chocolate", "sugar"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionVegan, domain.RestrictionVegetarian},
			expected:     []domain.DietaryRestriction{domain.RestrictionVegan},
		},
		{
			name:         "nutmeg is not a nut",
			ingredients:  []string{"nutmeg", "butternut squash"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionNutFree},
			expected:     []domain.DietaryRestriction{},
		},
		{
			name:         "plural keyword",
			ingredients:  []string{"roasted peanuts"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionNutFree},
			expected:     []domain.DietaryRestriction{domain.RestrictionNutFree},
		},
		{
			name:         "buckwheat is gluten free",
			ingredients:  []string{"buckwheat flour", "maltodextrin"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionGlutenFree},
			expected:     []domain.DietaryRestriction{},
		},
		{
			name:         "barley malt",
			ingredients:  []string{"barley malt extract"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionGlutenFree},
			expected:     []domain.DietaryRestriction{domain.RestrictionGlutenFree},
		},
		{
			name:         "gelatin breaks vegetarian",
			ingredients:  []string{"sugar", "gelatin"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionVegetarian, domain.RestrictionVegan},
			expected:     []domain.DietaryRestriction{domain.RestrictionVegetarian, domain.RestrictionVegan},
		},
		{
			name:         "duplicate restrictions reported once",
			ingredients:  []string{"whey", "milk"},
			restrictions: []domain.DietaryRestriction{domain.RestrictionDairyFree, domain.RestrictionDairyFree},
			expected:     []domain.DietaryRestriction{domain.RestrictionDairyFree},
		},
		{
			name:         "no restrictions",
			ingredients:  []string{"milk"},
			restrictions: nil,
			expected:     []domain.DietaryRestriction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.Violations(tt.ingredients, tt.restrictions))
		})
	}
}

func TestDietaryChecker_Details(t *testing.T) {
	checker := newTestDietaryChecker(t)

	found := checker.Check([]string{"water", " Skimmed Milk Powder ", "eggs"}, []domain.DietaryRestriction{domain.RestrictionVegan})

	require.Len(t, found, 1)
	assert.Equal(t, DietaryViolation{
		Restriction: domain.RestrictionVegan,
		Ingredient:  "Skimmed Milk Powder",
		Keyword:     "milk",
	}, found[0])
}

func TestDietaryChecker_NilSets(t *testing.T) {
	checker := NewDietaryChecker(nil)
	assert.Empty(t, checker.Check([]string{"milk"}, domain.AllRestrictions))
}
