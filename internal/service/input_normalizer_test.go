package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food-health-score-server/internal/domain"
)

func TestNormalizeIngredientName(t *testing.T) {
	tests := map[string]string{
		"  Enriched Flour (Wheat Flour, Niacin). ": "enriched flour",
		"Sugar*":                                   "sugar",
		"Sea   Salt":                               "sea salt",
		"Cocoa [processed with alkali]":            "cocoa",
		"(contains 2% or less)":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeIngredientName(in), in)
	}
}

func TestInputNormalizer_PerServingWithGrams(t *testing.T) {
	n := newTestNormalizer(t)
	p := &domain.Product{
		Name:         "Granola",
		Category:     "Breakfast cereals",
		Calories:     domain.Float(200),
		Protein:      domain.Float(4),
		SaturatedFat: domain.Float(1),
		Fiber:        domain.Float(3),
		Sugar:        domain.Float(10),
		Sodium:       domain.Float(100),
		ServingSize:  "1/2 cup (50 g)",
	}

	input := n.Normalize(p, domain.FocusBalanced)

	assert.Equal(t, domain.CategoryBreakfastCereal, input.Category)
	assert.False(t, input.IsBeverage)
	assert.Equal(t, domain.BasisPer100g, input.CanonicalBasis)
	require.NotNil(t, input.Density.Per100g)
	assert.Nil(t, input.Density.Per100ml)
	assert.InDelta(t, 20, *input.Canonical.Sugar, 1e-9)
	assert.InDelta(t, 200, *input.Canonical.SodiumMg, 1e-9)
	assert.InDelta(t, 400*domain.KilojoulesPerKilocalorie, *input.EnergyKJ, 1e-9)
	assert.InDelta(t, 10, *input.Density.PerServing.Sugar, 1e-9)
	assert.Equal(t, domain.DataConfidenceHigh, input.Density.Confidence)
	assert.Empty(t, input.Density.MissingFields)
	assert.Contains(t, input.Density.Notes, noteDerivedFromMass)
}

func TestInputNormalizer_BeverageVolumeOnly(t *testing.T) {
	n := newTestNormalizer(t)
	p := &domain.Product{
		Name:         "Cola",
		Category:     "Soft drinks",
		Calories:     domain.Float(140),
		Protein:      domain.Float(0),
		SaturatedFat: domain.Float(0),
		Fiber:        domain.Float(0),
		Sugar:        domain.Float(39),
		Sodium:       domain.Float(45),
		ServingSize:  "12 fl oz (355 mL)",
	}

	input := n.Normalize(p, domain.FocusBalanced)

	assert.True(t, input.IsBeverage)
	assert.Equal(t, domain.BasisPer100ml, input.CanonicalBasis)
	require.NotNil(t, input.Density.Per100ml)
	require.NotNil(t, input.Density.Per100g)
	assert.InDelta(t, 39*100/355.0, *input.Density.Per100ml.Sugar, 1e-9)
	assert.Equal(t, *input.Density.Per100ml.Sugar, *input.Density.Per100g.Sugar)
	assert.Contains(t, input.Density.Notes, noteWaterDensity)
}

func TestInputNormalizer_SolidNeverAssumesWaterDensity(t *testing.T) {
	n := newTestNormalizer(t)
	p := &domain.Product{
		Name:        "Cereal",
		Category:    "cereal",
		Calories:    domain.Float(110),
		Sugar:       domain.Float(6),
		ServingSize: "1 cup (240 ml)",
		IsBeverage:  domain.Bool(false),
	}

	input := n.Normalize(p, domain.FocusBalanced)

	assert.False(t, input.IsBeverage)
	assert.Nil(t, input.Density.Per100g)
	assert.NotNil(t, input.Density.Per100ml)
	assert.NotContains(t, input.Density.Notes, noteWaterDensity)
}

func TestInputNormalizer_UnparseableServing(t *testing.T) {
	n := newTestNormalizer(t)
	p := &domain.Product{
		Name:         "Mystery Bites",
		Calories:     domain.Float(120),
		Protein:      domain.Float(2),
		SaturatedFat: domain.Float(1),
		Fiber:        domain.Float(1),
		Sugar:        domain.Float(8),
		Sodium:       domain.Float(50),
		ServingSize:  "3 pieces",
	}

	input := n.Normalize(p, domain.FocusBalanced)

	assert.Equal(t, domain.BasisAssumed100, input.CanonicalBasis)
	assert.Equal(t, domain.DataConfidenceLow, input.Density.Confidence)
	assert.Equal(t, []domain.MissingField{domain.MissingMassOrVolume}, input.Density.MissingFields)
	assert.Contains(t, input.Density.Notes, noteServingUnparsed)
	assert.InDelta(t, 8, *input.Canonical.Sugar, 1e-9)
}

func TestInputNormalizer_MissingFieldsAndConfidence(t *testing.T) {
	n := newTestNormalizer(t)

	p := baselineProduct()
	p.Fiber = nil
	input := n.Normalize(&p, domain.FocusBalanced)
	assert.Equal(t, []domain.MissingField{domain.MissingFiber}, input.Density.MissingFields)
	assert.Equal(t, domain.DataConfidenceMedium, input.Density.Confidence)
	assert.False(t, input.Availability[domain.NutrientFiber])
	assert.True(t, input.Availability[domain.NutrientSugar])

	p.Sugar = nil
	p.Sodium = nil
	input = n.Normalize(&p, domain.FocusBalanced)
	assert.Equal(t, []domain.MissingField{domain.MissingSugar, domain.MissingSodium, domain.MissingFiber}, input.Density.MissingFields)
	assert.Equal(t, domain.DataConfidenceLow, input.Density.Confidence)
}

func TestInputNormalizer_ZeroIsMeasured(t *testing.T) {
	n := newTestNormalizer(t)
	p := baselineProduct()
	p.Sugar = domain.Float(0)

	input := n.Normalize(&p, domain.FocusBalanced)

	assert.True(t, input.Availability[domain.NutrientSugar])
	assert.NotContains(t, input.Density.MissingFields, domain.MissingSugar)
}

func TestInputNormalizer_AllZeroPanel(t *testing.T) {
	n := newTestNormalizer(t)
	zero := domain.Float(0)
	p := &domain.Product{
		Name:           "Zero",
		Calories:       zero,
		Protein:        zero,
		Carbohydrates:  zero,
		Fat:            zero,
		SaturatedFat:   zero,
		Fiber:          zero,
		Sugar:          zero,
		Sodium:         zero,
		NutritionBasis: string(domain.BasisPer100g),
	}

	input := n.Normalize(p, domain.FocusBalanced)

	assert.Equal(t, domain.DataConfidenceLow, input.Density.Confidence)
	assert.Contains(t, input.Density.Notes, noteAllZero)
}

func TestInputNormalizer_IngredientsAndAdditives(t *testing.T) {
	classifier := &mockClassifier{}
	classifier.On("Classify", "palm oil").Return(domain.IngredientClassification{Category: domain.IngredientRefinedOil})
	classifier.On("Classify", "sugar").Return(domain.IngredientClassification{Category: domain.IngredientAddedSugar})
	classifier.On("Classify", "hazelnuts").Return(domain.IngredientClassification{Category: domain.IngredientNutSeed})

	n := newTestNormalizer(t)
	n.classifier = classifier

	p := &domain.Product{
		Name:        "Spread",
		Ingredients: []string{"Palm Oil", "Sugar", "Hazelnuts (13%)", "sugar."},
		Additives:   []string{"E 322", "e-129", "mystery gum", "E129"},
	}
	input := n.Normalize(p, domain.FocusBalanced)

	require.Len(t, input.IngredientHits, 3)
	assert.Equal(t, "palm oil", input.IngredientHits[0].Normalized)
	assert.Equal(t, 0, input.IngredientHits[0].Position)
	assert.Equal(t, "hazelnuts", input.IngredientHits[2].Normalized)
	assert.Equal(t, 2, input.IngredientHits[2].Position)
	classifier.AssertNumberOfCalls(t, "Classify", 3)

	assert.True(t, input.Match.RefinedOil)
	assert.True(t, input.Match.RefinedOilPrimary)
	assert.Equal(t, domain.IngredientRefinedOil, input.Match.FirstIngredientCategory)

	require.Len(t, input.AdditiveHits, 3)
	assert.Equal(t, "e322", input.AdditiveHits[0].ID)
	assert.Equal(t, domain.RiskHigh, input.AdditiveHits[1].Risk)
	assert.Equal(t, domain.RiskUnknown, input.AdditiveHits[2].Risk)
	assert.True(t, input.Match.UltraProcessed)
	assert.False(t, input.Match.UltraProcessedPrimary)

	// weights 3,2,1: hazelnuts contribute 1 of 6
	require.NotNil(t, input.Produce.Percent)
	assert.Equal(t, domain.ProduceHeuristic, input.Produce.Method)
	assert.InDelta(t, 16.7, *input.Produce.Percent, 1e-9)
	classifier.AssertExpectations(t)
}

func TestEstimateProduce(t *testing.T) {
	hit := func(c domain.IngredientCategory) domain.IngredientHit {
		return domain.IngredientHit{Category: c}
	}

	est := estimateProduce(domain.Float(55), nil, false)
	assert.Equal(t, domain.ProduceFromLabel, est.Method)
	assert.Equal(t, 55.0, *est.Percent)

	est = estimateProduce(nil, []domain.IngredientHit{hit(domain.IngredientFruit)}, false)
	assert.Equal(t, domain.ProduceSingleIngredient, est.Method)
	assert.Equal(t, 100.0, *est.Percent)

	est = estimateProduce(nil, nil, false)
	assert.Equal(t, domain.ProduceNone, est.Method)
	assert.Nil(t, est.Percent)

	hits := []domain.IngredientHit{hit(domain.IngredientWater), hit(domain.IngredientFruit)}
	est = estimateProduce(nil, hits, true)
	assert.Equal(t, 100.0, *est.Percent)
	est = estimateProduce(nil, hits, false)
	assert.InDelta(t, 33.3, *est.Percent, 1e-9)
}

func TestMapCategory(t *testing.T) {
	tests := []struct {
		category, name string
		want domain.Category
	}{
		{"cheese", "", domain.CategoryCheese},
		{"Peanut butters", "", domain.CategoryNutButter},
		{"Beverages, Carbonated drinks", "", domain.CategoryBeverage},
		{"Salad dressings", "", domain.CategoryDressing},
		{"", "Sparkling Lemon Water", domain.CategoryBeverage},
		{"", "Oat Clusters", domain.CategoryOther},
		{"Plant-based foods", "", domain.CategoryOther},
		{"Soft drinks", "", domain.CategoryBeverage},
		{"", "Water Crackers", domain.CategorySnack},
		{"", "Table Crackers", domain.CategorySnack},
		{"", "Watermelon Chunks", domain.CategoryOther},
		{"", "Rolled Oats", domain.CategoryBreakfastCereal},
		{"", "Pearl Barley", domain.CategoryOther},
		{"", "Oat Milk", domain.CategoryBeverage},
		{"", "Dinner Rolls", domain.CategoryBreadBakery},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapCategory(tt.category, tt.name), "%q/%q", tt.category, tt.name)
	}
}

func TestKeywordIngredientClassifier(t *testing.T) {
	c, err := NewKeywordIngredientClassifier(quietLogger(), 16)
	require.NoError(t, err)

	tests := map[string]domain.IngredientCategory{
		"Carbonated Water":         domain.IngredientWater,
		"lemon juice":              domain.IngredientFruit,
		"sunflower oil":            domain.IngredientRefinedOil,
		"sunflower seeds":          domain.IngredientNutSeed,
		"whole wheat flour":        domain.IngredientWholeGrain,
		"enriched wheat flour":     domain.IngredientRefinedGrain,
		"high fructose corn syrup": domain.IngredientUltraProcessed,
		"sucralose":                domain.IngredientNonNutritiveSweetener,
		"extra virgin olive oil":   domain.IngredientHealthyFat,
		"eggplant":                 domain.IngredientVegetable,
		"chickpeas":                domain.IngredientLegume,
		"unobtainium":              domain.IngredientUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, c.Classify(name).Category, name)
	}

	// cached answers are identical
	assert.Equal(t, c.Classify("lemon juice"), c.Classify("Lemon Juice"))
}

func TestInputNormalizer_NilClassifier(t *testing.T) {
	n := NewInputNormalizer(quietLogger(), nil, nil)
	p := &domain.Product{Ingredients: []string{"apples"}, Additives: []string{"E330"}}

	input := n.Normalize(p, domain.FocusBalanced)

	require.Len(t, input.IngredientHits, 1)
	assert.Equal(t, domain.IngredientUnknown, input.IngredientHits[0].Category)
	assert.Equal(t, domain.RiskUnknown, input.AdditiveHits[0].Risk)
	assert.Equal(t, domain.ProduceHeuristic, input.Produce.Method)
}
