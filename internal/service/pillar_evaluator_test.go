package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food-health-score-server/internal/assets"
	"github.com/food-health-score-server/internal/domain"
)

// scoringInput builds a per-100 g input directly from nutrient values. Produce is
// given in percent; absent keys are unavailable.
func scoringInput(values map[domain.NutrientID]float64, beverage bool, focus domain.HealthFocus) *domain.ScoringInput {
	ptr := func(n domain.NutrientID) *float64 {
		if v, ok := values[n]; ok {
			return domain.Float(v)
		}
		return nil
	}
	input := &domain.ScoringInput{
		Category: domain.CategoryOther,
		Canonical: domain.NutritionSnapshot{
			EnergyKJ:     ptr(domain.NutrientEnergy),
			Sugar:        ptr(domain.NutrientSugar),
			SaturatedFat: ptr(domain.NutrientSaturatedFat),
			SodiumMg:     ptr(domain.NutrientSodium),
			Fiber:        ptr(domain.NutrientFiber),
			Protein:      ptr(domain.NutrientProtein),
		},
		CanonicalBasis: domain.BasisPer100g,
		IsBeverage:     beverage,
		Produce:        domain.ProduceEstimate{Percent: ptr(domain.NutrientProduce), Method: domain.ProduceFromLabel},
		Focus:          focus,
		Density:        domain.NutritionDensity{Confidence: domain.DataConfidenceHigh},
	}
	if beverage {
		input.CanonicalBasis = domain.BasisPer100ml
		input.Category = domain.CategoryBeverage
	}
	input.EnergyKJ = input.Canonical.EnergyKJ
	input.Availability = make(map[domain.NutrientID]bool)
	for _, n := range domain.ScoredNutrients {
		input.Availability[n] = input.Value(n) != nil
	}
	return input
}

func newTestEvaluator() *PillarEvaluator {
	return NewPillarEvaluator(quietLogger(), NewThresholdProvider(assets.DefaultThresholdTable()))
}

func fullPanel() map[domain.NutrientID]float64 {
	return map[domain.NutrientID]float64{
		domain.NutrientEnergy:       500,
		domain.NutrientSugar:        10,
		domain.NutrientSaturatedFat: 2,
		domain.NutrientSodium:       300,
		domain.NutrientProduce:      50,
		domain.NutrientFiber:        3,
		domain.NutrientProtein:      6,
	}
}

func assertWeightedIdentity(t *testing.T, eval domain.PillarEvaluation) {
	t.Helper()
	for _, c := range eval.Contributions {
		assert.InDelta(t, float64(c.RawPoints)*c.WeightMultiplier, c.WeightedPoints, 1e-9, c.Nutrient)
		assert.GreaterOrEqual(t, c.WeightedPoints, 0.0, c.Nutrient)
		assert.GreaterOrEqual(t, c.RawPoints, 0, c.Nutrient)
	}
}

func TestRawPoints(t *testing.T) {
	sugar := domain.ThresholdConfig{Baseline: 4.5, Step: 3, MaxPoints: 20}
	tests := []struct {
		value float64
		want  int
	}{
		{0, 0},
		{4.5, 0},
		{4.6, 1},
		{7.5, 1},
		{7.6, 2},
		{64.5, 20},
		{500, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RawPoints(tt.value, sugar), "value %v", tt.value)
	}

	assert.Equal(t, 0, RawPoints(10, domain.ThresholdConfig{Baseline: 0, Step: 0, MaxPoints: 5}))
}

func TestPillarEvaluator_FullPanel(t *testing.T) {
	eval := newTestEvaluator().Evaluate(scoringInput(fullPanel(), false, domain.FocusBalanced))

	expectRaw := map[domain.NutrientID]int{
		domain.NutrientEnergy:       1, // ceil(165/200)
		domain.NutrientSugar:        2, // ceil(5.5/3)
		domain.NutrientSaturatedFat: 1,
		domain.NutrientSodium:       3, // ceil(210/100)
		domain.NutrientProduce:      3, // ceil(10/4)
		domain.NutrientFiber:        4, // ceil(2.3/0.7)
		domain.NutrientProtein:      3, // ceil(4.4/1.6)
	}
	for n, want := range expectRaw {
		c := eval.Contribution(n)
		require.NotNil(t, c, n)
		assert.Equal(t, want, c.RawPoints, n)
	}

	// with every pillar present each nutrient keeps its profile weight
	profile := ProfileFor(domain.FocusBalanced)
	for _, c := range eval.Contributions {
		assert.InDelta(t, profile.Multiplier(c.Nutrient), c.WeightMultiplier, 1e-9, c.Nutrient)
	}

	assert.Equal(t, 10, eval.RawPositive)
	assert.Equal(t, 7, eval.RawNegative)
	assert.InDelta(t, 3+4+3*0.8, eval.WeightedPositive, 1e-9)
	assert.InDelta(t, 0.8+2+0.8+3*0.8, eval.WeightedNegative, 1e-9)
	assert.InDelta(t, 40+eval.WeightedPositive-eval.WeightedNegative, eval.BaseScore, 1e-9)
	assert.Equal(t, "balanced-v1", eval.WeightsProfileID)
	assert.Equal(t, "builtin-thresholds@fallback", eval.ThresholdSetID)
	assert.Empty(t, eval.PillarsDropped)
	assert.Empty(t, eval.MissingCritical)
	assert.Equal(t, 4, eval.PillarsWithData())
	assertWeightedIdentity(t, eval)
}

func TestPillarEvaluator_DroppedPillarPreservesTotalWeight(t *testing.T) {
	values := fullPanel()
	delete(values, domain.NutrientSugar)

	eval := newTestEvaluator().Evaluate(scoringInput(values, false, domain.FocusBalanced))

	assert.Equal(t, []domain.PillarID{domain.PillarSugar}, eval.PillarsDropped)
	assert.Equal(t, []domain.NutrientID{domain.NutrientSugar}, eval.MissingCritical)
	assert.Equal(t, 3, eval.PillarsWithData())

	var total, base float64
	for _, p := range eval.Pillars {
		total += p.Weight
		base += p.BaseWeight
	}
	assert.InDelta(t, base, total, 1e-9)

	scale := 6.2 / 5.2
	assert.InDelta(t, 0.8*scale, eval.Contribution(domain.NutrientEnergy).WeightMultiplier, 1e-9)
	assert.InDelta(t, 0.0, eval.Contribution(domain.NutrientSugar).WeightMultiplier, 1e-9)
	assertWeightedIdentity(t, eval)
}

func TestPillarEvaluator_RedistributesWithinPillar(t *testing.T) {
	values := fullPanel()
	delete(values, domain.NutrientFiber)

	eval := newTestEvaluator().Evaluate(scoringInput(values, false, domain.FocusBalanced))

	assert.Empty(t, eval.PillarsDropped)
	// positive pillar weight 2.8 shared by produce (1.0) and protein (0.8)
	assert.InDelta(t, 2.8*1.0/1.8, eval.Contribution(domain.NutrientProduce).WeightMultiplier, 1e-9)
	assert.InDelta(t, 2.8*0.8/1.8, eval.Contribution(domain.NutrientProtein).WeightMultiplier, 1e-9)
	assert.False(t, eval.Contribution(domain.NutrientFiber).DataAvailable)
	assert.Equal(t, 0, eval.Contribution(domain.NutrientFiber).RawPoints)
}

func TestPillarEvaluator_ProteinCap(t *testing.T) {
	values := fullPanel()
	values[domain.NutrientEnergy] = 700
	values[domain.NutrientProtein] = 25
	delete(values, domain.NutrientProduce)

	eval := newTestEvaluator().Evaluate(scoringInput(values, false, domain.FocusBalanced))
	protein := eval.Contribution(domain.NutrientProtein)
	assert.Equal(t, 5, protein.RawPoints)
	assert.Contains(t, protein.Modifiers, ModifierProteinCap)

	values[domain.NutrientProduce] = 45
	eval = newTestEvaluator().Evaluate(scoringInput(values, false, domain.FocusBalanced))
	assert.Equal(t, 15, eval.Contribution(domain.NutrientProtein).RawPoints)

	values[domain.NutrientProduce] = 10
	values[domain.NutrientEnergy] = 669
	eval = newTestEvaluator().Evaluate(scoringInput(values, false, domain.FocusBalanced))
	assert.Equal(t, 15, eval.Contribution(domain.NutrientProtein).RawPoints)
}

func TestPillarEvaluator_HydratingBeverage(t *testing.T) {
	values := map[domain.NutrientID]float64{
		domain.NutrientEnergy:       0,
		domain.NutrientSugar:        0,
		domain.NutrientSaturatedFat: 0,
		domain.NutrientSodium:       5,
		domain.NutrientFiber:        0,
		domain.NutrientProtein:      0,
	}

	eval := newTestEvaluator().Evaluate(scoringInput(values, true, domain.FocusBalanced))

	protein := eval.Contribution(domain.NutrientProtein)
	assert.Equal(t, 5, protein.RawPoints)
	assert.Contains(t, protein.Modifiers, ModifierHydratingFloor)

	fiber := eval.Contribution(domain.NutrientFiber)
	assert.True(t, fiber.Excluded)
	assert.True(t, fiber.DataAvailable)
	assert.Equal(t, 0.0, fiber.WeightMultiplier)
	assert.NotContains(t, eval.MissingCritical, domain.NutrientFiber)

	// sugary drinks get no floor
	values[domain.NutrientSugar] = 8
	eval = newTestEvaluator().Evaluate(scoringInput(values, true, domain.FocusBalanced))
	assert.Equal(t, 0, eval.Contribution(domain.NutrientProtein).RawPoints)

	// solids never get the beverage exceptions
	values[domain.NutrientSugar] = 0
	eval = newTestEvaluator().Evaluate(scoringInput(values, false, domain.FocusBalanced))
	assert.Equal(t, 0, eval.Contribution(domain.NutrientProtein).RawPoints)
	assert.False(t, eval.Contribution(domain.NutrientFiber).Excluded)
}

func TestPillarEvaluator_RawCeilings(t *testing.T) {
	values := map[domain.NutrientID]float64{
		domain.NutrientEnergy:       3500,
		domain.NutrientSugar:        90,
		domain.NutrientSaturatedFat: 40,
		domain.NutrientSodium:       5000,
		domain.NutrientProduce:      100,
		domain.NutrientFiber:        40,
		domain.NutrientProtein:      60,
	}

	eval := newTestEvaluator().Evaluate(scoringInput(values, false, domain.FocusBalanced))

	assert.Equal(t, NegativeRawCeiling, eval.RawNegative)
	assert.Equal(t, PositiveRawCeiling, eval.RawPositive)
	assert.Equal(t, 14, eval.Contribution(domain.NutrientEnergy).RawPoints)
	assert.Equal(t, 18, eval.Contribution(domain.NutrientSugar).RawPoints)
	assert.Equal(t, 14, eval.Contribution(domain.NutrientProduce).RawPoints)
	assert.Equal(t, 13, eval.Contribution(domain.NutrientProtein).RawPoints)
	assert.Contains(t, eval.Contribution(domain.NutrientSugar).Modifiers, ModifierRawCeiling)
	assertWeightedIdentity(t, eval)
}

func TestPillarEvaluator_AllMissing(t *testing.T) {
	eval := newTestEvaluator().Evaluate(scoringInput(map[domain.NutrientID]float64{}, false, domain.FocusBalanced))

	assert.Len(t, eval.PillarsDropped, 4)
	assert.Equal(t, 0, eval.PillarsWithData())
	assert.Equal(t, domain.CriticalNutrients, eval.MissingCritical)
	assert.Equal(t, BaseScoreOffset, eval.BaseScore)
}

func TestDistributeCeiling(t *testing.T) {
	tests := []struct {
		name    string
		values  []int
		ceiling int
		want    []int
	}{
		{"under ceiling", []int{10, 10}, 40, []int{10, 10}},
		{"exactly ceiling", []int{20, 20}, 40, []int{20, 20}},
		{"largest remainder", []int{15, 20, 15, 15}, 60, []int{14, 18, 14, 14}},
		{"ties by position", []int{15, 15, 15}, 40, []int{14, 13, 13}},
		{"zeros", []int{0, 0}, 10, []int{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistributeCeiling(tt.values, tt.ceiling)
			assert.Equal(t, tt.want, got)
			sum := 0
			for _, v := range got {
				sum += v
			}
			assert.LessOrEqual(t, sum, tt.ceiling)
		})
	}
}

func TestThresholdProvider_Precedence(t *testing.T) {
	p := NewThresholdProvider(nil)
	assert.Equal(t, "builtin-thresholds@fallback", p.SetID())

	cfg := p.Config(domain.NutrientSugar, false, domain.CategoryOther)
	assert.Equal(t, 4.5, cfg.Baseline)
	assert.Equal(t, "standard", cfg.Context)

	cfg = p.Config(domain.NutrientSugar, true, domain.CategoryBeverage)
	assert.Equal(t, 0.0, cfg.Baseline)
	assert.Equal(t, 1.5, cfg.Step)
	assert.Equal(t, assets.BeverageContext, cfg.Context)

	cfg = p.Config(domain.NutrientSugar, false, domain.CategoryBreakfastCereal)
	assert.Equal(t, 6.0, cfg.Baseline)
	assert.Equal(t, 3.0, cfg.Step)
	assert.Equal(t, "category:breakfast_cereal", cfg.Context)

	// category beats beverage for baseline and step; max points stay
	cfg = p.Config(domain.NutrientSugar, true, domain.CategoryDriedFruit)
	assert.Equal(t, 15.0, cfg.Baseline)
	assert.Equal(t, 4.0, cfg.Step)
	assert.Equal(t, 20, cfg.MaxPoints)

	cfg = p.Config(domain.NutrientSodium, false, domain.CategoryCheese)
	assert.Equal(t, 400.0, cfg.Baseline)
	assert.Equal(t, 120.0, cfg.Step)
}

func TestProfileFor(t *testing.T) {
	for _, focus := range domain.AllHealthFocuses {
		profile := ProfileFor(focus)
		assert.Equal(t, focus, profile.Focus)
		assert.Equal(t, string(focus)+"-v1", profile.ID)
		for _, n := range domain.ScoredNutrients {
			assert.Greater(t, profile.Multiplier(n), 0.0)
		}
	}
	assert.Equal(t, domain.FocusBalanced, ProfileFor("keto").Focus)
	assert.Equal(t, 1.6, ProfileFor(domain.FocusGutHealth).Multiplier(domain.NutrientFiber))
}
