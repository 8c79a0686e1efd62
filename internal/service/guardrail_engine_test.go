package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/food-health-score-server/internal/assets"
	"github.com/food-health-score-server/internal/domain"
)

type stubRule struct {
	id     string
	result RuleResult
}

func (r stubRule) ID() string                       { return r.id }
func (r stubRule) Evaluate(*RuleContext) RuleResult { return r.result }

func engineInput(category domain.Category) *domain.ScoringInput {
	return &domain.ScoringInput{
		Category:       category,
		CanonicalBasis: domain.BasisPer100g,
		Density:        domain.NutritionDensity{Confidence: domain.DataConfidenceHigh},
	}
}

func TestGuardrailEngine_Fold(t *testing.T) {
	tests := []struct {
		name          string
		rules         []GuardrailRule
		base          float64
		exclusions    []string
		expectFinal   float64
		expectRange   domain.ConfidenceRange
		expectConf    domain.ConfidenceLevel
		expectCaps    []string
		expectSkipped []string
		expectHalted  bool
	}{
		{
			name:        "no rules fire",
			rules:       []GuardrailRule{stubRule{"a", none()}},
			base:        85,
			expectFinal: 85,
			expectRange: domain.ConfidenceRange{Lower: 0, Upper: 100},
			expectConf:  domain.HIGH,
		},
		{
			name: "most severe cap wins",
			rules: []GuardrailRule{
				stubRule{"a", capAt(domain.Tier3, "a")},
				stubRule{"b", capAt(domain.Tier1, "b")},
			},
			base:        85,
			expectFinal: 55,
			expectRange: domain.ConfidenceRange{Lower: 0, Upper: 55},
			expectConf:  domain.HIGH,
			expectCaps:  []string{"a", "b"},
		},
		{
			name: "red trigger suppresses later caps",
			rules: []GuardrailRule{
				stubRule{"s", redTrigger("s")},
				stubRule{"c", capAt(domain.Tier2, "c")},
			},
			base:          85,
			expectFinal:   60,
			expectRange:   domain.ConfidenceRange{Lower: 20, Upper: 60},
			expectConf:    domain.LOW,
			expectSkipped: []string{"c"},
		},
		{
			name: "cap before red trigger is kept",
			rules: []GuardrailRule{
				stubRule{"c", capAt(domain.Tier1, "c")},
				stubRule{"s", redTrigger("s")},
			},
			base:        85,
			expectFinal: 55,
			expectRange: domain.ConfidenceRange{Lower: 20, Upper: 55},
			expectConf:  domain.LOW,
			expectCaps:  []string{"c"},
		},
		{
			name: "hard fail is terminal",
			rules: []GuardrailRule{
				stubRule{"a", capAt(domain.Tier3, "a")},
				stubRule{"h", hardFail("h")},
				stubRule{"b", capAt(domain.Tier2, "b")},
				stubRule{"n", none()},
			},
			base:          85,
			expectFinal:   0,
			expectRange:   domain.ConfidenceRange{Lower: 0, Upper: 0},
			expectConf:    domain.HIGH,
			expectCaps:    []string{"a"},
			expectSkipped: []string{"b", "n"},
			expectHalted:  true,
		},
		{
			name: "hard fail first",
			rules: []GuardrailRule{
				stubRule{"h", hardFail("h")},
				stubRule{"s", redTrigger("s")},
			},
			base:          95,
			expectFinal:   0,
			expectRange:   domain.ConfidenceRange{Lower: 0, Upper: 0},
			expectConf:    domain.HIGH,
			expectSkipped: []string{"s"},
			expectHalted:  true,
		},
		{
			name:          "excluded cap",
			rules:         []GuardrailRule{stubRule{"a", capAt(domain.Tier1, "a")}},
			base:          85,
			exclusions:    []string{"a"},
			expectFinal:   85,
			expectRange:   domain.ConfidenceRange{Lower: 0, Upper: 100},
			expectConf:    domain.HIGH,
			expectSkipped: []string{"a"},
		},
		{
			name:         "exclusions do not apply to hard fails",
			rules:        []GuardrailRule{stubRule{"h", hardFail("h")}},
			base:         85,
			exclusions:   []string{"h"},
			expectFinal:  0,
			expectRange:  domain.ConfidenceRange{Lower: 0, Upper: 0},
			expectConf:   domain.HIGH,
			expectHalted: true,
		},
		{
			name:        "negative base clamps to zero",
			rules:       []GuardrailRule{},
			base:        -20,
			expectFinal: 0,
			expectRange: domain.ConfidenceRange{Lower: 0, Upper: 100},
			expectConf:  domain.HIGH,
		},
		{
			name:        "base above 100 clamps",
			rules:       []GuardrailRule{},
			base:        130,
			expectFinal: 100,
			expectRange: domain.ConfidenceRange{Lower: 0, Upper: 100},
			expectConf:  domain.HIGH,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewGuardrailEngineWithRules(quietLogger(), nil, tt.rules)
			eval := &domain.PillarEvaluation{BaseScore: tt.base}

			outcome := engine.Apply(engineInput(domain.CategoryOther), eval, tt.exclusions, nil)

			assert.Equal(t, tt.expectFinal, outcome.FinalScore)
			assert.Equal(t, tt.expectRange, outcome.Range)
			assert.Equal(t, tt.expectConf, outcome.Confidence)
			assert.Equal(t, tt.expectHalted, outcome.Halted)
			assert.Equal(t, tt.expectSkipped, outcome.Skipped)

			var caps []string
			for _, c := range outcome.Caps {
				caps = append(caps, c.RuleID)
			}
			assert.Equal(t, tt.expectCaps, caps)
			assert.Equal(t, tt.base, outcome.BaseScore)
			assert.GreaterOrEqual(t, outcome.FinalScore, outcome.Range.Lower)
			assert.LessOrEqual(t, outcome.FinalScore, outcome.Range.Upper)
		})
	}
}

func TestGuardrailEngine_RedTriggerWarning(t *testing.T) {
	engine := NewGuardrailEngineWithRules(quietLogger(), nil, []GuardrailRule{stubRule{"s", redTrigger("sweet")}})

	outcome := engine.Apply(engineInput(domain.CategoryOther), &domain.PillarEvaluation{BaseScore: 90}, nil, nil)

	require.Len(t, outcome.Triggers, 1)
	assert.Equal(t, domain.SeverityRed, outcome.Triggers[0].Severity)
	assert.Equal(t, 60.0, outcome.Triggers[0].MaxScore)
	assert.Equal(t, "sweet", outcome.Triggers[0].Message)
	assert.Equal(t, warningSweetener, outcome.Warning)
	assert.False(t, outcome.HardFailed())
}

func TestGuardrailEngine_Leniency(t *testing.T) {
	rules := []GuardrailRule{stubRule{RuleNutrientCeilings, capAt(domain.Tier1, "salty")}}
	engine := NewGuardrailEngineWithRules(quietLogger(), nil, rules)
	eval := &domain.PillarEvaluation{BaseScore: 85}

	outcome := engine.Apply(engineInput(domain.CategoryCheese), eval, nil, nil)
	require.Len(t, outcome.Caps, 1)
	assert.Equal(t, domain.Tier2, outcome.Caps[0].Tier)
	assert.Equal(t, 80.0, outcome.FinalScore)

	outcome = engine.Apply(engineInput(domain.CategorySnack), eval, nil, nil)
	require.Len(t, outcome.Caps, 1)
	assert.Equal(t, domain.Tier1, outcome.Caps[0].Tier)
	assert.Equal(t, 55.0, outcome.FinalScore)

	// relaxing a tier3 cap reaches tier4, which no longer caps
	rules = []GuardrailRule{stubRule{RuleNutrientCeilings, capAt(domain.Tier3, "mild")}}
	engine = NewGuardrailEngineWithRules(quietLogger(), nil, rules)
	outcome = engine.Apply(engineInput(domain.CategoryCheese), eval, nil, nil)
	assert.Empty(t, outcome.Caps)
	assert.Equal(t, []string{RuleNutrientCeilings}, outcome.Skipped)
	assert.Equal(t, 85.0, outcome.FinalScore)
}

func TestGuardrailEngine_Confidence(t *testing.T) {
	tests := []struct {
		name          string
		missing       []domain.NutrientID
		dataQuality   domain.DataConfidence
		base          float64
		expectConf    domain.ConfidenceLevel
		expectWarning string
		expectFinal   float64
	}{
		{"complete", nil, domain.DataConfidenceHigh, 50, domain.HIGH, "", 50},
		{"one missing", []domain.NutrientID{domain.NutrientFiber}, domain.DataConfidenceHigh, 95, domain.MEDIUM, warningMediumConfidence, 90},
		{"two missing", []domain.NutrientID{domain.NutrientFiber, domain.NutrientProtein}, domain.DataConfidenceHigh, 0, domain.MEDIUM, warningMediumConfidence, 10},
		{"three missing", []domain.NutrientID{domain.NutrientFiber, domain.NutrientProtein, domain.NutrientSugar}, domain.DataConfidenceHigh, 50, domain.LOW, warningLowConfidence, 50},
		{"low data quality", nil, domain.DataConfidenceLow, 40, domain.MEDIUM, warningLowDataQuality, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewGuardrailEngineWithRules(quietLogger(), nil, nil)
			input := engineInput(domain.CategoryOther)
			input.Density.Confidence = tt.dataQuality
			eval := &domain.PillarEvaluation{BaseScore: tt.base, MissingCritical: tt.missing}

			outcome := engine.Apply(input, eval, nil, nil)

			assert.Equal(t, tt.expectConf, outcome.Confidence)
			assert.Equal(t, tt.expectConf.Range(), outcome.Range)
			assert.Equal(t, tt.expectWarning, outcome.Warning)
			assert.Equal(t, tt.expectFinal, outcome.FinalScore)
		})
	}
}

func ruleContext(input *domain.ScoringInput) *RuleContext {
	return &RuleContext{Input: input, Evaluation: &domain.PillarEvaluation{}}
}

func TestMissingCriticalRule(t *testing.T) {
	ctx := ruleContext(engineInput(domain.CategoryOther))
	assert.Equal(t, RuleNone, missingCriticalRule{}.Evaluate(ctx).Kind)

	ctx.Evaluation.MissingCritical = []domain.NutrientID{domain.NutrientFiber}
	result := missingCriticalRule{}.Evaluate(ctx)
	assert.Equal(t, capAt(domain.Tier3, "Missing label data: fiber"), result)

	ctx.Evaluation.MissingCritical = domain.CriticalNutrients
	assert.Equal(t, domain.Tier2, missingCriticalRule{}.Evaluate(ctx).Tier)
}

func TestIngredientRules(t *testing.T) {
	tests := []struct {
		name   string
		rule   GuardrailRule
		match  domain.IngredientMatch
		base   float64
		expect RuleResult
	}{
		{"refined oil primary", refinedOilRule{}, domain.IngredientMatch{RefinedOil: true, RefinedOilPrimary: true}, 50, capAt(domain.Tier1, "Refined oil is the primary ingredient")},
		{"refined oil", refinedOilRule{}, domain.IngredientMatch{RefinedOil: true}, 50, capAt(domain.Tier2, "Contains refined oil")},
		{"no refined oil", refinedOilRule{}, domain.IngredientMatch{}, 50, none()},
		{"sweetener at threshold", sweetenerRule{}, domain.IngredientMatch{NonNutritiveSweetener: true}, 75, capAt(domain.Tier2, "Contains non-nutritive sweeteners")},
		{"sweetener above threshold", sweetenerRule{}, domain.IngredientMatch{NonNutritiveSweetener: true}, 75.1, redTrigger("High score relies on non-nutritive sweeteners")},
		{"ultra-processed primary", ultraProcessedRule{}, domain.IngredientMatch{UltraProcessed: true, UltraProcessedPrimary: true}, 50, capAt(domain.Tier0, "Primary ingredient is ultra-processed")},
		{"ultra-processed", ultraProcessedRule{}, domain.IngredientMatch{UltraProcessed: true}, 50, capAt(domain.Tier2, "Contains ultra-processed ingredients or high-risk additives")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := engineInput(domain.CategoryOther)
			input.Match = tt.match
			ctx := ruleContext(input)
			ctx.BaseScore = tt.base
			assert.Equal(t, tt.expect, tt.rule.Evaluate(ctx))
		})
	}
}

func TestNutrientCeilingRule(t *testing.T) {
	input := engineInput(domain.CategoryOther)
	input.Canonical = domain.NutritionSnapshot{
		SodiumMg:     domain.Float(1600),
		Sugar:        domain.Float(35),
		SaturatedFat: domain.Float(15),
	}

	result := nutrientCeilingRule{}.Evaluate(ruleContext(input))

	assert.Equal(t, RuleCap, result.Kind)
	assert.Equal(t, domain.Tier1, result.Tier)
	assert.Equal(t, "Very high sodium 1600 mg per 100 g exceeds 1500 mg; sugar 35 g per 100 g exceeds 30 g", result.Reason)

	input.Canonical.SodiumMg = domain.Float(1500)
	result = nutrientCeilingRule{}.Evaluate(ruleContext(input))
	assert.Equal(t, domain.Tier2, result.Tier)

	input.Canonical = domain.NutritionSnapshot{}
	assert.Equal(t, RuleNone, nutrientCeilingRule{}.Evaluate(ruleContext(input)).Kind)
}

func TestExtremeServingRule(t *testing.T) {
	input := engineInput(domain.CategoryOther)
	input.Canonical = domain.NutritionSnapshot{Sugar: domain.Float(50), SodiumMg: domain.Float(100)}

	assert.Equal(t, RuleNone, extremeServingRule{}.Evaluate(ruleContext(input)).Kind, "no serving")

	input.Serving = domain.ServingDescriptor{Grams: domain.Float(40)}
	assert.Equal(t, RuleNone, extremeServingRule{}.Evaluate(ruleContext(input)).Kind)

	input.Serving = domain.ServingDescriptor{Grams: domain.Float(100)}
	result := extremeServingRule{}.Evaluate(ruleContext(input))
	assert.Equal(t, hardFail("Extreme amount in one serving: 50 g sugar per serving"), result)

	// beverages measured in ml use water density
	drink := engineInput(domain.CategoryBeverage)
	drink.IsBeverage = true
	drink.CanonicalBasis = domain.BasisPer100ml
	drink.Canonical = domain.NutritionSnapshot{Sugar: domain.Float(11)}
	drink.Serving = domain.ServingDescriptor{Milliliters: domain.Float(500)}
	assert.Equal(t, RuleHardFail, extremeServingRule{}.Evaluate(ruleContext(drink)).Kind)

	drink.IsBeverage = false
	assert.Equal(t, RuleNone, extremeServingRule{}.Evaluate(ruleContext(drink)).Kind)
}

func TestAllergenDeclarationRule(t *testing.T) {
	input := engineInput(domain.CategoryNutsSeeds)
	input.IngredientHits = []domain.IngredientHit{{Name: "almonds", Normalized: "almonds", Category: domain.IngredientNutSeed}}

	result := allergenDeclarationRule{}.Evaluate(ruleContext(input))
	assert.Equal(t, RuleCap, result.Kind)
	assert.Equal(t, domain.Tier3, result.Tier)

	input.Product.Allergens = []string{"tree nuts"}
	assert.Equal(t, RuleNone, allergenDeclarationRule{}.Evaluate(ruleContext(input)).Kind)

	other := engineInput(domain.CategoryBeverage)
	other.IngredientHits = input.IngredientHits
	assert.Equal(t, RuleNone, allergenDeclarationRule{}.Evaluate(ruleContext(other)).Kind)
}

func TestDietaryRestrictionRule(t *testing.T) {
	sets, err := assets.EmbeddedDietaryKeywords()
	require.NoError(t, err)

	input := engineInput(domain.CategoryOther)
	input.Product.Ingredients = []string{"sugar", "whole milk powder"}
	ctx := ruleContext(input)
	ctx.Dietary = NewDietaryChecker(sets)

	assert.Equal(t, RuleNone, dietaryRestrictionRule{}.Evaluate(ctx).Kind, "no restrictions")

	ctx.Restrictions = []domain.DietaryRestriction{domain.RestrictionNutFree}
	assert.Equal(t, RuleNone, dietaryRestrictionRule{}.Evaluate(ctx).Kind)

	ctx.Restrictions = []domain.DietaryRestriction{domain.RestrictionVegan, domain.RestrictionDairyFree}
	result := dietaryRestrictionRule{}.Evaluate(ctx)
	assert.Equal(t, RuleHardFail, result.Kind)
	assert.Contains(t, result.Reason, "(milk)")
}
