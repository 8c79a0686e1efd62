package service

import (
	"fmt"
	"strings"

	"github.com/food-health-score-server/internal/domain"
)

// Guardrail rule identifiers, usable as cap exclusions.
const (
	RuleMissingCritical     = "missing_critical_nutrients"
	RuleRefinedOil          = "refined_oil"
	RuleSweetener           = "non_nutritive_sweetener"
	RuleUltraProcessed      = "ultra_processed"
	RuleDietaryRestriction  = "dietary_restriction"
	RuleNutrientCeilings    = "absolute_nutrient_ceilings"
	RuleExtremeServing      = "extreme_serving"
	RuleAllergenDeclaration = "allergen_declaration"
)

// Guardrail thresholds.
const (
	sweetenerTriggerBase     = 75.0
	sweetenerTriggerMaxScore = 60.0
	sodiumCeilingMg          = 1500.0
	sugarCeilingG            = 30.0
	saturatedFatCeilingG     = 15.0
	servingSugarLimitG       = 40.0
	servingSodiumLimitMg     = 2000.0
)

// RuleKind is the outcome variant of one guardrail rule.
type RuleKind int

const (
	RuleNone RuleKind = iota
	RuleCap
	RuleRedTrigger
	RuleHardFail
)

// RuleResult is exactly one of none, cap(tier), red trigger or hard fail.
type RuleResult struct {
	Kind   RuleKind
	Tier   domain.CapTier
	Reason string
}

func none() RuleResult { return RuleResult{Kind: RuleNone} }

func capAt(tier domain.CapTier, reason string) RuleResult {
	return RuleResult{Kind: RuleCap, Tier: tier, Reason: reason}
}

func redTrigger(reason string) RuleResult {
	return RuleResult{Kind: RuleRedTrigger, Reason: reason}
}

func hardFail(reason string) RuleResult {
	return RuleResult{Kind: RuleHardFail, Reason: reason}
}

// RuleContext is what every rule sees. BaseScore is the unclamped pillar base score.
type RuleContext struct {
	Input        *domain.ScoringInput
	Evaluation   *domain.PillarEvaluation
	Restrictions []domain.DietaryRestriction
	Dietary      *DietaryChecker
	BaseScore    float64
}

// GuardrailRule is one link of the ordered rule chain.
type GuardrailRule interface {
	ID() string
	Evaluate(ctx *RuleContext) RuleResult
}

// DefaultGuardrailRules returns the rule chain in evaluation order.
func DefaultGuardrailRules() []GuardrailRule {
	return []GuardrailRule{
		missingCriticalRule{},
		refinedOilRule{},
		sweetenerRule{},
		ultraProcessedRule{},
		dietaryRestrictionRule{},
		nutrientCeilingRule{},
		extremeServingRule{},
		allergenDeclarationRule{},
	}
}

type missingCriticalRule struct{}

func (missingCriticalRule) ID() string { return RuleMissingCritical }

func (missingCriticalRule) Evaluate(ctx *RuleContext) RuleResult {
	missing := ctx.Evaluation.MissingCritical
	if len(missing) == 0 {
		return none()
	}
	names := make([]string, len(missing))
	for i, n := range missing {
		names[i] = strings.ToLower(n.Label())
	}
	reason := fmt.Sprintf("Missing label data: %s", strings.Join(names, ", "))
	if len(missing) <= 2 {
		return capAt(domain.Tier3, reason)
	}
	return capAt(domain.Tier2, reason)
}

type refinedOilRule struct{}

func (refinedOilRule) ID() string { return RuleRefinedOil }

func (refinedOilRule) Evaluate(ctx *RuleContext) RuleResult {
	m := ctx.Input.Match
	switch {
	case m.RefinedOilPrimary:
		return capAt(domain.Tier1, "Refined oil is the primary ingredient")
	case m.RefinedOil:
		return capAt(domain.Tier2, "Contains refined oil")
	default:
		return none()
	}
}

type sweetenerRule struct{}

func (sweetenerRule) ID() string { return RuleSweetener }

func (sweetenerRule) Evaluate(ctx *RuleContext) RuleResult {
	if !ctx.Input.Match.NonNutritiveSweetener {
		return none()
	}
	if ctx.BaseScore > sweetenerTriggerBase {
		return redTrigger("High score relies on non-nutritive sweeteners")
	}
	return capAt(domain.Tier2, "Contains non-nutritive sweeteners")
}

type ultraProcessedRule struct{}

func (ultraProcessedRule) ID() string { return RuleUltraProcessed }

func (ultraProcessedRule) Evaluate(ctx *RuleContext) RuleResult {
	m := ctx.Input.Match
	switch {
	case m.UltraProcessedPrimary:
		return capAt(domain.Tier0, "Primary ingredient is ultra-processed")
	case m.UltraProcessed:
		return capAt(domain.Tier2, "Contains ultra-processed ingredients or high-risk additives")
	default:
		return none()
	}
}

type dietaryRestrictionRule struct{}

func (dietaryRestrictionRule) ID() string { return RuleDietaryRestriction }

func (dietaryRestrictionRule) Evaluate(ctx *RuleContext) RuleResult {
	if len(ctx.Restrictions) == 0 || ctx.Dietary == nil {
		return none()
	}
	violations := ctx.Dietary.Check(ctx.Input.Product.Ingredients, ctx.Restrictions)
	if len(violations) == 0 {
		return none()
	}
	parts := make([]string, len(violations))
	for i, v := range violations {
		parts[i] = fmt.Sprintf("%s (%s)", v.Restriction.Label(), v.Keyword)
	}
	return hardFail("Violates dietary restriction: " + strings.Join(parts, ", "))
}

type nutrientCeilingRule struct{}

func (nutrientCeilingRule) ID() string { return RuleNutrientCeilings }

// Evaluate applies the most severe breached ceiling and lists every breach.
func (nutrientCeilingRule) Evaluate(ctx *RuleContext) RuleResult {
	type ceiling struct {
		nutrient domain.NutrientID
		limit    float64
		tier     domain.CapTier
	}
	ceilings := []ceiling{
		{domain.NutrientSodium, sodiumCeilingMg, domain.Tier1},
		{domain.NutrientSugar, sugarCeilingG, domain.Tier2},
		{domain.NutrientSaturatedFat, saturatedFatCeilingG, domain.Tier2},
	}

	tier := domain.Tier4
	var breaches []string
	for _, c := range ceilings {
		v := ctx.Input.Value(c.nutrient)
		if v == nil || *v <= c.limit {
			continue
		}
		breaches = append(breaches, fmt.Sprintf("%s %s per %s exceeds %s",
			strings.ToLower(c.nutrient.Label()), FormatAmount(*v, c.nutrient.Unit()),
			ctx.Input.BasisUnit(), FormatAmount(c.limit, c.nutrient.Unit())))
		if c.tier < tier {
			tier = c.tier
		}
	}
	if len(breaches) == 0 {
		return none()
	}
	return capAt(tier, "Very high "+strings.Join(breaches, "; "))
}

type extremeServingRule struct{}

func (extremeServingRule) ID() string { return RuleExtremeServing }

func (extremeServingRule) Evaluate(ctx *RuleContext) RuleResult {
	grams := servingGrams(ctx.Input)
	if grams == nil {
		return none()
	}
	per100 := ctx.Input.Density.Per100g
	if per100 == nil {
		per100 = &ctx.Input.Canonical
	}
	factor := *grams / 100

	var reasons []string
	if per100.Sugar != nil && *per100.Sugar*factor > servingSugarLimitG {
		reasons = append(reasons, fmt.Sprintf("%s sugar per serving", FormatAmount(*per100.Sugar*factor, "g")))
	}
	if per100.SodiumMg != nil && *per100.SodiumMg*factor > servingSodiumLimitMg {
		reasons = append(reasons, fmt.Sprintf("%s sodium per serving", FormatAmount(*per100.SodiumMg*factor, "mg")))
	}
	if len(reasons) == 0 {
		return none()
	}
	return hardFail("Extreme amount in one serving: " + strings.Join(reasons, ", "))
}

// servingGrams is the parsed serving mass; beverages fall back to volume at 1 g/ml.
func servingGrams(input *domain.ScoringInput) *float64 {
	if input.Serving.Grams != nil {
		return input.Serving.Grams
	}
	if input.IsBeverage && input.Serving.Milliliters != nil {
		return input.Serving.Milliliters
	}
	return nil
}

var allergenSensitiveCategories = map[domain.Category]bool{
	domain.CategoryNutsSeeds:       true,
	domain.CategoryNutButter:       true,
	domain.CategoryCheese:          true,
	domain.CategoryYogurt:          true,
	domain.CategoryDairy:           true,
	domain.CategoryBreadBakery:     true,
	domain.CategoryBreakfastCereal: true,
	domain.CategorySnack:           true,
	domain.CategoryConfectionery:   true,
}

type allergenDeclarationRule struct{}

func (allergenDeclarationRule) ID() string { return RuleAllergenDeclaration }

func (allergenDeclarationRule) Evaluate(ctx *RuleContext) RuleResult {
	p := ctx.Input.Product
	if !allergenSensitiveCategories[ctx.Input.Category] || len(ctx.Input.IngredientHits) == 0 {
		return none()
	}
	if len(p.Allergens) > 0 || len(p.DietaryFlags) > 0 {
		return none()
	}
	return capAt(domain.Tier3, fmt.Sprintf("No allergen declaration for a %s product", ctx.Input.Category.DisplayName()))
}
