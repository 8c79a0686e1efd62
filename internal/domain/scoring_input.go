package domain

// ServingSource records which pattern produced a serving quantity.
type ServingSource string

const (
	ServingExplicitUnit     ServingSource = "explicit_unit"
	ServingHouseholdMeasure ServingSource = "household_measure"
	ServingNone             ServingSource = "none"
)

// ServingDescriptor is the parsed form of a serving-size label text.
type ServingDescriptor struct {
	Text        string        `json:"text,omitempty"`
	Grams       *float64      `json:"grams,omitempty"`
	Milliliters *float64      `json:"milliliters,omitempty"`
	Source      ServingSource `json:"source"`
}

// HasQuantity reports whether a mass or volume was parsed.
func (s ServingDescriptor) HasQuantity() bool {
	return s.Grams != nil || s.Milliliters != nil
}

// NutritionDensity carries nutrient values on every basis that could be derived.
// PerServing is always populated; Per100g and Per100ml only when derivable.
type NutritionDensity struct {
	Per100g       *NutritionSnapshot `json:"per_100g,omitempty"`
	Per100ml      *NutritionSnapshot `json:"per_100ml,omitempty"`
	PerServing    NutritionSnapshot  `json:"per_serving"`
	Confidence    DataConfidence     `json:"confidence"`
	MissingFields []MissingField     `json:"missing_fields,omitempty"`
	Notes         []string           `json:"notes,omitempty"`
}

// ProduceEstimate is the estimated fruit, vegetable, legume and nut share.
type ProduceEstimate struct {
	Percent *float64      `json:"percent,omitempty"`
	Method  ProduceMethod `json:"method"`
}

// IngredientCategory is the classification assigned to an ingredient name.
type IngredientCategory string

const (
	IngredientFruit                 IngredientCategory = "fruit"
	IngredientVegetable             IngredientCategory = "vegetable"
	IngredientLegume                IngredientCategory = "legume"
	IngredientNutSeed               IngredientCategory = "nut_seed"
	IngredientWholeGrain            IngredientCategory = "whole_grain"
	IngredientRefinedGrain          IngredientCategory = "refined_grain"
	IngredientDairy                 IngredientCategory = "dairy"
	IngredientMeat                  IngredientCategory = "meat"
	IngredientFish                  IngredientCategory = "fish"
	IngredientEgg                   IngredientCategory = "egg"
	IngredientWater                 IngredientCategory = "water"
	IngredientHealthyFat            IngredientCategory = "healthy_fat"
	IngredientRefinedOil            IngredientCategory = "refined_oil"
	IngredientAddedSugar            IngredientCategory = "added_sugar"
	IngredientNonNutritiveSweetener IngredientCategory = "non_nutritive_sweetener"
	IngredientUltraProcessed        IngredientCategory = "ultra_processed"
	IngredientAdditive              IngredientCategory = "additive"
	IngredientSalt                  IngredientCategory = "salt"
	IngredientUnknown               IngredientCategory = "unknown"
)

// IsProduce reports whether the category counts toward the produce estimate.
func (c IngredientCategory) IsProduce() bool {
	switch c {
	case IngredientFruit, IngredientVegetable, IngredientLegume, IngredientNutSeed:
		return true
	default:
		return false
	}
}

// IngredientClassification is the black-box classifier's answer for one name.
type IngredientClassification struct {
	Category    IngredientCategory `json:"category"`
	Explanation string             `json:"explanation,omitempty"`
}

// IngredientHit is a classified ingredient in label order.
type IngredientHit struct {
	Name        string             `json:"name"`
	Normalized  string             `json:"normalized"`
	Category    IngredientCategory `json:"category"`
	Explanation string             `json:"explanation,omitempty"`
	Position    int                `json:"position"`
}

// AdditiveRisk is the lexicon's risk level for an additive.
type AdditiveRisk string

const (
	RiskLow      AdditiveRisk = "low"
	RiskModerate AdditiveRisk = "moderate"
	RiskHigh     AdditiveRisk = "high"
	RiskUnknown  AdditiveRisk = "unknown"
)

// AdditiveEntry is one record of the additive lexicon asset.
type AdditiveEntry struct {
	ID          string       `json:"id" yaml:"id"`
	DisplayName string       `json:"display_name" yaml:"display_name"`
	Aliases     []string     `json:"aliases" yaml:"aliases"`
	Category    string       `json:"category" yaml:"category"`
	Risk        AdditiveRisk `json:"risk" yaml:"risk"`
}

// AdditiveHit is a declared additive resolved against the lexicon.
type AdditiveHit struct {
	Raw         string       `json:"raw"`
	ID          string       `json:"id,omitempty"`
	DisplayName string       `json:"display_name"`
	Category    string       `json:"category,omitempty"`
	Risk        AdditiveRisk `json:"risk"`
}

// IngredientMatch summarizes the ingredient flags the guardrails inspect.
// A flag is primary when it applies to the first listed ingredient.
type IngredientMatch struct {
	RefinedOil              bool               `json:"refined_oil"`
	RefinedOilPrimary       bool               `json:"refined_oil_primary"`
	NonNutritiveSweetener   bool               `json:"non_nutritive_sweetener"`
	UltraProcessed          bool               `json:"ultra_processed"`
	UltraProcessedPrimary   bool               `json:"ultra_processed_primary"`
	FirstIngredientCategory IngredientCategory `json:"first_ingredient_category,omitempty"`
}

// ScoringInput is the immutable bundle produced by the input normalizer and
// consumed by every later pipeline stage.
type ScoringInput struct {
	Product        Product             `json:"product"`
	Category       Category            `json:"category"`
	Density        NutritionDensity    `json:"density"`
	Canonical      NutritionSnapshot   `json:"canonical"`
	CanonicalBasis NutritionBasis      `json:"canonical_basis"`
	Availability   map[NutrientID]bool `json:"availability"`
	EnergyKJ       *float64            `json:"energy_kj,omitempty"`
	IsBeverage     bool                `json:"is_beverage"`
	Produce        ProduceEstimate     `json:"produce"`
	Serving        ServingDescriptor   `json:"serving"`
	IngredientHits []IngredientHit     `json:"ingredient_hits,omitempty"`
	AdditiveHits   []AdditiveHit       `json:"additive_hits,omitempty"`
	Match          IngredientMatch     `json:"match"`
	Focus          HealthFocus         `json:"focus"`
}

// Value returns the canonical per-100 value for a nutrient, including the
// produce estimate.
func (in *ScoringInput) Value(n NutrientID) *float64 {
	if n == NutrientProduce {
		return in.Produce.Percent
	}
	return in.Canonical.Value(n)
}

// BasisUnit returns "100 ml" for beverage bases and "100 g" otherwise.
func (in *ScoringInput) BasisUnit() string {
	if in.CanonicalBasis == BasisPer100ml {
		return "100 ml"
	}
	return "100 g"
}
