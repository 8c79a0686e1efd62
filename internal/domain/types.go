// Package domain contains the core entities of the packaged-food health scoring engine:
// raw product records, normalized scoring inputs, nutrient contributions, guardrail
// outcomes and the final explainable health score.
//
// Scores are reproducible: identical inputs evaluated against identical asset versions
// (threshold table, additive lexicon, weight profile) always yield identical results.
package domain

import (
	"errors"
	"fmt"
)

// NutrientID identifies one of the seven scored nutrient axes.
type NutrientID string

const (
	NutrientEnergy       NutrientID = "energy"
	NutrientSugar        NutrientID = "sugar"
	NutrientSaturatedFat NutrientID = "saturated_fat"
	NutrientSodium       NutrientID = "sodium"
	NutrientProduce      NutrientID = "produce"
	NutrientFiber        NutrientID = "fiber"
	NutrientProtein      NutrientID = "protein"
)

// ScoredNutrients lists the axes in evaluation order.
var ScoredNutrients = []NutrientID{
	NutrientEnergy,
	NutrientSugar,
	NutrientSaturatedFat,
	NutrientSodium,
	NutrientProduce,
	NutrientFiber,
	NutrientProtein,
}

// CriticalNutrients are the label fields whose absence degrades confidence.
// Produce is estimated rather than declared, so it is not critical.
var CriticalNutrients = []NutrientID{
	NutrientEnergy,
	NutrientSugar,
	NutrientSaturatedFat,
	NutrientSodium,
	NutrientFiber,
	NutrientProtein,
}

// Polarity describes whether a nutrient raises or lowers the score.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// PillarID identifies one of the four weighted nutrient pillars.
type PillarID string

const (
	PillarSugar             PillarID = "sugar"
	PillarSodium            PillarID = "sodium"
	PillarMetabolicLoad     PillarID = "metabolic_load"
	PillarPositiveNutrition PillarID = "positive_nutrition"
)

// AllPillars lists pillars in evaluation order.
var AllPillars = []PillarID{
	PillarSugar,
	PillarSodium,
	PillarMetabolicLoad,
	PillarPositiveNutrition,
}

// ConfidenceLevel represents the confidence in a final score
type ConfidenceLevel string

const (
	HIGH   ConfidenceLevel = "High"
	MEDIUM ConfidenceLevel = "Medium"
	LOW    ConfidenceLevel = "Low"
)

// ConfidenceRange is the permissible score interval for a confidence level.
type ConfidenceRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// CapTier is a guardrail severity tier. Lower tiers are more severe.
type CapTier int

const (
	Tier0 CapTier = iota
	Tier1
	Tier2
	Tier3
	Tier4
)

// TriggerSeverity classifies non-cap guardrail outcomes.
type TriggerSeverity string

const (
	SeverityRed      TriggerSeverity = "red"
	SeverityHardFail TriggerSeverity = "hard_fail"
)

// DataConfidence is the input normalizer's assessment of label completeness.
type DataConfidence string

const (
	DataConfidenceHigh   DataConfidence = "high"
	DataConfidenceMedium DataConfidence = "medium"
	DataConfidenceLow    DataConfidence = "low"
)

// MissingField tags a label field the normalizer could not use.
type MissingField string

const (
	MissingEnergy       MissingField = "energy"
	MissingSugar        MissingField = "sugar"
	MissingSaturatedFat MissingField = "saturatedFat"
	MissingSodium       MissingField = "sodium"
	MissingFiber        MissingField = "fiber"
	MissingProtein      MissingField = "protein"
	MissingMassOrVolume MissingField = "massOrVolumeMissing"
)

// NutritionBasis tells how declared label values relate to quantity.
type NutritionBasis string

const (
	BasisPer100g    NutritionBasis = "per_100g"
	BasisPer100ml   NutritionBasis = "per_100ml"
	BasisPerServing NutritionBasis = "per_serving"
	BasisAssumed100 NutritionBasis = "assumed_100"
)

// ProduceMethod records how the produce percentage was obtained.
type ProduceMethod string

const (
	ProduceFromLabel        ProduceMethod = "label"
	ProduceSingleIngredient ProduceMethod = "single_ingredient"
	ProduceHeuristic        ProduceMethod = "heuristic"
	ProduceNone             ProduceMethod = "none"
)

// CoarseTier is the headline bucket shown next to the score.
type CoarseTier string

const (
	CoarseTierExcellent        CoarseTier = "excellent"
	CoarseTierGood             CoarseTier = "good"
	CoarseTierFair             CoarseTier = "fair"
	CoarseTierPoor             CoarseTier = "poor"
	CoarseTierInsufficientData CoarseTier = "insufficient_data"
)

// Grade is the letter grade derived from the final score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Verdict is the five-level consumer verdict.
type Verdict string

const (
	VerdictExcellent Verdict = "excellent"
	VerdictGood      Verdict = "good"
	VerdictOkay      Verdict = "okay"
	VerdictFair      Verdict = "fair"
	VerdictAvoid     Verdict = "avoid"
)

// VerdictSource records which signal produced the verdict.
type VerdictSource string

const (
	VerdictFromScore      VerdictSource = "score"
	VerdictFromNutriScore VerdictSource = "nutri_score"
)

// Validation errors raised at the input boundary
var (
	ErrInvalidRestriction = errors.New("invalid dietary restriction")
	ErrInvalidFocus       = errors.New("invalid health focus")
	ErrInvalidBasis       = errors.New("invalid nutrition basis")
	ErrInvalidNutriScore  = errors.New("invalid Nutri-Score grade")
	ErrInvalidCategory    = errors.New("invalid product category")
	ErrAssetUnavailable   = errors.New("scoring asset unavailable")
)

// IsValid reports whether n is one of the scored axes.
func (n NutrientID) IsValid() bool {
	switch n {
	case NutrientEnergy, NutrientSugar, NutrientSaturatedFat, NutrientSodium,
		NutrientProduce, NutrientFiber, NutrientProtein:
		return true
	default:
		return false
	}
}

// String returns the string representation of the nutrient.
func (n NutrientID) String() string {
	return string(n)
}

// Label returns the display name used in explanations.
func (n NutrientID) Label() string {
	switch n {
	case NutrientEnergy:
		return "Energy"
	case NutrientSugar:
		return "Sugar"
	case NutrientSaturatedFat:
		return "Saturated fat"
	case NutrientSodium:
		return "Sodium"
	case NutrientProduce:
		return "Fruit & vegetables"
	case NutrientFiber:
		return "Fiber"
	case NutrientProtein:
		return "Protein"
	default:
		return string(n)
	}
}

// Unit returns the unit thresholds for n are expressed in.
func (n NutrientID) Unit() string {
	switch n {
	case NutrientEnergy:
		return "kJ"
	case NutrientSodium:
		return "mg"
	case NutrientProduce:
		return "%"
	default:
		return "g"
	}
}

// Polarity returns whether n adds to or subtracts from the score.
func (n NutrientID) Polarity() Polarity {
	switch n {
	case NutrientProduce, NutrientFiber, NutrientProtein:
		return PolarityPositive
	default:
		return PolarityNegative
	}
}

// Pillar returns the pillar n belongs to.
func (n NutrientID) Pillar() PillarID {
	switch n {
	case NutrientSugar:
		return PillarSugar
	case NutrientSodium:
		return PillarSodium
	case NutrientEnergy, NutrientSaturatedFat:
		return PillarMetabolicLoad
	default:
		return PillarPositiveNutrition
	}
}

// MissingField returns the missing-field tag for a critical nutrient.
func (n NutrientID) MissingField() MissingField {
	switch n {
	case NutrientEnergy:
		return MissingEnergy
	case NutrientSugar:
		return MissingSugar
	case NutrientSaturatedFat:
		return MissingSaturatedFat
	case NutrientSodium:
		return MissingSodium
	case NutrientFiber:
		return MissingFiber
	case NutrientProtein:
		return MissingProtein
	default:
		return MissingField(n)
	}
}

// Nutrients returns the axes grouped under the pillar.
func (p PillarID) Nutrients() []NutrientID {
	switch p {
	case PillarSugar:
		return []NutrientID{NutrientSugar}
	case PillarSodium:
		return []NutrientID{NutrientSodium}
	case PillarMetabolicLoad:
		return []NutrientID{NutrientEnergy, NutrientSaturatedFat}
	case PillarPositiveNutrition:
		return []NutrientID{NutrientProduce, NutrientFiber, NutrientProtein}
	default:
		return nil
	}
}

// String returns the string representation of the pillar.
func (p PillarID) String() string {
	return string(p)
}

// IsValid validates the confidence level.
func (c ConfidenceLevel) IsValid() bool {
	switch c {
	case HIGH, MEDIUM, LOW:
		return true
	default:
		return false
	}
}

// String returns the string representation of the confidence level.
func (c ConfidenceLevel) String() string {
	return string(c)
}

// Range returns the permissible score interval for the confidence level.
func (c ConfidenceLevel) Range() ConfidenceRange {
	switch c {
	case HIGH:
		return ConfidenceRange{Lower: 0, Upper: 100}
	case MEDIUM:
		return ConfidenceRange{Lower: 10, Upper: 90}
	default:
		return ConfidenceRange{Lower: 20, Upper: 80}
	}
}

// Rank orders confidence levels; higher is more confident.
func (c ConfidenceLevel) Rank() int {
	switch c {
	case HIGH:
		return 2
	case MEDIUM:
		return 1
	default:
		return 0
	}
}

// LogFields returns structured logging fields for the confidence level.
func (c ConfidenceLevel) LogFields() map[string]any {
	r := c.Range()
	return map[string]any{
		"confidence":  string(c),
		"range_lower": r.Lower,
		"range_upper": r.Upper,
		"is_valid":    c.IsValid(),
	}
}

// Clamp restricts v to the range.
func (r ConfidenceRange) Clamp(v float64) float64 {
	if v < r.Lower {
		return r.Lower
	}
	if v > r.Upper {
		return r.Upper
	}
	return v
}

// MaxScore returns the highest final score allowed at the tier.
func (t CapTier) MaxScore() float64 {
	switch t {
	case Tier0:
		return 25
	case Tier1:
		return 55
	case Tier2:
		return 80
	case Tier3:
		return 90
	default:
		return 100
	}
}

// Relax raises the tier by steps without passing Tier4.
func (t CapTier) Relax(steps int) CapTier {
	if steps <= 0 {
		return t
	}
	relaxed := t + CapTier(steps)
	if relaxed > Tier4 {
		return Tier4
	}
	return relaxed
}

// String returns the tier name, e.g. "tier2".
func (t CapTier) String() string {
	return fmt.Sprintf("tier%d", int(t))
}

// Label returns the consumer label for the verdict.
func (v Verdict) Label() string {
	switch v {
	case VerdictExcellent:
		return "Excellent choice"
	case VerdictGood:
		return "Good choice"
	case VerdictOkay:
		return "Okay in moderation"
	case VerdictFair:
		return "Occasional treat"
	case VerdictAvoid:
		return "Best avoided"
	default:
		return string(v)
	}
}

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// ParseNutritionBasis validates a basis string from a product record.
// An empty string means the basis should be detected from the serving text.
func ParseNutritionBasis(s string) (NutritionBasis, error) {
	switch NutritionBasis(s) {
	case "":
		return "", nil
	case BasisPer100g, BasisPer100ml, BasisPerServing:
		return NutritionBasis(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBasis, s)
	}
}

// IsPer100 reports whether values are expressed per 100 g or 100 ml.
func (b NutritionBasis) IsPer100() bool {
	return b == BasisPer100g || b == BasisPer100ml || b == BasisAssumed100
}
