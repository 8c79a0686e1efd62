package domain

// AlgorithmVersion is stamped on every score.
const AlgorithmVersion = "2.3.0"

// ScoreRequest bundles a product with the caller's scoring options.
type ScoreRequest struct {
	Product       Product              `json:"product"`
	CapExclusions []string             `json:"cap_exclusions,omitempty"`
	Restrictions  []DietaryRestriction `json:"restrictions,omitempty"`
	Focus         HealthFocus          `json:"focus,omitempty"`
}

// BreakdownGroup summarizes one polarity of the contribution list.
type BreakdownGroup struct {
	Polarity      Polarity `json:"polarity"`
	Title         string   `json:"title"`
	RawTotal      int      `json:"raw_total"`
	WeightedTotal float64  `json:"weighted_total"`
	MaxTotal      int      `json:"max_total"`
	Factors       []string `json:"factors"`
}

// AdjustmentKind labels a guardrail adjustment in the breakdown.
type AdjustmentKind string

const (
	AdjustmentTierCap    AdjustmentKind = "Tier Cap"
	AdjustmentRedTrigger AdjustmentKind = "Red Trigger"
	AdjustmentHardFail   AdjustmentKind = "Hard Fail"
)

// Adjustment is a guardrail effect reported alongside nutrient points.
// Caps are reported with a zero delta; their effect is the score ceiling.
type Adjustment struct {
	Kind     AdjustmentKind `json:"kind"`
	RuleID   string         `json:"rule_id"`
	Delta    float64        `json:"delta"`
	MaxScore float64        `json:"max_score"`
	Reason   string         `json:"reason"`
}

// TopFactorKind orders top factors by priority.
type TopFactorKind string

const (
	FactorGuardrail TopFactorKind = "guardrail"
	FactorNegative  TopFactorKind = "negative"
	FactorPositive  TopFactorKind = "positive"
)

// TopFactor is one entry of the simplified factor display.
type TopFactor struct {
	Kind   TopFactorKind `json:"kind"`
	Label  string        `json:"label"`
	Value  string        `json:"value,omitempty"`
	Impact float64       `json:"impact"`
}

// HealthScore is the final, fully explained result for one product.
// It carries no timestamps so identical inputs serialize identically.
type HealthScore struct {
	Overall           int                    `json:"overall"`
	Tier              CoarseTier             `json:"tier"`
	Grade             Grade                  `json:"grade"`
	Verdict           Verdict                `json:"verdict"`
	VerdictLabel      string                 `json:"verdict_label"`
	VerdictSource     VerdictSource          `json:"verdict_source"`
	Confidence        ConfidenceLevel        `json:"confidence"`
	ConfidenceRange   ConfidenceRange        `json:"confidence_range"`
	Warning           *string                `json:"warning,omitempty"`
	Category          Category               `json:"category"`
	IsBeverage        bool                   `json:"is_beverage"`
	Contributions     []NutrientContribution `json:"contributions"`
	Breakdown         []BreakdownGroup       `json:"breakdown"`
	Adjustments       []Adjustment           `json:"adjustments,omitempty"`
	TopReasons        []string               `json:"top_reasons,omitempty"`
	TopFactors        []TopFactor            `json:"top_factors,omitempty"`
	Explanation       string                 `json:"explanation"`
	Notes             []string               `json:"notes,omitempty"`
	Percentile        *float64               `json:"percentile,omitempty"`
	CategoryRank      *string                `json:"category_rank,omitempty"`
	DietaryViolations []DietaryRestriction   `json:"dietary_violations,omitempty"`
	AlgorithmVersion  string                 `json:"algorithm_version"`
	WeightsProfileID  string                 `json:"weights_profile_id"`
	ThresholdSetID    string                 `json:"threshold_set_id"`
	AdditiveLexiconID string                 `json:"additive_lexicon_id"`
	Guardrails        GuardrailOutcome       `json:"guardrails"`
}

// LogFields returns structured logging fields for the score.
func (s *HealthScore) LogFields() map[string]any {
	return map[string]any{
		"score":              s.Overall,
		"tier":               string(s.Tier),
		"grade":              string(s.Grade),
		"verdict":            string(s.Verdict),
		"confidence":         string(s.Confidence),
		"category":           string(s.Category),
		"caps":               len(s.Guardrails.Caps),
		"triggers":           len(s.Guardrails.Triggers),
		"algorithm_version":  s.AlgorithmVersion,
		"weights_profile_id": s.WeightsProfileID,
		"threshold_set_id":   s.ThresholdSetID,
	}
}
