package domain

// ThresholdConfig is the resolved scoring threshold for one nutrient in one context.
type ThresholdConfig struct {
	Nutrient  NutrientID `json:"nutrient"`
	Baseline  float64    `json:"baseline"`
	Step      float64    `json:"step"`
	MaxPoints int        `json:"max_points"`
	Weight    float64    `json:"weight"`
	Guideline string     `json:"guideline,omitempty"`
	Context   string     `json:"context"`
}

// NutrientContribution is the scored result for one nutrient axis.
// WeightedPoints always equals RawPoints multiplied by WeightMultiplier.
type NutrientContribution struct {
	Nutrient         NutrientID `json:"nutrient"`
	Label            string     `json:"label"`
	Polarity         Polarity   `json:"polarity"`
	Pillar           PillarID   `json:"pillar"`
	RawPoints        int        `json:"raw_points"`
	WeightMultiplier float64    `json:"weight_multiplier"`
	WeightedPoints   float64    `json:"weighted_points"`
	MaxPoints        int        `json:"max_points"`
	Value            *float64   `json:"value,omitempty"`
	Unit             string     `json:"unit"`
	Explanation      string     `json:"explanation"`
	DataAvailable    bool       `json:"data_available"`
	Excluded         bool       `json:"excluded,omitempty"`
	Modifiers        []string   `json:"modifiers,omitempty"`
}

// Scorable reports whether the contribution takes part in pillar weighting.
func (c NutrientContribution) Scorable() bool {
	return c.DataAvailable && !c.Excluded
}

// PillarSummary records the weight a pillar ended up with.
type PillarSummary struct {
	ID         PillarID     `json:"id"`
	BaseWeight float64      `json:"base_weight"`
	Weight     float64      `json:"weight"`
	Scored     []NutrientID `json:"scored,omitempty"`
	Dropped    bool         `json:"dropped"`
}

// PillarEvaluation is the pillar evaluator's output.
type PillarEvaluation struct {
	Contributions    []NutrientContribution `json:"contributions"`
	Pillars          []PillarSummary        `json:"pillars"`
	RawPositive      int                    `json:"raw_positive"`
	RawNegative      int                    `json:"raw_negative"`
	WeightedPositive float64                `json:"weighted_positive"`
	WeightedNegative float64                `json:"weighted_negative"`
	BaseScore        float64                `json:"base_score"`
	PillarsDropped   []PillarID             `json:"pillars_dropped,omitempty"`
	MissingCritical  []NutrientID           `json:"missing_critical,omitempty"`
	WeightsProfileID string                 `json:"weights_profile_id"`
	ThresholdSetID   string                 `json:"threshold_set_id"`
}

// Contribution returns the contribution for n, or nil.
func (e *PillarEvaluation) Contribution(n NutrientID) *NutrientContribution {
	for i := range e.Contributions {
		if e.Contributions[i].Nutrient == n {
			return &e.Contributions[i]
		}
	}
	return nil
}

// PillarsWithData counts pillars that were not dropped.
func (e *PillarEvaluation) PillarsWithData() int {
	count := 0
	for _, p := range e.Pillars {
		if !p.Dropped {
			count++
		}
	}
	return count
}

// AppliedCap is a guardrail cap that limited the score.
type AppliedCap struct {
	RuleID   string  `json:"rule_id"`
	Tier     CapTier `json:"tier"`
	MaxScore float64 `json:"max_score"`
	Reason   string  `json:"reason"`
}

// Trigger is a red trigger or hard fail raised by a guardrail rule.
type Trigger struct {
	RuleID   string          `json:"rule_id"`
	Severity TriggerSeverity `json:"severity"`
	MaxScore float64         `json:"max_score"`
	Message  string          `json:"message"`
}

// GuardrailOutcome is the guardrail engine's output.
type GuardrailOutcome struct {
	BaseScore       float64         `json:"base_score"`
	NormalizedScore float64         `json:"normalized_score"`
	FinalScore      float64         `json:"final_score"`
	Confidence      ConfidenceLevel `json:"confidence"`
	Range           ConfidenceRange `json:"range"`
	Caps            []AppliedCap    `json:"caps,omitempty"`
	Triggers        []Trigger       `json:"triggers,omitempty"`
	Warning         string          `json:"warning,omitempty"`
	Skipped         []string        `json:"skipped,omitempty"`
	Halted          bool            `json:"halted"`
}

// HardFailed reports whether a hard-fail trigger ended the rule chain.
func (o *GuardrailOutcome) HardFailed() bool {
	for _, t := range o.Triggers {
		if t.Severity == SeverityHardFail {
			return true
		}
	}
	return false
}
