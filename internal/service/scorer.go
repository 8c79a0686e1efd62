package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/assets"
	"github.com/food-health-score-server/internal/domain"
)

const (
	topFactorLimit     = 3
	topFactorMinImpact = 3.0
)

// Scorer is the pipeline orchestrator. It is immutable after construction and safe
// for concurrent use; the only shared state lives behind the percentile tracker.
type Scorer struct {
	logger       *logrus.Logger
	normalizer   *InputNormalizer
	thresholds   *ThresholdProvider
	evaluator    *PillarEvaluator
	guardrails   *GuardrailEngine
	mapper       *TierMapper
	dietary      *DietaryChecker
	lexicon      domain.AdditiveLexicon
	tracker      domain.PercentileTracker
	defaultFocus domain.HealthFocus
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithPercentileTracker enables category percentile enrichment.
func WithPercentileTracker(tracker domain.PercentileTracker) ScorerOption {
	return func(s *Scorer) {
		s.tracker = tracker
	}
}

// WithDefaultFocus sets the focus used when a request does not name one.
func WithDefaultFocus(focus domain.HealthFocus) ScorerOption {
	return func(s *Scorer) {
		if focus.IsValid() {
			s.defaultFocus = focus
		}
	}
}

// WithGuardrailRules replaces the default guardrail rule chain.
func WithGuardrailRules(rules []GuardrailRule) ScorerOption {
	return func(s *Scorer) {
		s.guardrails = NewGuardrailEngineWithRules(s.logger, s.dietary, rules)
	}
}

// NewScorer wires the pipeline from loaded assets and injected collaborators.
func NewScorer(
	logger *logrus.Logger,
	thresholds *assets.ThresholdTable,
	lexicon domain.AdditiveLexicon,
	classifier domain.IngredientClassifier,
	keywords domain.DietaryKeywordSets,
	opts ...ScorerOption,
) *Scorer {
	provider := NewThresholdProvider(thresholds)
	dietary := NewDietaryChecker(keywords)

	s := &Scorer{
		logger:       logger,
		normalizer:   NewInputNormalizer(logger, classifier, lexicon),
		thresholds:   provider,
		evaluator:    NewPillarEvaluator(logger, provider),
		guardrails:   NewGuardrailEngine(logger, dietary),
		mapper:       NewTierMapper(),
		dietary:      dietary,
		lexicon:      lexicon,
		defaultFocus: domain.FocusBalanced,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ThresholdSetID returns the active threshold table stamp.
func (s *Scorer) ThresholdSetID() string {
	return s.thresholds.SetID()
}

// AdditiveLexiconID returns the active additive lexicon stamp.
func (s *Scorer) AdditiveLexiconID() string {
	if s.lexicon == nil {
		return ""
	}
	return s.lexicon.ID()
}

// Score runs the full pipeline for one product. It never fails; missing data lowers
// confidence instead.
func (s *Scorer) Score(req domain.ScoreRequest) *domain.HealthScore {
	focus := req.Focus
	if focus == "" || !focus.IsValid() {
		focus = s.defaultFocus
	}
	product := req.Product

	// Step 1: normalize the raw record
	input := s.normalizer.Normalize(&product, focus)

	// Step 2: nutrient contributions and base score
	eval := s.evaluator.Evaluate(&input)

	// Step 3: guardrail chain
	outcome := s.guardrails.Apply(&input, &eval, req.CapExclusions, req.Restrictions)

	// Step 4: explanation and breakdown
	mapping := s.mapper.Map(&eval, &outcome)

	overall := int(math.Round(outcome.FinalScore))
	score := &domain.HealthScore{
		Overall:           overall,
		Tier:              CoarseTierFor(overall, eval.PillarsWithData()),
		Grade:             GradeFor(overall),
		Verdict:           VerdictFor(overall),
		VerdictSource:     domain.VerdictFromScore,
		Confidence:        outcome.Confidence,
		ConfidenceRange:   outcome.Range,
		Category:          input.Category,
		IsBeverage:        input.IsBeverage,
		Contributions:     eval.Contributions,
		Breakdown:         mapping.Breakdown,
		Adjustments:       mapping.Adjustments,
		TopReasons:        mapping.TopReasons,
		TopFactors:        topFactors(&eval, &outcome, &input),
		Explanation:       mapping.Explanation,
		Notes:             input.Density.Notes,
		DietaryViolations: s.dietary.Violations(product.Ingredients, req.Restrictions),
		AlgorithmVersion:  domain.AlgorithmVersion,
		WeightsProfileID:  eval.WeightsProfileID,
		ThresholdSetID:    eval.ThresholdSetID,
		AdditiveLexiconID: s.AdditiveLexiconID(),
		Guardrails:        outcome,
	}
	if outcome.Warning != "" {
		warning := outcome.Warning
		score.Warning = &warning
	}

	// Step 5: external verdict, else percentile context
	if v, err := domain.NutriScoreVerdict(product.NutriScoreGrade); err == nil {
		score.Verdict = v
		score.VerdictSource = domain.VerdictFromNutriScore
	} else if s.tracker != nil {
		s.attachPercentile(score)
		s.tracker.RecordScore(overall, string(input.Category))
	}
	score.VerdictLabel = score.Verdict.Label()

	s.logger.WithFields(logrus.Fields(score.LogFields())).Info("Product scored")

	return score
}

// RefreshPercentile replaces the percentile context of a previously computed
// score with the tracker's current answer. The score is not recorded again.
func (s *Scorer) RefreshPercentile(score *domain.HealthScore) {
	score.Percentile = nil
	score.CategoryRank = nil
	if s.tracker == nil || score.VerdictSource == domain.VerdictFromNutriScore {
		return
	}
	s.attachPercentile(score)
}

func (s *Scorer) attachPercentile(score *domain.HealthScore) {
	pct, ok := s.tracker.Percentile(score.Overall, string(score.Category))
	if !ok {
		return
	}
	rank := fmt.Sprintf("Better than %.0f%% of %s products", pct, score.Category.DisplayName())
	score.Percentile = &pct
	score.CategoryRank = &rank
}

// CheckDietaryViolations reports which restrictions the ingredient list breaks,
// using the same matching as the dietary guardrail.
func (s *Scorer) CheckDietaryViolations(ingredients []string, restrictions []domain.DietaryRestriction) []domain.DietaryRestriction {
	return s.dietary.Violations(ingredients, restrictions)
}

// CheckDietaryDetails is CheckDietaryViolations with the matched keywords.
func (s *Scorer) CheckDietaryDetails(ingredients []string, restrictions []domain.DietaryRestriction) []DietaryViolation {
	return s.dietary.Check(ingredients, restrictions)
}

// CoarseTierFor maps a final score to its headline tier.
func CoarseTierFor(score, pillarsWithData int) domain.CoarseTier {
	switch {
	case pillarsWithData < 2:
		return domain.CoarseTierInsufficientData
	case score >= 80:
		return domain.CoarseTierExcellent
	case score >= 60:
		return domain.CoarseTierGood
	case score >= 40:
		return domain.CoarseTierFair
	default:
		return domain.CoarseTierPoor
	}
}

// GradeFor maps a final score to a letter grade.
func GradeFor(score int) domain.Grade {
	switch {
	case score >= 80:
		return domain.GradeA
	case score >= 60:
		return domain.GradeB
	case score >= 40:
		return domain.GradeC
	case score >= 20:
		return domain.GradeD
	default:
		return domain.GradeF
	}
}

// VerdictFor maps a final score to the five-level verdict.
func VerdictFor(score int) domain.Verdict {
	switch {
	case score >= 80:
		return domain.VerdictExcellent
	case score >= 65:
		return domain.VerdictGood
	case score >= 50:
		return domain.VerdictOkay
	case score >= 35:
		return domain.VerdictFair
	default:
		return domain.VerdictAvoid
	}
}

// topFactors picks at most three display factors: guardrails first, then large
// negative contributions, then large positive ones.
func topFactors(eval *domain.PillarEvaluation, outcome *domain.GuardrailOutcome, input *domain.ScoringInput) []domain.TopFactor {
	var factors []domain.TopFactor
	for _, t := range outcome.Triggers {
		factors = append(factors, domain.TopFactor{
			Kind:   domain.FactorGuardrail,
			Label:  t.Message,
			Value:  fmt.Sprintf("max %.0f", t.MaxScore),
			Impact: math.Min(0, t.MaxScore-outcome.NormalizedScore),
		})
	}
	for _, c := range outcome.Caps {
		factors = append(factors, domain.TopFactor{
			Kind:   domain.FactorGuardrail,
			Label:  c.Reason,
			Value:  fmt.Sprintf("max %.0f", c.MaxScore),
			Impact: math.Min(0, c.MaxScore-outcome.NormalizedScore),
		})
	}

	for _, polarity := range []domain.Polarity{domain.PolarityNegative, domain.PolarityPositive} {
		for _, c := range rankedContributions(eval.Contributions, polarity) {
			if c.WeightedPoints < topFactorMinImpact {
				continue
			}
			impact := c.WeightedPoints
			if polarity == domain.PolarityNegative {
				impact = -impact
			}
			factors = append(factors, domain.TopFactor{
				Kind:   factorKind(polarity),
				Label:  c.Label,
				Value:  factorValue(c, input),
				Impact: impact,
			})
		}
	}

	if len(factors) > topFactorLimit {
		factors = factors[:topFactorLimit]
	}
	return factors
}

func factorKind(p domain.Polarity) domain.TopFactorKind {
	if p == domain.PolarityNegative {
		return domain.FactorNegative
	}
	return domain.FactorPositive
}

func factorValue(c domain.NutrientContribution, input *domain.ScoringInput) string {
	if c.Value == nil {
		return ""
	}
	if c.Nutrient == domain.NutrientProduce {
		return FormatAmount(*c.Value, c.Unit)
	}
	return strings.TrimSpace(FormatAmount(*c.Value, c.Unit) + " per " + input.BasisUnit())
}
