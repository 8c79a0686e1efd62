package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// Confidence warnings.
const (
	warningMediumConfidence = "Some nutrition facts are missing; the score may be less accurate."
	warningLowConfidence    = "Several nutrition facts are missing; treat this score as a rough estimate."
	warningLowDataQuality   = "Nutrition data could not be normalized reliably; the score may be less accurate."
	warningSweetener        = "Sweeteners can make a product look healthier than it is; confidence lowered."
)

// defaultLeniency relaxes specific caps for categories where the breach is expected.
var defaultLeniency = map[string]map[domain.Category]int{
	RuleNutrientCeilings: {
		domain.CategoryCheese:     1,
		domain.CategoryNutsSeeds:  1,
		domain.CategoryNutButter:  1,
		domain.CategoryDressing:   1,
		domain.CategoryCondiment:  1,
		domain.CategoryDriedFruit: 1,
	},
}

// GuardrailEngine folds the ordered rule chain into a GuardrailOutcome.
type GuardrailEngine struct {
	logger   *logrus.Logger
	rules    []GuardrailRule
	dietary  *DietaryChecker
	leniency map[string]map[domain.Category]int
}

// NewGuardrailEngine creates an engine with the default rule chain.
func NewGuardrailEngine(logger *logrus.Logger, dietary *DietaryChecker) *GuardrailEngine {
	return NewGuardrailEngineWithRules(logger, dietary, DefaultGuardrailRules())
}

// NewGuardrailEngineWithRules creates an engine with a custom rule chain.
func NewGuardrailEngineWithRules(logger *logrus.Logger, dietary *DietaryChecker, rules []GuardrailRule) *GuardrailEngine {
	return &GuardrailEngine{
		logger:   logger,
		rules:    rules,
		dietary:  dietary,
		leniency: defaultLeniency,
	}
}

// Apply runs every rule in order against the evaluated input.
func (g *GuardrailEngine) Apply(input *domain.ScoringInput, eval *domain.PillarEvaluation, capExclusions []string, restrictions []domain.DietaryRestriction) domain.GuardrailOutcome {
	excluded := make(map[string]bool, len(capExclusions))
	for _, id := range capExclusions {
		excluded[id] = true
	}

	confidence, warning := confidenceForMissing(len(eval.MissingCritical))
	if input.Density.Confidence == domain.DataConfidenceLow && confidence == domain.HIGH {
		confidence = domain.MEDIUM
		warning = warningLowDataQuality
	}

	normalized := math.Max(0, math.Min(100, eval.BaseScore))
	outcome := domain.GuardrailOutcome{
		BaseScore:       eval.BaseScore,
		NormalizedScore: normalized,
		Confidence:      confidence,
		Range:           confidence.Range(),
		Warning:         warning,
	}
	running := normalized

	ctx := &RuleContext{
		Input:        input,
		Evaluation:   eval,
		Restrictions: restrictions,
		Dietary:      g.dietary,
		BaseScore:    eval.BaseScore,
	}

	triggered := false
	for i, rule := range g.rules {
		result := rule.Evaluate(ctx)

		switch result.Kind {
		case RuleNone:
			continue

		case RuleCap:
			// a trigger already raised outranks every later cap
			if triggered || excluded[rule.ID()] {
				outcome.Skipped = append(outcome.Skipped, rule.ID())
				continue
			}
			tier := result.Tier.Relax(g.leniency[rule.ID()][input.Category])
			if tier == domain.Tier4 {
				outcome.Skipped = append(outcome.Skipped, rule.ID())
				continue
			}
			ceiling := tier.MaxScore()
			outcome.Caps = append(outcome.Caps, domain.AppliedCap{
				RuleID:   rule.ID(),
				Tier:     tier,
				MaxScore: ceiling,
				Reason:   result.Reason,
			})
			running = math.Min(running, ceiling)
			outcome.Range.Upper = math.Min(outcome.Range.Upper, ceiling)

		case RuleRedTrigger:
			triggered = true
			outcome.Triggers = append(outcome.Triggers, domain.Trigger{
				RuleID:   rule.ID(),
				Severity: domain.SeverityRed,
				MaxScore: sweetenerTriggerMaxScore,
				Message:  result.Reason,
			})
			running = math.Min(running, sweetenerTriggerMaxScore)
			outcome.Confidence = domain.LOW
			outcome.Range.Lower = math.Max(outcome.Range.Lower, domain.LOW.Range().Lower)
			outcome.Range.Upper = math.Min(outcome.Range.Upper, sweetenerTriggerMaxScore)
			outcome.Warning = warningSweetener

		case RuleHardFail:
			outcome.Triggers = append(outcome.Triggers, domain.Trigger{
				RuleID:   rule.ID(),
				Severity: domain.SeverityHardFail,
				MaxScore: 0,
				Message:  result.Reason,
			})
			running = 0
			outcome.Range = domain.ConfidenceRange{Lower: 0, Upper: 0}
			outcome.Halted = true
			for _, rest := range g.rules[i+1:] {
				outcome.Skipped = append(outcome.Skipped, rest.ID())
			}
		}

		if outcome.Halted {
			break
		}
	}

	if outcome.Range.Lower > outcome.Range.Upper {
		outcome.Range.Lower = outcome.Range.Upper
	}
	outcome.FinalScore = outcome.Range.Clamp(running)

	g.logger.WithFields(logrus.Fields{
		"base_score":  outcome.BaseScore,
		"final_score": outcome.FinalScore,
		"confidence":  outcome.Confidence,
		"caps":        len(outcome.Caps),
		"triggers":    len(outcome.Triggers),
		"halted":      outcome.Halted,
	}).Debug("Applied guardrails")

	return outcome
}

func confidenceForMissing(missing int) (domain.ConfidenceLevel, string) {
	switch {
	case missing == 0:
		return domain.HIGH, ""
	case missing <= 2:
		return domain.MEDIUM, warningMediumConfidence
	default:
		return domain.LOW, warningLowConfidence
	}
}
