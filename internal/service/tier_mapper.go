package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/food-health-score-server/internal/domain"
)

const (
	explanationPreamble = "Scores start at 40; healthy nutrients add points and nutrients to limit subtract them."
	maxTopReasons       = 5
	maxExplained        = 2
)

// TierMapping is the presentation-ready view of an evaluation and its guardrails.
type TierMapping struct {
	Explanation string
	Breakdown   []domain.BreakdownGroup
	Adjustments []domain.Adjustment
	TopReasons  []string
}

// TierMapper turns evaluations into breakdowns and explanations. It is stateless.
type TierMapper struct{}

// NewTierMapper creates a tier mapper.
func NewTierMapper() *TierMapper {
	return &TierMapper{}
}

// Map builds the breakdown groups, explanation, adjustments and top reasons.
func (m *TierMapper) Map(eval *domain.PillarEvaluation, outcome *domain.GuardrailOutcome) TierMapping {
	positives := rankedContributions(eval.Contributions, domain.PolarityPositive)
	negatives := rankedContributions(eval.Contributions, domain.PolarityNegative)

	return TierMapping{
		Explanation: explain(positives, negatives, outcome),
		Breakdown: []domain.BreakdownGroup{
			breakdownGroup(eval.Contributions, domain.PolarityPositive, "Positive nutrients"),
			breakdownGroup(eval.Contributions, domain.PolarityNegative, "Nutrients to limit"),
		},
		Adjustments: adjustments(outcome),
		TopReasons:  topReasons(positives, negatives, outcome),
	}
}

// rankedContributions returns the polarity's contributions with points, largest
// weighted first, ties in evaluation order.
func rankedContributions(cs []domain.NutrientContribution, polarity domain.Polarity) []domain.NutrientContribution {
	var out []domain.NutrientContribution
	for _, c := range cs {
		if c.Polarity == polarity && c.WeightedPoints > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WeightedPoints > out[j].WeightedPoints
	})
	return out
}

func breakdownGroup(cs []domain.NutrientContribution, polarity domain.Polarity, title string) domain.BreakdownGroup {
	group := domain.BreakdownGroup{Polarity: polarity, Title: title, Factors: []string{}}
	sign := "+"
	if polarity == domain.PolarityNegative {
		sign = "-"
	}
	for _, c := range cs {
		if c.Polarity != polarity {
			continue
		}
		group.RawTotal += c.RawPoints
		group.WeightedTotal += c.WeightedPoints
		group.MaxTotal += c.MaxPoints

		switch {
		case c.Excluded:
			group.Factors = append(group.Factors, fmt.Sprintf("%s: not scored", c.Label))
		case !c.DataAvailable:
			group.Factors = append(group.Factors, fmt.Sprintf("%s: not declared", c.Label))
		default:
			group.Factors = append(group.Factors, fmt.Sprintf("%s %s: %s%.1f (%d/%d)",
				c.Label, FormatAmount(*c.Value, c.Unit), sign, c.WeightedPoints, c.RawPoints, c.MaxPoints))
		}
	}
	return group
}

func explain(positives, negatives []domain.NutrientContribution, outcome *domain.GuardrailOutcome) string {
	parts := []string{explanationPreamble}
	if len(positives) > 0 {
		parts = append(parts, "Strengths: "+joinContributions(positives, "+")+".")
	}
	if len(negatives) > 0 {
		parts = append(parts, "Concerns: "+joinContributions(negatives, "-")+".")
	}
	if outcome.Warning != "" {
		parts = append(parts, outcome.Warning)
	}
	return strings.Join(parts, " ")
}

func joinContributions(cs []domain.NutrientContribution, sign string) string {
	n := len(cs)
	if n > maxExplained {
		n = maxExplained
	}
	items := make([]string, 0, n)
	for _, c := range cs[:n] {
		items = append(items, fmt.Sprintf("%s (%s%.1f)", strings.ToLower(c.Label), sign, c.WeightedPoints))
	}
	return strings.Join(items, ", ")
}

// adjustments reports guardrail effects with zero delta; the effect is already in
// the final score.
func adjustments(outcome *domain.GuardrailOutcome) []domain.Adjustment {
	var out []domain.Adjustment
	for _, c := range outcome.Caps {
		out = append(out, domain.Adjustment{
			Kind:     domain.AdjustmentTierCap,
			RuleID:   c.RuleID,
			MaxScore: c.MaxScore,
			Reason:   fmt.Sprintf("%s (%s, max %.0f)", c.Reason, c.Tier, c.MaxScore),
		})
	}
	for _, t := range outcome.Triggers {
		kind := domain.AdjustmentRedTrigger
		if t.Severity == domain.SeverityHardFail {
			kind = domain.AdjustmentHardFail
		}
		out = append(out, domain.Adjustment{
			Kind:     kind,
			RuleID:   t.RuleID,
			MaxScore: t.MaxScore,
			Reason:   t.Message,
		})
	}
	return out
}

func topReasons(positives, negatives []domain.NutrientContribution, outcome *domain.GuardrailOutcome) []string {
	var reasons []string
	for _, t := range outcome.Triggers {
		reasons = append(reasons, t.Message)
	}
	for _, c := range outcome.Caps {
		reasons = append(reasons, c.Reason)
	}

	ranked := make([]domain.NutrientContribution, 0, len(positives)+len(negatives))
	ranked = append(ranked, negatives...)
	ranked = append(ranked, positives...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].WeightedPoints > ranked[j].WeightedPoints
	})
	for _, c := range ranked {
		if c.Polarity == domain.PolarityNegative {
			reasons = append(reasons, fmt.Sprintf("%s lowers the score by %.1f points", c.Label, c.WeightedPoints))
		} else {
			reasons = append(reasons, fmt.Sprintf("%s adds %.1f points", c.Label, c.WeightedPoints))
		}
	}

	if len(reasons) > maxTopReasons {
		reasons = reasons[:maxTopReasons]
	}
	return reasons
}
