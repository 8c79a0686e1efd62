package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// Pillar evaluation constants.
const (
	BaseScoreOffset      = 40.0
	NegativeRawCeiling   = 60
	PositiveRawCeiling   = 40
	proteinCapEnergyKJ   = 670.0
	proteinCapProduce    = 40.0
	proteinCapPoints     = 5
	hydratingSugarMax    = 0.5
	hydratingEnergyMaxKJ = 20.0
	hydratingProteinMin  = 5
	lowCalBeverageKJ     = 80.0
)

// Contribution modifiers.
const (
	ModifierProteinCap     = "protein capped: high energy with low produce"
	ModifierHydratingFloor = "hydrating beverage protein floor"
	ModifierFiberExempt    = "low-calorie beverage: fiber not scored"
	ModifierRawCeiling     = "scaled to raw point ceiling"
	ModifierCategory       = "category threshold"
	ModifierBeverage       = "beverage threshold"
)

// PillarEvaluator computes nutrient contributions, pillar weights and the base score.
type PillarEvaluator struct {
	logger     *logrus.Logger
	thresholds *ThresholdProvider
}

// NewPillarEvaluator creates a pillar evaluator backed by a threshold provider.
func NewPillarEvaluator(logger *logrus.Logger, thresholds *ThresholdProvider) *PillarEvaluator {
	return &PillarEvaluator{
		logger:     logger,
		thresholds: thresholds,
	}
}

// Evaluate scores every nutrient axis of the input.
func (e *PillarEvaluator) Evaluate(input *domain.ScoringInput) domain.PillarEvaluation {
	profile := ProfileFor(input.Focus)

	// Step 1: raw points and base weights per axis
	contributions := make([]domain.NutrientContribution, 0, len(domain.ScoredNutrients))
	baseWeights := make(map[domain.NutrientID]float64, len(domain.ScoredNutrients))
	for _, n := range domain.ScoredNutrients {
		cfg := e.thresholds.Config(n, input.IsBeverage, input.Category)
		contributions = append(contributions, blueprint(n, cfg, input.Value(n), input.BasisUnit()))
		baseWeights[n] = cfg.Weight * profile.Multiplier(n)
	}

	// Step 2: special cases on raw points, cap before floor
	applyProteinRules(contributions, input)
	applyFiberExemption(contributions, input)

	// Step 3: pillar weights with redistribution for missing data
	multipliers, pillars := pillarWeights(contributions, baseWeights)

	// Step 4: raw point ceilings per polarity
	for i := range contributions {
		contributions[i].WeightMultiplier = multipliers[contributions[i].Nutrient]
	}
	applyCeiling(contributions, domain.PolarityNegative, NegativeRawCeiling)
	applyCeiling(contributions, domain.PolarityPositive, PositiveRawCeiling)

	// Step 5: weighted points and base score
	eval := domain.PillarEvaluation{
		Pillars:          pillars,
		WeightsProfileID: profile.ID,
		ThresholdSetID:   e.thresholds.SetID(),
	}
	for i := range contributions {
		c := &contributions[i]
		c.WeightedPoints = float64(c.RawPoints) * c.WeightMultiplier
		if c.Polarity == domain.PolarityPositive {
			eval.RawPositive += c.RawPoints
			eval.WeightedPositive += c.WeightedPoints
		} else {
			eval.RawNegative += c.RawPoints
			eval.WeightedNegative += c.WeightedPoints
		}
	}
	eval.Contributions = contributions
	eval.BaseScore = BaseScoreOffset + eval.WeightedPositive - eval.WeightedNegative

	for _, p := range pillars {
		if p.Dropped {
			eval.PillarsDropped = append(eval.PillarsDropped, p.ID)
		}
	}

	// Step 6: missing critical nutrients, first-seen order
	seen := make(map[domain.NutrientID]bool)
	for _, n := range domain.CriticalNutrients {
		if !input.Availability[n] && !seen[n] {
			seen[n] = true
			eval.MissingCritical = append(eval.MissingCritical, n)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"weights_profile":   eval.WeightsProfileID,
		"raw_positive":      eval.RawPositive,
		"raw_negative":      eval.RawNegative,
		"weighted_positive": eval.WeightedPositive,
		"weighted_negative": eval.WeightedNegative,
		"base_score":        eval.BaseScore,
		"pillars_dropped":   len(eval.PillarsDropped),
		"missing_critical":  len(eval.MissingCritical),
	}).Debug("Evaluated nutrient pillars")

	return eval
}

// RawPoints returns clamp(ceil((value-baseline)/step), 0, maxPoints).
func RawPoints(value float64, cfg domain.ThresholdConfig) int {
	if value <= cfg.Baseline || cfg.Step <= 0 {
		return 0
	}
	points := int(math.Ceil((value - cfg.Baseline) / cfg.Step))
	if points < 0 {
		return 0
	}
	if points > cfg.MaxPoints {
		return cfg.MaxPoints
	}
	return points
}

func blueprint(n domain.NutrientID, cfg domain.ThresholdConfig, value *float64, basisUnit string) domain.NutrientContribution {
	c := domain.NutrientContribution{
		Nutrient:      n,
		Label:         n.Label(),
		Polarity:      n.Polarity(),
		Pillar:        n.Pillar(),
		MaxPoints:     cfg.MaxPoints,
		Unit:          n.Unit(),
		DataAvailable: value != nil,
	}
	switch {
	case cfg.Context == "standard" || cfg.Context == "":
	case cfg.Context == "beverage":
		c.Modifiers = append(c.Modifiers, ModifierBeverage)
	default:
		c.Modifiers = append(c.Modifiers, ModifierCategory)
	}

	if value == nil {
		c.Explanation = fmt.Sprintf("%s not declared", n.Label())
		return c
	}
	v := *value
	c.Value = &v
	c.RawPoints = RawPoints(v, cfg)

	per := basisUnit
	if n == domain.NutrientProduce {
		per = "ingredients"
	}
	amount := FormatAmount(v, n.Unit())
	baseline := FormatAmount(cfg.Baseline, n.Unit())
	switch {
	case c.RawPoints == 0:
		c.Explanation = fmt.Sprintf("%s %s per %s is within the %s baseline", n.Label(), amount, per, baseline)
	case c.Polarity == domain.PolarityNegative:
		c.Explanation = fmt.Sprintf("%s %s per %s exceeds the %s baseline", n.Label(), amount, per, baseline)
	default:
		c.Explanation = fmt.Sprintf("%s %s per %s is above the %s baseline", n.Label(), amount, per, baseline)
	}
	return c
}

func contributionFor(cs []domain.NutrientContribution, n domain.NutrientID) *domain.NutrientContribution {
	for i := range cs {
		if cs[i].Nutrient == n {
			return &cs[i]
		}
	}
	return nil
}

// applyProteinRules caps the protein bonus for energy-dense, produce-poor products,
// then raises it for hydrating beverages. The floor wins when both apply.
func applyProteinRules(cs []domain.NutrientContribution, input *domain.ScoringInput) {
	protein := contributionFor(cs, domain.NutrientProtein)
	if protein == nil || !protein.DataAvailable {
		return
	}
	energy := input.Value(domain.NutrientEnergy)
	produce := input.Value(domain.NutrientProduce)
	sugar := input.Value(domain.NutrientSugar)

	lowProduce := produce == nil || *produce < proteinCapProduce
	if energy != nil && *energy >= proteinCapEnergyKJ && lowProduce && protein.RawPoints > proteinCapPoints {
		protein.RawPoints = proteinCapPoints
		protein.Modifiers = append(protein.Modifiers, ModifierProteinCap)
	}

	hydrating := input.IsBeverage &&
		sugar != nil && *sugar <= hydratingSugarMax &&
		energy != nil && *energy <= hydratingEnergyMaxKJ
	if hydrating && protein.RawPoints < hydratingProteinMin {
		protein.RawPoints = hydratingProteinMin
		protein.Modifiers = append(protein.Modifiers, ModifierHydratingFloor)
	}
}

// applyFiberExemption keeps zero fiber from counting against low-calorie beverages.
func applyFiberExemption(cs []domain.NutrientContribution, input *domain.ScoringInput) {
	fiber := contributionFor(cs, domain.NutrientFiber)
	energy := input.Value(domain.NutrientEnergy)
	if fiber == nil || fiber.Value == nil || !input.IsBeverage || energy == nil {
		return
	}
	if *energy <= lowCalBeverageKJ && *fiber.Value == 0 {
		fiber.Excluded = true
		fiber.Modifiers = append(fiber.Modifiers, ModifierFiberExempt)
		fiber.Explanation = "Fiber is not expected in a low-calorie beverage"
	}
}

// pillarWeights redistributes each pillar's base weight to its scorable nutrients
// and rescales surviving pillars so the total weight is preserved.
func pillarWeights(cs []domain.NutrientContribution, baseWeights map[domain.NutrientID]float64) (map[domain.NutrientID]float64, []domain.PillarSummary) {
	multipliers := make(map[domain.NutrientID]float64, len(cs))
	pillars := make([]domain.PillarSummary, 0, len(domain.AllPillars))

	var totalWeight, keptWeight float64
	for _, p := range domain.AllPillars {
		summary := domain.PillarSummary{ID: p}
		var scorableWeight float64
		for _, n := range p.Nutrients() {
			summary.BaseWeight += baseWeights[n]
			if c := contributionFor(cs, n); c != nil && c.Scorable() {
				summary.Scored = append(summary.Scored, n)
				scorableWeight += baseWeights[n]
			}
		}
		totalWeight += summary.BaseWeight

		if len(summary.Scored) == 0 {
			summary.Dropped = true
			pillars = append(pillars, summary)
			continue
		}
		keptWeight += summary.BaseWeight
		for _, n := range summary.Scored {
			if scorableWeight > 0 {
				multipliers[n] = summary.BaseWeight * baseWeights[n] / scorableWeight
			}
		}
		summary.Weight = summary.BaseWeight
		pillars = append(pillars, summary)
	}

	scale := 0.0
	if keptWeight > 0 {
		scale = totalWeight / keptWeight
	}
	for n := range multipliers {
		multipliers[n] *= scale
	}
	for i := range pillars {
		pillars[i].Weight *= scale
	}
	return multipliers, pillars
}

// applyCeiling scales the polarity's raw points down to ceiling when their sum
// exceeds it, distributing integers by largest remainder. The polarity's weighted
// total is then min(sum of unscaled raw*multiplier, ceiling*largest multiplier),
// spread over the scaled points by one common factor on every multiplier. That
// total never falls when a raw value rises.
func applyCeiling(cs []domain.NutrientContribution, polarity domain.Polarity, ceiling int) {
	var (
		idx      []int
		values   []int
		weighted float64
		maxMult  float64
	)
	for i := range cs {
		if cs[i].Polarity != polarity {
			continue
		}
		idx = append(idx, i)
		values = append(values, cs[i].RawPoints)
		weighted += float64(cs[i].RawPoints) * cs[i].WeightMultiplier
		maxMult = math.Max(maxMult, cs[i].WeightMultiplier)
	}

	scaled := DistributeCeiling(values, ceiling)
	changed := false
	var scaledWeighted float64
	for k, i := range idx {
		if scaled[k] != cs[i].RawPoints {
			changed = true
			cs[i].RawPoints = scaled[k]
			cs[i].Modifiers = append(cs[i].Modifiers, ModifierRawCeiling)
		}
		scaledWeighted += float64(cs[i].RawPoints) * cs[i].WeightMultiplier
	}
	if !changed || scaledWeighted == 0 {
		return
	}

	factor := math.Min(weighted, float64(ceiling)*maxMult) / scaledWeighted
	for _, i := range idx {
		cs[i].WeightMultiplier *= factor
	}
}

// DistributeCeiling returns values unchanged when their sum is within ceiling.
// Otherwise each value is scaled by ceiling/sum, floored, and the leftover units go
// to the largest fractional remainders, ties broken by position. The result sums
// to exactly ceiling.
func DistributeCeiling(values []int, ceiling int) []int {
	out := make([]int, len(values))
	copy(out, values)

	sum := 0
	for _, v := range values {
		sum += v
	}
	if sum <= ceiling || sum == 0 {
		return out
	}

	factor := float64(ceiling) / float64(sum)
	remainders := make([]float64, len(values))
	distributed := 0
	for i, v := range values {
		exact := float64(v) * factor
		out[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(out[i])
		distributed += out[i]
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := 0; distributed < ceiling && k < len(order); k++ {
		out[order[k]]++
		distributed++
	}
	return out
}

// FormatAmount renders a nutrient value with its unit, e.g. "12.5 g" or "40%".
func FormatAmount(v float64, unit string) string {
	text := fmt.Sprintf("%.1f", v)
	if v == math.Trunc(v) {
		text = fmt.Sprintf("%.0f", v)
	}
	if unit == "%" {
		return text + "%"
	}
	return text + " " + unit
}
