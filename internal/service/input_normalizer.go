package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// Normalization notes surfaced on the score.
const (
	noteDerivedFromMass   = "derived from label mass"
	noteDerivedFromVolume = "derived from label volume"
	noteWaterDensity      = "assumed water density (1 ml ≈ 1 g)"
	noteServingUnparsed   = "serving size unparseable; values assumed per 100 g"
	noteAllZero           = "all nutrients reported as zero"
	notePerServingCopied  = "serving size unknown; per-serving values equal label values"
)

const trailingPunctuation = ".,;:*!†‡"

var parentheticalPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

// NormalizeIngredientName lower-cases an ingredient, removes parenthetical
// sub-ingredients and trailing punctuation, and collapses whitespace.
func NormalizeIngredientName(name string) string {
	n := strings.ToLower(name)
	n = parentheticalPattern.ReplaceAllString(n, " ")
	n = strings.Join(strings.Fields(n), " ")
	return strings.Trim(n, trailingPunctuation+" ")
}

// InputNormalizer converts raw product records into ScoringInput values. It never
// fails: absent or unusable data is reported through missing-field tags, notes and
// the data-confidence level.
type InputNormalizer struct {
	logger     *logrus.Logger
	classifier domain.IngredientClassifier
	lexicon    domain.AdditiveLexicon
}

// NewInputNormalizer creates a normalizer using the given collaborators.
func NewInputNormalizer(logger *logrus.Logger, classifier domain.IngredientClassifier, lexicon domain.AdditiveLexicon) *InputNormalizer {
	return &InputNormalizer{
		logger:     logger,
		classifier: classifier,
		lexicon:    lexicon,
	}
}

// Normalize builds the scoring input for a product.
func (n *InputNormalizer) Normalize(product *domain.Product, focus domain.HealthFocus) domain.ScoringInput {
	var notes []string

	label, dropped := domain.SnapshotFromProduct(product)
	for _, field := range dropped {
		notes = append(notes, fmt.Sprintf("invalid %s value ignored", field))
	}

	category := MapCategory(product.Category, product.Name)

	basis, err := domain.ParseNutritionBasis(product.NutritionBasis)
	if err != nil {
		notes = append(notes, fmt.Sprintf("unknown nutrition basis %q ignored", product.NutritionBasis))
		basis = ""
	}
	if basis == "" {
		basis = DetectBasis(product.ServingSize)
	}

	beverage := category == domain.CategoryBeverage || basis == domain.BasisPer100ml
	if product.IsBeverage != nil {
		beverage = *product.IsBeverage
	}
	serving := ParseServing(product.ServingSize, beverage)
	if product.IsBeverage == nil && !beverage && serving.Milliliters != nil && serving.Grams == nil {
		beverage = true
	}

	density, canonical, canonicalBasis := n.buildDensity(label, basis, serving, beverage, notes)

	hits := n.classifyIngredients(product.Ingredients)
	additives := n.resolveAdditives(product.Additives)

	input := domain.ScoringInput{
		Product:        *product,
		Category:       category,
		Density:        density,
		Canonical:      canonical,
		CanonicalBasis: canonicalBasis,
		EnergyKJ:       canonical.EnergyKJ,
		IsBeverage:     beverage,
		Produce:        estimateProduce(product.FruitVegetablePercent, hits, beverage),
		Serving:        serving,
		IngredientHits: hits,
		AdditiveHits:   additives,
		Match:          matchIngredients(hits, additives),
		Focus:          focus,
	}

	input.Availability = make(map[domain.NutrientID]bool, len(domain.ScoredNutrients))
	for _, nutrient := range domain.ScoredNutrients {
		input.Availability[nutrient] = input.Value(nutrient) != nil
	}

	n.logger.WithFields(logrus.Fields{
		"product":         product.Name,
		"category":        category,
		"basis":           canonicalBasis,
		"is_beverage":     beverage,
		"data_confidence": density.Confidence,
		"missing_fields":  len(density.MissingFields),
		"ingredients":     len(hits),
		"additives":       len(additives),
	}).Debug("Normalized product input")

	return input
}

// buildDensity derives every snapshot it can and picks the canonical per-100 one.
func (n *InputNormalizer) buildDensity(label domain.NutritionSnapshot, basis domain.NutritionBasis, serving domain.ServingDescriptor, beverage bool, notes []string) (domain.NutritionDensity, domain.NutritionSnapshot, domain.NutritionBasis) {
	density := domain.NutritionDensity{}
	var canonical domain.NutritionSnapshot
	var canonicalBasis domain.NutritionBasis
	massMissing := false

	switch basis {
	case domain.BasisPer100g, domain.BasisPer100ml:
		per100 := label
		canonical = per100
		canonicalBasis = basis
		if basis == domain.BasisPer100ml {
			density.Per100ml = &per100
			if beverage {
				assumed := per100
				density.Per100g = &assumed
				notes = append(notes, noteWaterDensity)
			}
		} else {
			density.Per100g = &per100
		}

		quantity := serving.Grams
		if basis == domain.BasisPer100ml || quantity == nil {
			quantity = serving.Milliliters
			if quantity == nil {
				quantity = serving.Grams
			}
		}
		if quantity != nil {
			density.PerServing = per100.Scale(*quantity / 100)
		} else {
			density.PerServing = label
			notes = append(notes, notePerServingCopied)
		}

	default:
		density.PerServing = label
		switch {
		case serving.Grams != nil:
			per100g := label.Scale(100 / *serving.Grams)
			density.Per100g = &per100g
			canonical = per100g
			canonicalBasis = domain.BasisPer100g
			notes = append(notes, noteDerivedFromMass)
		case serving.Milliliters != nil:
			per100ml := label.Scale(100 / *serving.Milliliters)
			density.Per100ml = &per100ml
			canonical = per100ml
			canonicalBasis = domain.BasisPer100ml
			notes = append(notes, noteDerivedFromVolume)
			if beverage {
				assumed := per100ml
				density.Per100g = &assumed
				notes = append(notes, noteWaterDensity)
			}
		default:
			massMissing = true
			canonical = label
			canonicalBasis = domain.BasisAssumed100
			notes = append(notes, noteServingUnparsed)
		}
	}

	for _, nutrient := range domain.CriticalNutrients {
		if canonical.Value(nutrient) == nil {
			density.MissingFields = append(density.MissingFields, nutrient.MissingField())
		}
	}
	coreMissing := len(density.MissingFields)
	if massMissing {
		density.MissingFields = append(density.MissingFields, domain.MissingMassOrVolume)
	}

	switch {
	case massMissing || coreMissing >= 3:
		density.Confidence = domain.DataConfidenceLow
	case coreMissing > 0:
		density.Confidence = domain.DataConfidenceMedium
	default:
		density.Confidence = domain.DataConfidenceHigh
	}

	if !beverage && label.AllZero() {
		density.Confidence = domain.DataConfidenceLow
		notes = append(notes, noteAllZero)
	}

	density.Notes = notes
	return density, canonical, canonicalBasis
}

func (n *InputNormalizer) classifyIngredients(ingredients []string) []domain.IngredientHit {
	hits := make([]domain.IngredientHit, 0, len(ingredients))
	seen := make(map[string]bool, len(ingredients))
	for _, raw := range ingredients {
		normalized := NormalizeIngredientName(raw)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true

		hit := domain.IngredientHit{
			Name:       strings.TrimSpace(raw),
			Normalized: normalized,
			Category:   domain.IngredientUnknown,
			Position:   len(hits),
		}
		if n.classifier != nil {
			c := n.classifier.Classify(normalized)
			hit.Category = c.Category
			hit.Explanation = c.Explanation
		}
		hits = append(hits, hit)
	}
	return hits
}

func (n *InputNormalizer) resolveAdditives(additives []string) []domain.AdditiveHit {
	hits := make([]domain.AdditiveHit, 0, len(additives))
	seen := make(map[string]bool, len(additives))
	for _, raw := range additives {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		hit := domain.AdditiveHit{Raw: raw, DisplayName: raw, Risk: domain.RiskUnknown}
		if n.lexicon != nil {
			if entry, ok := n.lexicon.Lookup(raw); ok {
				hit.ID = entry.ID
				hit.DisplayName = entry.DisplayName
				hit.Category = entry.Category
				hit.Risk = entry.Risk
			}
		}
		key := hit.ID
		if key == "" {
			key = strings.ToLower(raw)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		hits = append(hits, hit)
	}
	return hits
}

func matchIngredients(hits []domain.IngredientHit, additives []domain.AdditiveHit) domain.IngredientMatch {
	var m domain.IngredientMatch
	for i, hit := range hits {
		if i == 0 {
			m.FirstIngredientCategory = hit.Category
		}
		switch hit.Category {
		case domain.IngredientRefinedOil:
			m.RefinedOil = true
			m.RefinedOilPrimary = m.RefinedOilPrimary || i == 0
		case domain.IngredientNonNutritiveSweetener:
			m.NonNutritiveSweetener = true
		case domain.IngredientUltraProcessed:
			m.UltraProcessed = true
			m.UltraProcessedPrimary = m.UltraProcessedPrimary || i == 0
		}
	}
	for _, a := range additives {
		if a.Risk == domain.RiskHigh {
			m.UltraProcessed = true
		}
	}
	return m
}

// estimateProduce prefers a label claim, then a single produce ingredient, then a
// position-weighted share where the i-th of n ingredients weighs n-i. Water does not
// count toward a beverage's denominator.
func estimateProduce(claim *float64, hits []domain.IngredientHit, beverage bool) domain.ProduceEstimate {
	if claim != nil && !math.IsNaN(*claim) && *claim >= 0 {
		return domain.ProduceEstimate{Percent: domain.Float(math.Min(*claim, 100)), Method: domain.ProduceFromLabel}
	}
	if len(hits) == 0 {
		return domain.ProduceEstimate{Method: domain.ProduceNone}
	}
	if len(hits) == 1 && hits[0].Category.IsProduce() {
		return domain.ProduceEstimate{Percent: domain.Float(100), Method: domain.ProduceSingleIngredient}
	}

	total := len(hits)
	var produce, denominator float64
	for i, hit := range hits {
		if beverage && hit.Category == domain.IngredientWater {
			continue
		}
		weight := float64(total - i)
		denominator += weight
		if hit.Category.IsProduce() {
			produce += weight
		}
	}
	percent := 0.0
	if denominator > 0 {
		percent = math.Round(produce/denominator*1000) / 10
	}
	return domain.ProduceEstimate{Percent: domain.Float(percent), Method: domain.ProduceHeuristic}
}
