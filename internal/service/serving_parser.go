package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/food-health-score-server/internal/domain"
)

// Household measure approximations.
const (
	gramsPerTablespoon = 15.0
	gramsPerTeaspoon   = 5.0
	gramsPerCup        = 240.0
	gramsPerOunce      = 28.35
	millilitersPerFlOz = 29.5735
)

const quantityPattern = `(\d+\s+\d+/\d+|\d+/\d+|\d+(?:[.,]\d+)?)`

var (
	parenthesisedPattern = regexp.MustCompile(`\(([^)]*)\)`)
	explicitUnitPattern  = regexp.MustCompile(`(?i)` + quantityPattern + `\s*(fl\.?\s*oz|kg|kilograms?|grams?|gr|g|ml|milliliters?|millilitres?|liters?|litres?|l)\b`)
	householdPattern     = regexp.MustCompile(`(?i)(?:` + quantityPattern + `\s*)?(tablespoons?|tbsps?|tbs|teaspoons?|tsps?|cups?|ounces?|oz)\b`)
	per100gPattern       = regexp.MustCompile(`(?i)\b100\s*g\b`)
	per100mlPattern      = regexp.MustCompile(`(?i)\b100\s*ml\b`)
)

// DetectBasis infers the label basis from serving-size text.
func DetectBasis(servingText string) domain.NutritionBasis {
	switch {
	case per100mlPattern.MatchString(servingText):
		return domain.BasisPer100ml
	case per100gPattern.MatchString(servingText):
		return domain.BasisPer100g
	default:
		return domain.BasisPerServing
	}
}

// ParseServing extracts a mass or volume from free-text serving descriptions.
// Explicit units inside parentheses win over everything else, then explicit units
// anywhere, then household measures. Household measures are reported in
// milliliters for beverages and grams otherwise.
func ParseServing(text string, beverage bool) domain.ServingDescriptor {
	desc := domain.ServingDescriptor{Text: strings.TrimSpace(text), Source: domain.ServingNone}
	if desc.Text == "" {
		return desc
	}

	for _, m := range parenthesisedPattern.FindAllStringSubmatch(desc.Text, -1) {
		if parseExplicit(m[1], &desc) {
			return desc
		}
	}
	if parseExplicit(desc.Text, &desc) {
		return desc
	}
	parseHousehold(desc.Text, beverage, &desc)
	return desc
}

func parseExplicit(text string, desc *domain.ServingDescriptor) bool {
	m := explicitUnitPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	qty, ok := parseQuantity(m[1])
	if !ok || qty <= 0 {
		return false
	}
	unit := strings.ToLower(strings.Join(strings.Fields(m[2]), ""))
	switch {
	case strings.HasPrefix(unit, "fl"):
		desc.Milliliters = domain.Float(qty * millilitersPerFlOz)
	case unit == "kg" || strings.HasPrefix(unit, "kilogram"):
		desc.Grams = domain.Float(qty * 1000)
	case unit == "g" || unit == "gr" || strings.HasPrefix(unit, "gram"):
		desc.Grams = domain.Float(qty)
	case unit == "ml" || strings.HasPrefix(unit, "millil"):
		desc.Milliliters = domain.Float(qty)
	default:
		desc.Milliliters = domain.Float(qty * 1000)
	}
	desc.Source = domain.ServingExplicitUnit
	return true
}

func parseHousehold(text string, beverage bool, desc *domain.ServingDescriptor) bool {
	m := householdPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	qty := 1.0
	if m[1] != "" {
		q, ok := parseQuantity(m[1])
		if !ok || q <= 0 {
			return false
		}
		qty = q
	}

	unit := strings.ToLower(m[2])
	var amount float64
	volume := true
	switch {
	case strings.HasPrefix(unit, "tablespoon"), strings.HasPrefix(unit, "tbs"):
		amount = qty * gramsPerTablespoon
	case strings.HasPrefix(unit, "teaspoon"), strings.HasPrefix(unit, "tsp"):
		amount = qty * gramsPerTeaspoon
	case strings.HasPrefix(unit, "cup"):
		amount = qty * gramsPerCup
	case beverage:
		// beverage ounces are fluid ounces
		amount = qty * millilitersPerFlOz
	default:
		amount = qty * gramsPerOunce
		volume = false
	}

	if volume && beverage {
		desc.Milliliters = domain.Float(amount)
	} else {
		desc.Grams = domain.Float(amount)
	}
	desc.Source = domain.ServingHouseholdMeasure
	return true
}

// parseQuantity accepts "2", "2.5", "2,5", "1/2" and "1 1/2".
func parseQuantity(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	fields := strings.Fields(s)
	total := 0.0
	for _, f := range fields {
		if num, den, ok := strings.Cut(f, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 != nil || err2 != nil || d == 0 {
				return 0, false
			}
			total += n / d
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, false
		}
		total += v
	}
	return total, len(fields) > 0
}
