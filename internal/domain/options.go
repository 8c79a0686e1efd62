package domain

import (
	"fmt"
	"strings"
)

// DietaryRestriction is a consumer dietary constraint checked against ingredients.
type DietaryRestriction string

const (
	RestrictionVegan      DietaryRestriction = "vegan"
	RestrictionVegetarian DietaryRestriction = "vegetarian"
	RestrictionGlutenFree DietaryRestriction = "gluten_free"
	RestrictionDairyFree  DietaryRestriction = "dairy_free"
	RestrictionNutFree    DietaryRestriction = "nut_free"
)

// AllRestrictions lists restrictions in reporting order.
var AllRestrictions = []DietaryRestriction{
	RestrictionVegan,
	RestrictionVegetarian,
	RestrictionGlutenFree,
	RestrictionDairyFree,
	RestrictionNutFree,
}

// HealthFocus selects the nutrient weight profile used for scoring.
type HealthFocus string

const (
	FocusBalanced         HealthFocus = "balanced"
	FocusGutHealth        HealthFocus = "gut_health"
	FocusHeartHealth      HealthFocus = "heart_health"
	FocusWeightManagement HealthFocus = "weight_management"
	FocusBloodSugar       HealthFocus = "blood_sugar"
	FocusMuscleGain       HealthFocus = "muscle_gain"
)

// AllHealthFocuses lists every supported focus.
var AllHealthFocuses = []HealthFocus{
	FocusBalanced,
	FocusGutHealth,
	FocusHeartHealth,
	FocusWeightManagement,
	FocusBloodSugar,
	FocusMuscleGain,
}

// Category is the normalized product category used for threshold overrides,
// guardrail leniency and percentile grouping.
type Category string

const (
	CategoryBeverage        Category = "beverage"
	CategoryBreakfastCereal Category = "breakfast_cereal"
	CategoryDressing        Category = "dressing"
	CategoryCondiment       Category = "condiment"
	CategoryCheese          Category = "cheese"
	CategoryYogurt          Category = "yogurt"
	CategoryDairy           Category = "dairy"
	CategoryNutButter       Category = "nut_butter"
	CategoryNutsSeeds       Category = "nuts_seeds"
	CategoryDriedFruit      Category = "dried_fruit"
	CategoryBreadBakery     Category = "bread_bakery"
	CategorySnack           Category = "snack"
	CategoryConfectionery   Category = "confectionery"
	CategoryOther           Category = "other"
)

// AllCategories lists every normalized category.
var AllCategories = []Category{
	CategoryBeverage,
	CategoryBreakfastCereal,
	CategoryDressing,
	CategoryCondiment,
	CategoryCheese,
	CategoryYogurt,
	CategoryDairy,
	CategoryNutButter,
	CategoryNutsSeeds,
	CategoryDriedFruit,
	CategoryBreadBakery,
	CategorySnack,
	CategoryConfectionery,
	CategoryOther,
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// ParseDietaryRestriction normalizes a user-supplied restriction string.
// "Gluten-Free", "gluten free" and "gluten_free" are all accepted.
func ParseDietaryRestriction(s string) (DietaryRestriction, error) {
	r := DietaryRestriction(normalizeToken(s))
	if r.IsValid() {
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRestriction, s)
}

// ParseDietaryRestrictions parses a list, failing on the first unknown entry.
func ParseDietaryRestrictions(values []string) ([]DietaryRestriction, error) {
	out := make([]DietaryRestriction, 0, len(values))
	seen := make(map[DietaryRestriction]bool, len(values))
	for _, v := range values {
		r, err := ParseDietaryRestriction(v)
		if err != nil {
			return nil, err
		}
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out, nil
}

// IsValid validates the restriction.
func (r DietaryRestriction) IsValid() bool {
	switch r {
	case RestrictionVegan, RestrictionVegetarian, RestrictionGlutenFree,
		RestrictionDairyFree, RestrictionNutFree:
		return true
	default:
		return false
	}
}

// String returns the string representation of the restriction.
func (r DietaryRestriction) String() string {
	return string(r)
}

// Label returns a display label, e.g. "Gluten-free".
func (r DietaryRestriction) Label() string {
	switch r {
	case RestrictionVegan:
		return "Vegan"
	case RestrictionVegetarian:
		return "Vegetarian"
	case RestrictionGlutenFree:
		return "Gluten-free"
	case RestrictionDairyFree:
		return "Dairy-free"
	case RestrictionNutFree:
		return "Nut-free"
	default:
		return string(r)
	}
}

var focusAliases = map[string]HealthFocus{
	"":                    FocusBalanced,
	"general":             FocusBalanced,
	"gut":                 FocusGutHealth,
	"digestion":           FocusGutHealth,
	"digestive_health":    FocusGutHealth,
	"heart":               FocusHeartHealth,
	"cardiovascular":      FocusHeartHealth,
	"weight_loss":         FocusWeightManagement,
	"weight":              FocusWeightManagement,
	"diabetes":            FocusBloodSugar,
	"blood_sugar_control": FocusBloodSugar,
	"muscle":              FocusMuscleGain,
	"muscle_building":     FocusMuscleGain,
	"protein":             FocusMuscleGain,
}

// ParseHealthFocus maps a user-supplied focus string to a HealthFocus.
// The empty string selects the balanced profile.
func ParseHealthFocus(s string) (HealthFocus, error) {
	token := normalizeToken(s)
	f := HealthFocus(token)
	if f.IsValid() {
		return f, nil
	}
	if alias, ok := focusAliases[token]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFocus, s)
}

// IsValid validates the health focus.
func (f HealthFocus) IsValid() bool {
	for _, known := range AllHealthFocuses {
		if f == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the focus.
func (f HealthFocus) String() string {
	return string(f)
}

// ParseCategory validates an already-normalized category string.
func ParseCategory(s string) (Category, error) {
	c := Category(normalizeToken(s))
	if c.IsValid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// IsValid validates the category.
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// DisplayName returns a human readable plural used in rank text.
func (c Category) DisplayName() string {
	switch c {
	case CategoryOther, "":
		return "packaged food"
	case CategoryBreakfastCereal:
		return "breakfast cereal"
	case CategoryNutButter:
		return "nut butter"
	case CategoryNutsSeeds:
		return "nut and seed"
	case CategoryDriedFruit:
		return "dried fruit"
	case CategoryBreadBakery:
		return "bakery"
	default:
		return strings.ReplaceAll(string(c), "_", " ")
	}
}

// NutriScoreVerdict maps an external Nutri-Score grade (a-e) to a verdict.
func NutriScoreVerdict(grade string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(grade)) {
	case "a":
		return VerdictExcellent, nil
	case "b":
		return VerdictGood, nil
	case "c":
		return VerdictOkay, nil
	case "d":
		return VerdictFair, nil
	case "e":
		return VerdictAvoid, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidNutriScore, grade)
	}
}
