package domain

import (
	"math"
	"strings"
)

// KilojoulesPerKilocalorie converts label calories to kilojoules.
const KilojoulesPerKilocalorie = 4.184

// Product is a raw packaged-food record as supplied by a scanner, catalog or API client.
// Optional numeric fields are nil when the label does not declare them; zero is a
// valid measurement.
type Product struct {
	Barcode               string   `json:"barcode,omitempty" yaml:"barcode"`
	Name                  string   `json:"name" yaml:"name"`
	Brand                 string   `json:"brand,omitempty" yaml:"brand"`
	Category              string   `json:"category,omitempty" yaml:"category"`
	Calories              *float64 `json:"calories,omitempty" yaml:"calories"`
	Protein               *float64 `json:"protein,omitempty" yaml:"protein"`
	Carbohydrates         *float64 `json:"carbohydrates,omitempty" yaml:"carbohydrates"`
	Fat                   *float64 `json:"fat,omitempty" yaml:"fat"`
	SaturatedFat          *float64 `json:"saturated_fat,omitempty" yaml:"saturated_fat"`
	Fiber                 *float64 `json:"fiber,omitempty" yaml:"fiber"`
	Sugar                 *float64 `json:"sugar,omitempty" yaml:"sugar"`
	Sodium                *float64 `json:"sodium,omitempty" yaml:"sodium"`           // milligrams
	Cholesterol           *float64 `json:"cholesterol,omitempty" yaml:"cholesterol"` // milligrams
	ServingSize           string   `json:"serving_size,omitempty" yaml:"serving_size"`
	NutritionBasis        string   `json:"nutrition_basis,omitempty" yaml:"nutrition_basis"`
	Ingredients           []string `json:"ingredients,omitempty" yaml:"ingredients"`
	Additives             []string `json:"additives,omitempty" yaml:"additives"`
	Allergens             []string `json:"allergens,omitempty" yaml:"allergens"`
	DietaryFlags          []string `json:"dietary_flags,omitempty" yaml:"dietary_flags"`
	FruitVegetablePercent *float64 `json:"fruit_vegetable_percent,omitempty" yaml:"fruit_vegetable_percent"`
	NutriScoreGrade       string   `json:"nutri_score_grade,omitempty" yaml:"nutri_score_grade"`
	IsBeverage            *bool    `json:"is_beverage,omitempty" yaml:"is_beverage"`
}

// Float returns a pointer to v, for building products in code.
func Float(v float64) *float64 {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

// Validate checks the record at the input boundary. The scoring core never
// rejects a product; callers that accept untrusted input validate first.
func (p *Product) Validate() error {
	numeric := []struct {
		field string
		value *float64
	}{
		{"calories", p.Calories},
		{"protein", p.Protein},
		{"carbohydrates", p.Carbohydrates},
		{"fat", p.Fat},
		{"saturated_fat", p.SaturatedFat},
		{"fiber", p.Fiber},
		{"sugar", p.Sugar},
		{"sodium", p.Sodium},
		{"cholesterol", p.Cholesterol},
		{"fruit_vegetable_percent", p.FruitVegetablePercent},
	}
	for _, n := range numeric {
		if n.value == nil {
			continue
		}
		v := *n.value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewValidationError(n.field, "must be a finite number", v)
		}
		if v < 0 {
			return NewValidationError(n.field, "must not be negative", v)
		}
	}
	if p.FruitVegetablePercent != nil && *p.FruitVegetablePercent > 100 {
		return NewValidationError("fruit_vegetable_percent", "must not exceed 100", *p.FruitVegetablePercent)
	}
	if _, err := ParseNutritionBasis(p.NutritionBasis); err != nil {
		return NewValidationError("nutrition_basis", err.Error(), p.NutritionBasis)
	}
	if strings.TrimSpace(p.NutriScoreGrade) != "" {
		if _, err := NutriScoreVerdict(p.NutriScoreGrade); err != nil {
			return NewValidationError("nutri_score_grade", err.Error(), p.NutriScoreGrade)
		}
	}
	return nil
}

// NutritionSnapshot holds nutrient values on a single basis (per 100 g, per 100 ml
// or per serving). Energy is carried both as label calories and kilojoules.
type NutritionSnapshot struct {
	EnergyKJ      *float64 `json:"energy_kj,omitempty"`
	Calories      *float64 `json:"calories,omitempty"`
	Protein       *float64 `json:"protein,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	SodiumMg      *float64 `json:"sodium_mg,omitempty"`
	CholesterolMg *float64 `json:"cholesterol_mg,omitempty"`
}

// SnapshotFromProduct copies the declared label values. Negative values are
// dropped and reported through the returned field names.
func SnapshotFromProduct(p *Product) (NutritionSnapshot, []string) {
	var dropped []string
	keep := func(name string, v *float64) *float64 {
		if v == nil {
			return nil
		}
		if *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			dropped = append(dropped, name)
			return nil
		}
		c := *v
		return &c
	}
	s := NutritionSnapshot{
		Calories:      keep("calories", p.Calories),
		Protein:       keep("protein", p.Protein),
		Carbohydrates: keep("carbohydrates", p.Carbohydrates),
		Fat:           keep("fat", p.Fat),
		SaturatedFat:  keep("saturated_fat", p.SaturatedFat),
		Fiber:         keep("fiber", p.Fiber),
		Sugar:         keep("sugar", p.Sugar),
		SodiumMg:      keep("sodium", p.Sodium),
		CholesterolMg: keep("cholesterol", p.Cholesterol),
	}
	if s.Calories != nil {
		s.EnergyKJ = Float(*s.Calories * KilojoulesPerKilocalorie)
	}
	return s, dropped
}

// Scale multiplies every present value by factor.
func (s NutritionSnapshot) Scale(factor float64) NutritionSnapshot {
	mul := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		return Float(*v * factor)
	}
	return NutritionSnapshot{
		EnergyKJ:      mul(s.EnergyKJ),
		Calories:      mul(s.Calories),
		Protein:       mul(s.Protein),
		Carbohydrates: mul(s.Carbohydrates),
		Fat:           mul(s.Fat),
		SaturatedFat:  mul(s.SaturatedFat),
		Fiber:         mul(s.Fiber),
		Sugar:         mul(s.Sugar),
		SodiumMg:      mul(s.SodiumMg),
		CholesterolMg: mul(s.CholesterolMg),
	}
}

// Value returns the snapshot value for a scored nutrient. Produce is not part
// of a nutrition panel and always yields nil.
func (s NutritionSnapshot) Value(n NutrientID) *float64 {
	switch n {
	case NutrientEnergy:
		return s.EnergyKJ
	case NutrientSugar:
		return s.Sugar
	case NutrientSaturatedFat:
		return s.SaturatedFat
	case NutrientSodium:
		return s.SodiumMg
	case NutrientFiber:
		return s.Fiber
	case NutrientProtein:
		return s.Protein
	default:
		return nil
	}
}

// AllZero reports whether at least one value is declared and every declared
// value is zero.
func (s NutritionSnapshot) AllZero() bool {
	values := []*float64{s.Calories, s.Protein, s.Carbohydrates, s.Fat,
		s.SaturatedFat, s.Fiber, s.Sugar, s.SodiumMg}
	declared := false
	for _, v := range values {
		if v == nil {
			continue
		}
		declared = true
		if *v != 0 {
			return false
		}
	}
	return declared
}
