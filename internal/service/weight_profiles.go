package service

import (
	"fmt"

	"github.com/food-health-score-server/internal/domain"
)

// WeightProfile multiplies threshold weights for one health focus.
type WeightProfile struct {
	ID          string
	Focus       domain.HealthFocus
	Multipliers map[domain.NutrientID]float64
}

const weightProfileRevision = "v1"

var weightProfiles = map[domain.HealthFocus]map[domain.NutrientID]float64{
	domain.FocusBalanced: {
		domain.NutrientEnergy:       0.8,
		domain.NutrientSugar:        1.0,
		domain.NutrientSaturatedFat: 0.8,
		domain.NutrientSodium:       0.8,
		domain.NutrientProduce:      1.0,
		domain.NutrientFiber:        1.0,
		domain.NutrientProtein:      0.8,
	},
	domain.FocusGutHealth: {
		domain.NutrientEnergy:       0.7,
		domain.NutrientSugar:        1.0,
		domain.NutrientSaturatedFat: 0.7,
		domain.NutrientSodium:       0.7,
		domain.NutrientProduce:      1.4,
		domain.NutrientFiber:        1.6,
		domain.NutrientProtein:      0.6,
	},
	domain.FocusHeartHealth: {
		domain.NutrientEnergy:       0.7,
		domain.NutrientSugar:        0.8,
		domain.NutrientSaturatedFat: 1.4,
		domain.NutrientSodium:       1.4,
		domain.NutrientProduce:      1.0,
		domain.NutrientFiber:        1.2,
		domain.NutrientProtein:      0.6,
	},
	domain.FocusWeightManagement: {
		domain.NutrientEnergy:       1.4,
		domain.NutrientSugar:        1.2,
		domain.NutrientSaturatedFat: 0.9,
		domain.NutrientSodium:       0.6,
		domain.NutrientProduce:      0.8,
		domain.NutrientFiber:        1.2,
		domain.NutrientProtein:      1.2,
	},
	domain.FocusBloodSugar: {
		domain.NutrientEnergy:       0.8,
		domain.NutrientSugar:        1.6,
		domain.NutrientSaturatedFat: 0.7,
		domain.NutrientSodium:       0.6,
		domain.NutrientProduce:      0.8,
		domain.NutrientFiber:        1.4,
		domain.NutrientProtein:      1.0,
	},
	domain.FocusMuscleGain: {
		domain.NutrientEnergy:       0.6,
		domain.NutrientSugar:        1.0,
		domain.NutrientSaturatedFat: 0.8,
		domain.NutrientSodium:       0.8,
		domain.NutrientProduce:      0.8,
		domain.NutrientFiber:        0.8,
		domain.NutrientProtein:      1.6,
	},
}

// ProfileFor returns the weight profile for a focus. Unknown focuses fall back
// to the balanced profile; boundary parsing rejects them before they get here.
func ProfileFor(focus domain.HealthFocus) WeightProfile {
	multipliers, ok := weightProfiles[focus]
	if !ok {
		focus = domain.FocusBalanced
		multipliers = weightProfiles[focus]
	}
	return WeightProfile{
		ID:          fmt.Sprintf("%s-%s", focus, weightProfileRevision),
		Focus:       focus,
		Multipliers: multipliers,
	}
}

// Multiplier returns the focus multiplier for n, 1 when unspecified.
func (w WeightProfile) Multiplier(n domain.NutrientID) float64 {
	if m, ok := w.Multipliers[n]; ok {
		return m
	}
	return 1
}
