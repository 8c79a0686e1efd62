package assets

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// BeverageContext is the context id for per-100 ml beverage overrides.
const BeverageContext = "beverage"

// CategoryContext returns the context id for a category override.
func CategoryContext(c domain.Category) string {
	return "category:" + string(c)
}

// ContextOverride replaces selected threshold fields in one context.
// Category contexts may only override baseline and step.
type ContextOverride struct {
	ID        string   `json:"id" yaml:"id"`
	Baseline  *float64 `json:"baseline,omitempty" yaml:"baseline"`
	Step      *float64 `json:"step,omitempty" yaml:"step"`
	MaxPoints *int     `json:"maxPoints,omitempty" yaml:"maxPoints"`
	Weight    *float64 `json:"weight,omitempty" yaml:"weight"`
}

// ThresholdEntry is the default threshold for one nutrient plus its overrides.
type ThresholdEntry struct {
	ID        domain.NutrientID `json:"id" yaml:"id"`
	Baseline  float64           `json:"baseline" yaml:"baseline"`
	Step      float64           `json:"step" yaml:"step"`
	MaxPoints int               `json:"maxPoints" yaml:"maxPoints"`
	Weight    float64           `json:"weight" yaml:"weight"`
	Guideline string            `json:"guideline,omitempty" yaml:"guideline"`
	Contexts  []ContextOverride `json:"contexts,omitempty" yaml:"contexts"`
}

// Override returns the override for a context id, if any.
func (e *ThresholdEntry) Override(contextID string) (ContextOverride, bool) {
	for _, c := range e.Contexts {
		if c.ID == contextID {
			return c, true
		}
	}
	return ContextOverride{}, false
}

// ThresholdTable is the versioned threshold asset.
type ThresholdTable struct {
	Metadata   Metadata         `json:"metadata" yaml:"metadata"`
	Thresholds []ThresholdEntry `json:"thresholds" yaml:"thresholds"`
}

// Entry returns the entry for a nutrient.
func (t *ThresholdTable) Entry(n domain.NutrientID) (*ThresholdEntry, bool) {
	for i := range t.Thresholds {
		if t.Thresholds[i].ID == n {
			return &t.Thresholds[i], true
		}
	}
	return nil, false
}

// Validate checks that every scored nutrient has a usable threshold.
func (t *ThresholdTable) Validate() error {
	if err := t.Metadata.validate(); err != nil {
		return err
	}
	seen := make(map[domain.NutrientID]bool, len(t.Thresholds))
	for _, e := range t.Thresholds {
		if !e.ID.IsValid() {
			return fmt.Errorf("unknown nutrient %q", e.ID)
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate threshold for %s", e.ID)
		}
		seen[e.ID] = true
		if e.Step <= 0 {
			return fmt.Errorf("threshold %s: step must be positive", e.ID)
		}
		if e.MaxPoints <= 0 {
			return fmt.Errorf("threshold %s: maxPoints must be positive", e.ID)
		}
		if e.Weight < 0 {
			return fmt.Errorf("threshold %s: weight must not be negative", e.ID)
		}
		for _, c := range e.Contexts {
			if err := validateContext(e.ID, c); err != nil {
				return err
			}
		}
	}
	for _, n := range domain.ScoredNutrients {
		if !seen[n] {
			return fmt.Errorf("missing threshold for %s", n)
		}
	}
	return nil
}

func validateContext(n domain.NutrientID, c ContextOverride) error {
	switch {
	case c.ID == BeverageContext:
	case strings.HasPrefix(c.ID, "category:"):
		if _, err := domain.ParseCategory(strings.TrimPrefix(c.ID, "category:")); err != nil {
			return fmt.Errorf("threshold %s: %w", n, err)
		}
		if c.MaxPoints != nil || c.Weight != nil {
			return fmt.Errorf("threshold %s: context %s may only override baseline and step", n, c.ID)
		}
	default:
		return fmt.Errorf("threshold %s: unknown context %q", n, c.ID)
	}
	if c.Step != nil && *c.Step <= 0 {
		return fmt.Errorf("threshold %s: context %s step must be positive", n, c.ID)
	}
	if c.MaxPoints != nil && *c.MaxPoints <= 0 {
		return fmt.Errorf("threshold %s: context %s maxPoints must be positive", n, c.ID)
	}
	return nil
}

// LoadThresholdTable reads and validates a threshold asset file.
func LoadThresholdTable(path string) (*ThresholdTable, error) {
	table := &ThresholdTable{}
	if err := readFile(path, table); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid threshold asset %s: %w", path, err)
	}
	return table, nil
}

// EmbeddedThresholdTable returns the threshold asset shipped with the binary.
func EmbeddedThresholdTable() (*ThresholdTable, error) {
	table := &ThresholdTable{}
	if err := readEmbedded(embeddedThresholds, table); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedded threshold asset: %w", err)
	}
	return table, nil
}

// Thresholds resolves the threshold table for a configured path. An empty path
// selects the embedded asset. Any failure yields the hardcoded defaults.
func Thresholds(path string, logger *logrus.Logger) *ThresholdTable {
	var (
		table *ThresholdTable
		err   error
	)
	if path == "" {
		table, err = EmbeddedThresholdTable()
	} else {
		table, err = LoadThresholdTable(path)
	}
	if err != nil {
		fallback := DefaultThresholdTable()
		logger.WithError(err).WithFields(logrus.Fields{
			"path":     path,
			"fallback": fallback.Metadata.SetID(),
		}).Warn("Threshold asset unavailable, using built-in defaults")
		return fallback
	}
	logger.WithField("threshold_set", table.Metadata.SetID()).Debug("Loaded threshold asset")
	return table
}

func f64(v float64) *float64 { return &v }

// DefaultThresholdTable returns the hardcoded fallback thresholds.
func DefaultThresholdTable() *ThresholdTable {
	return &ThresholdTable{
		Metadata: Metadata{
			ID:          "builtin-thresholds",
			Version:     "fallback",
			Description: "Hardcoded defaults used when the threshold asset is unavailable",
		},
		Thresholds: []ThresholdEntry{
			{
				ID:        domain.NutrientEnergy,
				Baseline:  335,
				Step:      200,
				MaxPoints: 15,
				Weight:    1.0,
				Guideline: "Energy density above 335 kJ/100 g adds load",
				Contexts: []ContextOverride{
					{ID: BeverageContext, Baseline: f64(30), Step: f64(30)},
				},
			},
			{
				ID:        domain.NutrientSugar,
				Baseline:  4.5,
				Step:      3,
				MaxPoints: 20,
				Weight:    1.0,
				Guideline: "Total sugars above 4.5 g/100 g",
				Contexts: []ContextOverride{
					{ID: BeverageContext, Baseline: f64(0), Step: f64(1.5)},
					{ID: CategoryContext(domain.CategoryBreakfastCereal), Baseline: f64(6), Step: f64(3)},
					{ID: CategoryContext(domain.CategoryDressing), Baseline: f64(6), Step: f64(3)},
					{ID: CategoryContext(domain.CategoryYogurt), Baseline: f64(6), Step: f64(3)},
					{ID: CategoryContext(domain.CategoryDriedFruit), Baseline: f64(15), Step: f64(4)},
				},
			},
			{
				ID:        domain.NutrientSaturatedFat,
				Baseline:  1,
				Step:      1,
				MaxPoints: 15,
				Weight:    1.0,
				Guideline: "Saturated fat above 1 g/100 g",
				Contexts: []ContextOverride{
					{ID: CategoryContext(domain.CategoryCheese), Baseline: f64(5), Step: f64(2)},
				},
			},
			{
				ID:        domain.NutrientSodium,
				Baseline:  90,
				Step:      100,
				MaxPoints: 15,
				Weight:    1.0,
				Guideline: "Sodium above 90 mg/100 g",
				Contexts: []ContextOverride{
					{ID: CategoryContext(domain.CategoryDressing), Baseline: f64(300), Step: f64(150)},
					{ID: CategoryContext(domain.CategoryCondiment), Baseline: f64(400), Step: f64(150)},
					{ID: CategoryContext(domain.CategoryCheese), Baseline: f64(400), Step: f64(120)},
				},
			},
			{
				ID:        domain.NutrientProduce,
				Baseline:  40,
				Step:      4,
				MaxPoints: 15,
				Weight:    1.0,
				Guideline: "Fruit, vegetable, legume and nut share above 40 %",
			},
			{
				ID:        domain.NutrientFiber,
				Baseline:  0.7,
				Step:      0.7,
				MaxPoints: 15,
				Weight:    1.0,
				Guideline: "Dietary fiber above 0.7 g/100 g",
			},
			{
				ID:        domain.NutrientProtein,
				Baseline:  1.6,
				Step:      1.6,
				MaxPoints: 15,
				Weight:    1.0,
				Guideline: "Protein above 1.6 g/100 g",
			},
		},
	}
}
