package service

import (
	"github.com/food-health-score-server/internal/assets"
	"github.com/food-health-score-server/internal/domain"
)

// ThresholdProvider resolves per-nutrient scoring thresholds from a versioned table.
// Precedence: category override (baseline and step only), then beverage override,
// then the table default.
type ThresholdProvider struct {
	table    *assets.ThresholdTable
	fallback *assets.ThresholdTable
}

// NewThresholdProvider wraps a loaded threshold table. A nil table selects the
// hardcoded defaults.
func NewThresholdProvider(table *assets.ThresholdTable) *ThresholdProvider {
	fallback := assets.DefaultThresholdTable()
	if table == nil {
		table = fallback
	}
	return &ThresholdProvider{table: table, fallback: fallback}
}

// SetID returns the "id@version" stamp of the active table.
func (p *ThresholdProvider) SetID() string {
	return p.table.Metadata.SetID()
}

// Config returns the threshold for a nutrient in the beverage/category context.
func (p *ThresholdProvider) Config(n domain.NutrientID, isBeverage bool, category domain.Category) domain.ThresholdConfig {
	entry, ok := p.table.Entry(n)
	if !ok {
		entry, _ = p.fallback.Entry(n)
	}
	if entry == nil {
		return domain.ThresholdConfig{Nutrient: n, Step: 1, Context: "missing"}
	}

	cfg := domain.ThresholdConfig{
		Nutrient:  n,
		Baseline:  entry.Baseline,
		Step:      entry.Step,
		MaxPoints: entry.MaxPoints,
		Weight:    entry.Weight,
		Guideline: entry.Guideline,
		Context:   "standard",
	}

	if isBeverage {
		if o, ok := entry.Override(assets.BeverageContext); ok {
			applyOverride(&cfg, o)
			cfg.Context = assets.BeverageContext
		}
	}
	if category != "" {
		contextID := assets.CategoryContext(category)
		if o, ok := entry.Override(contextID); ok {
			if o.Baseline != nil {
				cfg.Baseline = *o.Baseline
			}
			if o.Step != nil {
				cfg.Step = *o.Step
			}
			cfg.Context = contextID
		}
	}
	return cfg
}

func applyOverride(cfg *domain.ThresholdConfig, o assets.ContextOverride) {
	if o.Baseline != nil {
		cfg.Baseline = *o.Baseline
	}
	if o.Step != nil {
		cfg.Step = *o.Step
	}
	if o.MaxPoints != nil {
		cfg.MaxPoints = *o.MaxPoints
	}
	if o.Weight != nil {
		cfg.Weight = *o.Weight
	}
}
