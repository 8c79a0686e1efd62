package assets

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

// RestrictionKeywords lists violating keywords and exempt phrases for one restriction.
type RestrictionKeywords struct {
	Keywords   []string `json:"keywords" yaml:"keywords"`
	Exemptions []string `json:"exemptions,omitempty" yaml:"exemptions"`
}

// DietaryKeywords is the versioned dietary keyword asset. It implements
// domain.DietaryKeywordSets.
type DietaryKeywords struct {
	Metadata     Metadata                                          `json:"metadata" yaml:"metadata"`
	Restrictions map[domain.DietaryRestriction]RestrictionKeywords `json:"restrictions" yaml:"restrictions"`
}

// Keywords returns the violating keywords for a restriction.
func (d *DietaryKeywords) Keywords(r domain.DietaryRestriction) []string {
	return d.Restrictions[r].Keywords
}

// Exemptions returns the phrases removed before keyword matching.
func (d *DietaryKeywords) Exemptions(r domain.DietaryRestriction) []string {
	return d.Restrictions[r].Exemptions
}

// Validate requires keywords for every known restriction.
func (d *DietaryKeywords) Validate() error {
	if err := d.Metadata.validate(); err != nil {
		return err
	}
	for r := range d.Restrictions {
		if !r.IsValid() {
			return fmt.Errorf("unknown restriction %q", r)
		}
	}
	for _, r := range domain.AllRestrictions {
		if len(d.Restrictions[r].Keywords) == 0 {
			return fmt.Errorf("no keywords for restriction %s", r)
		}
	}
	return nil
}

// LoadDietaryKeywords reads and validates a dietary keyword file.
func LoadDietaryKeywords(path string) (*DietaryKeywords, error) {
	d := &DietaryKeywords{}
	if err := readFile(path, d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dietary keyword asset %s: %w", path, err)
	}
	return d, nil
}

// EmbeddedDietaryKeywords returns the keyword sets shipped with the binary.
func EmbeddedDietaryKeywords() (*DietaryKeywords, error) {
	d := &DietaryKeywords{}
	if err := readEmbedded(embeddedDietary, d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedded dietary keyword asset: %w", err)
	}
	return d, nil
}

// DietaryKeywordSets resolves the keyword sets for a configured path. A broken
// configured file falls back to the embedded sets.
func DietaryKeywordSets(path string, logger *logrus.Logger) (*DietaryKeywords, error) {
	if path != "" {
		d, err := LoadDietaryKeywords(path)
		if err == nil {
			return d, nil
		}
		logger.WithError(err).WithField("path", path).Warn("Dietary keyword asset unavailable, using embedded keyword sets")
	}
	d, err := EmbeddedDietaryKeywords()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAssetUnavailable, err)
	}
	return d, nil
}
