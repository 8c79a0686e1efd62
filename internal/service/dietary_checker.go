package service

import (
	"regexp"
	"strings"

	"github.com/food-health-score-server/internal/domain"
)

type restrictionMatcher struct {
	keywords   []keywordPattern
	exemptions []*regexp.Regexp
}

type keywordPattern struct {
	keyword string
	pattern *regexp.Regexp
}

// DietaryChecker matches ingredient text against restriction keyword sets.
// Exempt phrases ("coconut milk", "nutmeg") are removed before keywords are
// matched on word boundaries, with optional plural suffixes.
type DietaryChecker struct {
	matchers map[domain.DietaryRestriction]restrictionMatcher
}

// DietaryViolation names the restriction and the keyword that broke it.
type DietaryViolation struct {
	Restriction domain.DietaryRestriction `json:"restriction"`
	Ingredient  string                    `json:"ingredient"`
	Keyword     string                    `json:"keyword"`
}

// NewDietaryChecker compiles the keyword sets once.
func NewDietaryChecker(sets domain.DietaryKeywordSets) *DietaryChecker {
	c := &DietaryChecker{matchers: make(map[domain.DietaryRestriction]restrictionMatcher, len(domain.AllRestrictions))}
	if sets == nil {
		return c
	}
	for _, r := range domain.AllRestrictions {
		var m restrictionMatcher
		for _, kw := range sets.Keywords(r) {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			m.keywords = append(m.keywords, keywordPattern{
				keyword: kw,
				pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `(?:s|es)?\b`),
			})
		}
		for _, ex := range sets.Exemptions(r) {
			ex = strings.ToLower(strings.TrimSpace(ex))
			if ex == "" {
				continue
			}
			m.exemptions = append(m.exemptions, regexp.MustCompile(`\b`+regexp.QuoteMeta(ex)+`\b`))
		}
		c.matchers[r] = m
	}
	return c
}

// Check returns every violation, in restriction order then ingredient order.
// Each restriction is reported at most once.
func (c *DietaryChecker) Check(ingredients []string, restrictions []domain.DietaryRestriction) []DietaryViolation {
	var violations []DietaryViolation
	seen := make(map[domain.DietaryRestriction]bool, len(restrictions))
	for _, r := range restrictions {
		if seen[r] {
			continue
		}
		seen[r] = true
		m, ok := c.matchers[r]
		if !ok {
			continue
		}
		for _, ingredient := range ingredients {
			if kw, hit := m.match(ingredient); hit {
				violations = append(violations, DietaryViolation{
					Restriction: r,
					Ingredient:  strings.TrimSpace(ingredient),
					Keyword:     kw,
				})
				break
			}
		}
	}
	return violations
}

// Violations returns the violated restrictions.
func (c *DietaryChecker) Violations(ingredients []string, restrictions []domain.DietaryRestriction) []domain.DietaryRestriction {
	found := c.Check(ingredients, restrictions)
	out := make([]domain.DietaryRestriction, 0, len(found))
	for _, v := range found {
		out = append(out, v.Restriction)
	}
	return out
}

func (m restrictionMatcher) match(ingredient string) (string, bool) {
	text := strings.ToLower(ingredient)
	for _, ex := range m.exemptions {
		text = ex.ReplaceAllString(text, " ")
	}
	for _, kw := range m.keywords {
		if kw.pattern.MatchString(text) {
			return kw.keyword, true
		}
	}
	return "", false
}
