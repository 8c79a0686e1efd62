package assets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
)

var eNumberPattern = regexp.MustCompile(`^e[\s-]?(\d{3,4}[a-z]?)$`)

// AdditiveLexicon is the versioned additive asset. It implements domain.AdditiveLexicon.
type AdditiveLexicon struct {
	Metadata Metadata               `json:"metadata" yaml:"metadata"`
	Entries  []domain.AdditiveEntry `json:"entries" yaml:"entries"`

	index map[string]int
}

// NormalizeAdditiveName lower-cases a declared additive and canonicalizes E-numbers,
// so "E 330", "e-330" and "E330" all become "e330".
func NormalizeAdditiveName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Join(strings.Fields(n), " ")
	if m := eNumberPattern.FindStringSubmatch(n); m != nil {
		return "e" + m[1]
	}
	return n
}

func (l *AdditiveLexicon) buildIndex() error {
	l.index = make(map[string]int, len(l.Entries)*3)
	for i, e := range l.Entries {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("additive entry %d has no id", i)
		}
		switch e.Risk {
		case domain.RiskLow, domain.RiskModerate, domain.RiskHigh:
		default:
			return fmt.Errorf("additive %s: invalid risk %q", e.ID, e.Risk)
		}
		keys := append([]string{e.ID, e.DisplayName}, e.Aliases...)
		for _, k := range keys {
			k = NormalizeAdditiveName(k)
			if k == "" {
				continue
			}
			if prev, ok := l.index[k]; ok && prev != i {
				return fmt.Errorf("alias %q maps to both %s and %s", k, l.Entries[prev].ID, e.ID)
			}
			l.index[k] = i
		}
	}
	return nil
}

// Lookup resolves a declared additive by id, display name or alias.
func (l *AdditiveLexicon) Lookup(name string) (domain.AdditiveEntry, bool) {
	i, ok := l.index[NormalizeAdditiveName(name)]
	if !ok {
		return domain.AdditiveEntry{}, false
	}
	return l.Entries[i], true
}

// ID returns the lexicon's version stamp.
func (l *AdditiveLexicon) ID() string {
	return l.Metadata.SetID()
}

func newLexicon(l *AdditiveLexicon, source string) (*AdditiveLexicon, error) {
	if err := l.Metadata.validate(); err != nil {
		return nil, fmt.Errorf("invalid additive lexicon %s: %w", source, err)
	}
	if err := l.buildIndex(); err != nil {
		return nil, fmt.Errorf("invalid additive lexicon %s: %w", source, err)
	}
	return l, nil
}

// LoadAdditiveLexicon reads and indexes an additive lexicon file.
func LoadAdditiveLexicon(path string) (*AdditiveLexicon, error) {
	l := &AdditiveLexicon{}
	if err := readFile(path, l); err != nil {
		return nil, err
	}
	return newLexicon(l, path)
}

// EmbeddedAdditiveLexicon returns the lexicon shipped with the binary.
func EmbeddedAdditiveLexicon() (*AdditiveLexicon, error) {
	l := &AdditiveLexicon{}
	if err := readEmbedded(embeddedAdditives, l); err != nil {
		return nil, err
	}
	return newLexicon(l, "embedded")
}

// Additives resolves the lexicon for a configured path, falling back to an empty
// lexicon (every additive reported with unknown risk) when nothing can be loaded.
func Additives(path string, logger *logrus.Logger) *AdditiveLexicon {
	var (
		l   *AdditiveLexicon
		err error
	)
	if path == "" {
		l, err = EmbeddedAdditiveLexicon()
	} else {
		l, err = LoadAdditiveLexicon(path)
	}
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Additive lexicon unavailable, additives will be reported with unknown risk")
		empty := &AdditiveLexicon{Metadata: Metadata{ID: "builtin-additives", Version: "empty"}}
		_ = empty.buildIndex()
		return empty
	}
	logger.WithFields(logrus.Fields{
		"lexicon": l.ID(),
		"entries": len(l.Entries),
	}).Debug("Loaded additive lexicon")
	return l
}
