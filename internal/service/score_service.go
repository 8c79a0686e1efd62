package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/cache"
	"github.com/food-health-score-server/internal/domain"
)

// ScoreService is the boundary in front of the Scorer shared by the HTTP API,
// the MCP tools and the CLI. It validates untrusted requests and serves repeat
// requests from the score cache.
type ScoreService struct {
	scorer *Scorer
	cache  domain.ScoreCache
	logger *logrus.Logger
}

// NewScoreService creates a service. A nil cache disables caching.
func NewScoreService(logger *logrus.Logger, scorer *Scorer, scoreCache domain.ScoreCache) *ScoreService {
	return &ScoreService{
		scorer: scorer,
		cache:  scoreCache,
		logger: logger,
	}
}

// Scorer returns the wrapped scorer.
func (s *ScoreService) Scorer() *Scorer {
	return s.scorer
}

// NormalizeRequest validates a request and canonicalizes its options:
// restrictions are de-duplicated, focus aliases are resolved and cap
// exclusions are trimmed.
func NormalizeRequest(req domain.ScoreRequest) (domain.ScoreRequest, error) {
	if err := req.Product.Validate(); err != nil {
		return req, err
	}

	raw := make([]string, len(req.Restrictions))
	for i, r := range req.Restrictions {
		raw[i] = string(r)
	}
	restrictions, err := domain.ParseDietaryRestrictions(raw)
	if err != nil {
		return req, domain.NewValidationError("restrictions", err.Error(), raw)
	}
	req.Restrictions = restrictions

	if strings.TrimSpace(string(req.Focus)) != "" {
		focus, err := domain.ParseHealthFocus(string(req.Focus))
		if err != nil {
			return req, domain.NewValidationError("focus", err.Error(), req.Focus)
		}
		req.Focus = focus
	} else {
		req.Focus = ""
	}

	exclusions := make([]string, 0, len(req.CapExclusions))
	for _, id := range req.CapExclusions {
		if id = strings.TrimSpace(id); id != "" {
			exclusions = append(exclusions, id)
		}
	}
	req.CapExclusions = exclusions

	return req, nil
}

// Score validates and scores one request. The boolean reports a cache hit.
func (s *ScoreService) Score(ctx context.Context, req domain.ScoreRequest) (*domain.HealthScore, bool, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return nil, false, err
	}

	if s.cache == nil {
		return s.scorer.Score(req), false, nil
	}

	key, err := cache.Fingerprint(req, domain.AlgorithmVersion, s.scorer.ThresholdSetID(), s.scorer.AdditiveLexiconID(), string(s.scorer.defaultFocus))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to fingerprint request, scoring without cache")
		return s.scorer.Score(req), false, nil
	}

	if score, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WithError(err).Warn("Score cache lookup failed")
	} else if ok {
		s.logger.WithFields(logrus.Fields{
			"product": req.Product.Name,
			"score":   score.Overall,
		}).Debug("Score cache hit")
		s.scorer.RefreshPercentile(score)
		return score, true, nil
	}

	score := s.scorer.Score(req)
	// percentile context is looked up again on every hit
	cached := *score
	cached.Percentile = nil
	cached.CategoryRank = nil
	if err := s.cache.Set(ctx, key, &cached); err != nil {
		s.logger.WithError(err).Warn("Failed to cache score")
	}
	return score, false, nil
}

// CheckDietary validates restriction names and reports violations with the
// matched keywords.
func (s *ScoreService) CheckDietary(ingredients []string, restrictions []string) ([]DietaryViolation, error) {
	parsed, err := domain.ParseDietaryRestrictions(restrictions)
	if err != nil {
		return nil, domain.NewValidationError("restrictions", err.Error(), restrictions)
	}
	if len(parsed) == 0 {
		parsed = domain.AllRestrictions
	}
	return s.scorer.CheckDietaryDetails(ingredients, parsed), nil
}
