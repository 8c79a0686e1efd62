// Package bootstrap assembles the scoring pipeline and its optional
// infrastructure from configuration, for the server, MCP and CLI binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/assets"
	"github.com/food-health-score-server/internal/cache"
	"github.com/food-health-score-server/internal/database"
	"github.com/food-health-score-server/internal/domain"
	"github.com/food-health-score-server/internal/percentile"
	"github.com/food-health-score-server/internal/service"
)

// Components holds everything a binary needs to serve score requests.
type Components struct {
	Scorer   *service.Scorer
	Service  *service.ScoreService
	Tracker  *percentile.Tracker
	Cache    domain.ScoreCache
	Database *database.DB

	logger *logrus.Logger
}

// NewScorer loads the scoring assets and wires the pipeline.
func NewScorer(cfg domain.ScoringConfig, tracker domain.PercentileTracker, logger *logrus.Logger) (*service.Scorer, error) {
	thresholds := assets.Thresholds(cfg.ThresholdsPath, logger)
	lexicon := assets.Additives(cfg.AdditivesPath, logger)
	keywords, err := assets.DietaryKeywordSets(cfg.DietaryKeywordsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load dietary keywords: %w", err)
	}

	classifier, err := service.NewKeywordIngredientClassifier(logger, cfg.ClassifierCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingredient classifier: %w", err)
	}

	opts := []service.ScorerOption{}
	if cfg.DefaultFocus != "" {
		focus, err := domain.ParseHealthFocus(cfg.DefaultFocus)
		if err != nil {
			return nil, fmt.Errorf("invalid default focus: %w", err)
		}
		opts = append(opts, service.WithDefaultFocus(focus))
	}
	if tracker != nil {
		opts = append(opts, service.WithPercentileTracker(tracker))
	}

	scorer := service.NewScorer(logger, thresholds, lexicon, classifier, keywords, opts...)
	logger.WithFields(logrus.Fields{
		"algorithm_version":   domain.AlgorithmVersion,
		"threshold_set_id":    scorer.ThresholdSetID(),
		"additive_lexicon_id": scorer.AdditiveLexiconID(),
	}).Info("Scoring pipeline ready")
	return scorer, nil
}

// Build opens the configured percentile store, cache and database and wires the
// score service. Callers must Close the result.
func Build(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*Components, error) {
	c := &Components{logger: logger}

	if cfg.Percentile.Enabled {
		deps := percentile.Dependencies{RedisURL: cfg.Cache.RedisURL}
		if cfg.Percentile.Backend == "postgres" {
			dbCfg := database.ConfigFromDomain(cfg.Database)
			if err := database.Migrate(ctx, dbCfg, cfg.Database.MigrationsPath, logger); err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
			db, err := database.NewConnection(ctx, dbCfg, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			c.Database = db
			deps.Pool = db.Pool
		}

		tracker, err := percentile.NewTrackerFromConfig(ctx, cfg.Percentile, deps, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Tracker = tracker
	}

	scoreCache, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create score cache: %w", err)
	}
	c.Cache = scoreCache

	var tracker domain.PercentileTracker
	if c.Tracker != nil {
		tracker = c.Tracker
	}
	scorer, err := NewScorer(cfg.Scoring, tracker, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Scorer = scorer
	c.Service = service.NewScoreService(logger, scorer, scoreCache)

	return c, nil
}

// Close releases the tracker store and database pool.
func (c *Components) Close() {
	if c.Tracker != nil {
		if err := c.Tracker.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close percentile store")
		}
	}
	if c.Database != nil {
		c.Database.Close()
	}
}
