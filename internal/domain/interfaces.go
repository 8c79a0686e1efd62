package domain

import (
	"context"
)

// IngredientClassifier assigns a category to a single ingredient name.
// Implementations are expected to be deterministic for a given lexicon version.
type IngredientClassifier interface {
	Classify(name string) IngredientClassification
}

// AdditiveLexicon resolves declared additive names and E-numbers.
type AdditiveLexicon interface {
	Lookup(name string) (AdditiveEntry, bool)
	ID() string
}

// DietaryKeywordSets supplies the ingredient keywords that violate a restriction
// and the phrases that look like violations but are not (e.g. "coconut milk").
type DietaryKeywordSets interface {
	Keywords(restriction DietaryRestriction) []string
	Exemptions(restriction DietaryRestriction) []string
}

// PercentileTracker is the externally-owned accumulator of scores per category.
// It never fails the scoring call; backends degrade to "no percentile".
type PercentileTracker interface {
	RecordScore(score int, category string)
	Percentile(score int, category string) (float64, bool)
}

// ScoreCache stores finished scores keyed by request fingerprint.
type ScoreCache interface {
	Get(ctx context.Context, key string) (*HealthScore, bool, error)
	Set(ctx context.Context, key string, score *HealthScore) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetScoringConfig() *ScoringConfig
	GetPercentileConfig() *PercentileConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
