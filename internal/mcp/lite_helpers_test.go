package mcp

import (
	"testing"

	litecfg "github.com/food-health-score-server/internal/config"
)

func liteConfig(t *testing.T) *litecfg.LiteConfig {
	t.Helper()
	cfg := litecfg.DefaultLiteConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}
