package mcp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/bootstrap"
	litecfg "github.com/food-health-score-server/internal/config"
	"github.com/food-health-score-server/internal/logging"
	"github.com/food-health-score-server/internal/percentile"
)

// LiteServer is a lightweight MCP server that requires no external services.
// It keeps scores in an in-memory cache and percentiles in SQLite.
type LiteServer struct {
	*Server

	config     *litecfg.LiteConfig
	components *bootstrap.Components
	logger     *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(ctx context.Context, cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{
		config: cfg,
		logger: logging.New(cfg.LogLevel, cfg.LogFormat),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	domainCfg := cfg.DomainConfig()
	components, err := bootstrap.Build(ctx, domainCfg, server.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring pipeline: %w", err)
	}
	server.components = components

	var lookup PercentileLookup
	if components.Tracker != nil {
		lookup = components.Tracker
	}
	mcpServer, err := NewServer(domainCfg.MCP, components.Service, lookup, server.logger)
	if err != nil {
		components.Close()
		return nil, err
	}
	server.Server = mcpServer

	if components.Tracker != nil {
		registerPercentileTools(mcpServer, components.Tracker.Store(), cfg.ExportDir(), server.logger)
	}

	server.logger.WithField("data_dir", cfg.DataDir).Info("Lite server initialized successfully")
	return server, nil
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.components != nil {
		s.components.Close()
	}
	return nil
}

// PercentileStore returns the percentile store, or nil when tracking is disabled.
func (s *LiteServer) PercentileStore() percentile.Store {
	if s.components == nil || s.components.Tracker == nil {
		return nil
	}
	return s.components.Tracker.Store()
}
