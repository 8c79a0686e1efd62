// Package main provides the MCP entry point backed by the full configuration:
// Redis or in-memory score caching and any percentile backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/food-health-score-server/internal/bootstrap"
	"github.com/food-health-score-server/internal/config"
	"github.com/food-health-score-server/internal/logging"
	"github.com/food-health-score-server/internal/mcp"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	// stdout carries the MCP stream.
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	logger, closer, err := logging.FromConfig(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build scoring pipeline")
	}
	defer components.Close()

	var lookup mcp.PercentileLookup
	if components.Tracker != nil {
		lookup = components.Tracker
	}
	server, err := mcp.NewServer(cfg.MCP, components.Service, lookup, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		components.Close()
		os.Exit(1)
	}
	logger.Info("MCP server stopped")
}
