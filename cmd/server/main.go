package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/api"
	"github.com/food-health-score-server/internal/bootstrap"
	"github.com/food-health-score-server/internal/config"
	"github.com/food-health-score-server/internal/logging"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
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

	var opts []api.ServerOption
	if components.Tracker != nil {
		opts = append(opts, api.WithPercentiles(components.Tracker))
	}
	if components.Database != nil {
		opts = append(opts, api.WithHealthCheck("database", components.Database.Health))
	}

	server := api.NewServer(configManager, components.Service, logger, opts...)

	logger.WithFields(logrus.Fields{"host": cfg.Server.Host, "port": cfg.Server.Port}).Info("Starting food health score API")
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		components.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
