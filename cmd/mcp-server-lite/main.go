// Package main provides the lightweight MCP entry point for the food health
// score server. It needs no external services: scores are cached in memory and
// percentiles are kept in SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/food-health-score-server/internal/config"
	"github.com/food-health-score-server/internal/mcp"
	"github.com/food-health-score-server/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		cmd := setup.NewCommand(os.Stdout)
		cmd.SetArgs(os.Args[2:])
		if err := cmd.Execute(); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	cfg := config.LoadLiteConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server, err := mcp.NewLiteServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		log.Printf("MCP server failed: %v", err)
		server.Close()
		os.Exit(1)
	}
}
