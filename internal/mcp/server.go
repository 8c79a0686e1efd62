// Package mcp exposes the scoring pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
	"github.com/food-health-score-server/internal/service"
)

const (
	defaultServerName    = "food-health-score"
	defaultServerVersion = "v0.1.0"
)

// Server represents the food health score MCP server
type Server struct {
	config    domain.MCPConfig
	mcpServer *mcp.Server
	handlers  *ToolHandlers
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance and registers the scoring tools
func NewServer(cfg domain.MCPConfig, svc *service.ScoreService, percentiles PercentileLookup, logger *logrus.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("score service is required")
	}
	if cfg.ServerName == "" {
		cfg.ServerName = defaultServerName
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = defaultServerVersion
	}
	if cfg.TransportType == "" {
		cfg.TransportType = "stdio"
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	server := &Server{
		config:    cfg,
		mcpServer: mcp.NewServer(serverInfo, nil),
		handlers:  NewToolHandlers(svc, percentiles, logger),
		logger:    logger,
	}
	server.registerTools()

	return server, nil
}

// registerTools registers the scoring tools with the MCP SDK
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "score_product",
		Description: "Score a packaged food product from 0 to 100 with grade, verdict, nutrient breakdown, guardrail adjustments and confidence.",
	}, s.handlers.handleScoreProduct)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_dietary_violations",
		Description: "Check an ingredient list against dietary restrictions such as vegan, gluten_free or nut_free.",
	}, s.handlers.handleCheckDietary)

	if s.handlers.percentiles != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        "category_percentile",
			Description: "Report the share of previously scored products in a category that scored below a given score.",
		}, s.handlers.handleCategoryPercentile)
	}

	s.logger.WithField("percentiles", s.handlers.percentiles != nil).Info("Registered MCP tools")
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Start runs the MCP server until the client disconnects or ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"name":           s.config.ServerName,
		"version":        s.config.ServerVersion,
		"transport_type": s.config.TransportType,
	}).Info("Starting food health score MCP server...")

	if s.config.TransportType != "stdio" {
		s.logger.WithField("transport_type", s.config.TransportType).Warn("Unsupported transport, using stdio")
	}

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
