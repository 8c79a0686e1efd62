package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/percentile"
)

// ExportPercentilesParams defines parameters for the export_percentiles tool
type ExportPercentilesParams struct{}

// ExportPercentilesResult defines the result of export_percentiles
type ExportPercentilesResult struct {
	FilePath   string `json:"file_path"`
	Categories int    `json:"categories"`
}

// ImportPercentilesParams defines parameters for the import_percentiles tool
type ImportPercentilesParams struct {
	FilePath string `json:"file_path" jsonschema:"path of a JSON file written by export_percentiles"`
}

// ImportPercentilesResult defines the result of import_percentiles
type ImportPercentilesResult struct {
	Imported int64 `json:"imported"`
}

// percentileTools backs up and restores the score distribution of the lite server.
type percentileTools struct {
	*ToolHandlers
	store     percentile.Store
	exportDir string
}

// registerPercentileTools registers the percentile backup tools.
func registerPercentileTools(server *Server, store percentile.Store, exportDir string, logger *logrus.Logger) {
	tools := &percentileTools{
		ToolHandlers: server.handlers,
		store:        store,
		exportDir:    exportDir,
	}

	mcp.AddTool(server.mcpServer, &mcp.Tool{
		Name:        "export_percentiles",
		Description: "Export the recorded score distribution of every category to a JSON file for backup.",
	}, tools.handleExport)
	mcp.AddTool(server.mcpServer, &mcp.Tool{
		Name:        "import_percentiles",
		Description: "Add a score distribution from a JSON backup file to the recorded distribution.",
	}, tools.handleImport)

	logger.Debug("Registered percentile backup tools")
}

func (t *percentileTools) handleExport(ctx context.Context, req *mcp.CallToolRequest, params ExportPercentilesParams) (*mcp.CallToolResult, any, error) {
	t.logger.WithField("tool", "export_percentiles").Info("Tool invoked")

	if err := os.MkdirAll(t.exportDir, 0755); err != nil {
		return t.createErrorResult("Failed to create export directory", err), nil, nil
	}

	filename := fmt.Sprintf("percentiles_export_%s.json", time.Now().Format("20060102_150405"))
	filePath := filepath.Join(t.exportDir, filename)

	file, err := os.Create(filePath)
	if err != nil {
		return t.createErrorResult("Failed to create export file", err), nil, nil
	}
	defer file.Close()

	if err := percentile.ExportJSON(ctx, t.store, file); err != nil {
		t.logger.WithError(err).Error("Failed to export percentiles")
		return t.createErrorResult("Failed to export percentiles", err), nil, nil
	}

	categories, _ := t.store.Categories(ctx)
	result := ExportPercentilesResult{FilePath: filePath, Categories: len(categories)}
	return t.jsonResult(fmt.Sprintf("Exported %d categories to %s", result.Categories, filePath), result)
}

func (t *percentileTools) handleImport(ctx context.Context, req *mcp.CallToolRequest, params ImportPercentilesParams) (*mcp.CallToolResult, any, error) {
	t.logger.WithField("tool", "import_percentiles").Info("Tool invoked")

	if params.FilePath == "" {
		return t.createErrorResult("Missing required parameter", fmt.Errorf("file_path is required")), nil, nil
	}

	file, err := os.Open(params.FilePath)
	if err != nil {
		return t.createErrorResult("Failed to open import file", err), nil, nil
	}
	defer file.Close()

	imported, err := percentile.ImportJSON(ctx, t.store, file)
	if err != nil {
		t.logger.WithError(err).Error("Failed to import percentiles")
		return t.createErrorResult("Failed to import percentiles", err), nil, nil
	}

	result := ImportPercentilesResult{Imported: imported}
	return t.jsonResult(fmt.Sprintf("Imported %d scores from %s", imported, params.FilePath), result)
}
