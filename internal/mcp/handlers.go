package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/food-health-score-server/internal/domain"
	"github.com/food-health-score-server/internal/percentile"
	"github.com/food-health-score-server/internal/service"
)

// ScoreProductParams defines parameters for the score_product tool
type ScoreProductParams struct {
	Product       domain.Product `json:"product" jsonschema:"the packaged food record: name, nutrition, serving size and ingredients"`
	Restrictions  []string       `json:"restrictions,omitempty" jsonschema:"dietary restrictions to enforce, e.g. vegan, gluten_free"`
	Focus         string         `json:"focus,omitempty" jsonschema:"health focus used to weight the pillars, e.g. balanced, heart_health"`
	CapExclusions []string       `json:"cap_exclusions,omitempty" jsonschema:"guardrail cap rule ids to skip"`
}

// ScoreProductResult defines the result structure for the score_product tool
type ScoreProductResult struct {
	Cached bool                `json:"cached"`
	Score  *domain.HealthScore `json:"score"`
}

// CheckDietaryParams defines parameters for the check_dietary_violations tool
type CheckDietaryParams struct {
	Ingredients  []string `json:"ingredients" jsonschema:"ingredient list as printed on the label"`
	Restrictions []string `json:"restrictions,omitempty" jsonschema:"restrictions to check; all known restrictions when empty"`
}

// CheckDietaryResult defines the result structure for the check_dietary_violations tool
type CheckDietaryResult struct {
	Compliant  bool                       `json:"compliant"`
	Violations []service.DietaryViolation `json:"violations"`
}

// CategoryPercentileParams defines parameters for the category_percentile tool
type CategoryPercentileParams struct {
	Category string `json:"category" jsonschema:"product category, e.g. snack or beverage"`
	Score    int    `json:"score" jsonschema:"overall score between 0 and 100"`
}

// PercentileLookup answers category percentile queries.
type PercentileLookup interface {
	Lookup(ctx context.Context, score int, category string) (*percentile.Lookup, error)
}

// ToolHandlers implements the scoring tools on top of the score service.
type ToolHandlers struct {
	service     *service.ScoreService
	percentiles PercentileLookup
	logger      *logrus.Logger
}

// NewToolHandlers creates the tool handlers. percentiles may be nil when
// percentile tracking is disabled.
func NewToolHandlers(svc *service.ScoreService, percentiles PercentileLookup, logger *logrus.Logger) *ToolHandlers {
	return &ToolHandlers{
		service:     svc,
		percentiles: percentiles,
		logger:      logger,
	}
}

// handleScoreProduct handles the score_product tool invocation
func (h *ToolHandlers) handleScoreProduct(ctx context.Context, req *mcp.CallToolRequest, params ScoreProductParams) (*mcp.CallToolResult, any, error) {
	h.logger.WithField("tool", "score_product").Info("Tool invoked")

	restrictions := make([]domain.DietaryRestriction, 0, len(params.Restrictions))
	for _, r := range params.Restrictions {
		restrictions = append(restrictions, domain.DietaryRestriction(r))
	}
	request := domain.ScoreRequest{
		Product:       params.Product,
		Restrictions:  restrictions,
		Focus:         domain.HealthFocus(params.Focus),
		CapExclusions: params.CapExclusions,
	}

	score, cached, err := h.service.Score(ctx, request)
	if err != nil {
		return h.createErrorResult("Invalid product", err), nil, nil
	}

	result := ScoreProductResult{Cached: cached, Score: score}
	return h.jsonResult(summarizeScore(params.Product.Name, score), result)
}

// handleCheckDietary handles the check_dietary_violations tool invocation
func (h *ToolHandlers) handleCheckDietary(ctx context.Context, req *mcp.CallToolRequest, params CheckDietaryParams) (*mcp.CallToolResult, any, error) {
	h.logger.WithField("tool", "check_dietary_violations").Info("Tool invoked")

	if len(params.Ingredients) == 0 {
		return h.createErrorResult("Missing required parameter", fmt.Errorf("ingredients is required")), nil, nil
	}

	violations, err := h.service.CheckDietary(params.Ingredients, params.Restrictions)
	if err != nil {
		return h.createErrorResult("Invalid restrictions", err), nil, nil
	}
	if violations == nil {
		violations = []service.DietaryViolation{}
	}

	result := CheckDietaryResult{Compliant: len(violations) == 0, Violations: violations}
	summary := "No dietary violations found"
	if !result.Compliant {
		parts := make([]string, 0, len(violations))
		for _, v := range violations {
			parts = append(parts, fmt.Sprintf("%s (%s)", v.Restriction, v.Ingredient))
		}
		summary = "Dietary violations: " + strings.Join(parts, ", ")
	}
	return h.jsonResult(summary, result)
}

// handleCategoryPercentile handles the category_percentile tool invocation
func (h *ToolHandlers) handleCategoryPercentile(ctx context.Context, req *mcp.CallToolRequest, params CategoryPercentileParams) (*mcp.CallToolResult, any, error) {
	h.logger.WithField("tool", "category_percentile").Info("Tool invoked")

	if h.percentiles == nil {
		return h.createErrorResult("Percentile tracking is disabled", nil), nil, nil
	}
	if params.Score < 0 || params.Score > percentile.MaxScore {
		return h.createErrorResult("Invalid parameter",
			domain.NewValidationError("score", "must be between 0 and 100", params.Score)), nil, nil
	}

	lookup, err := h.percentiles.Lookup(ctx, params.Score, params.Category)
	if err != nil {
		h.logger.WithError(err).Warn("Percentile lookup failed")
		return h.createErrorResult("Percentile store unavailable", err), nil, nil
	}

	summary := fmt.Sprintf("Not enough %s samples yet (%d recorded)", lookup.Category, lookup.Samples)
	if lookup.Available {
		summary = fmt.Sprintf("A score of %d is better than %.0f%% of %d %s products",
			lookup.Score, lookup.Percentile, lookup.Samples, lookup.Category)
	}
	return h.jsonResult(summary, lookup)
}

func summarizeScore(name string, score *domain.HealthScore) string {
	if name == "" {
		name = "Product"
	}
	text := fmt.Sprintf("%s scored %d/100 (grade %s, %s, %s confidence)",
		name, score.Overall, score.Grade, score.VerdictLabel, score.Confidence)
	if score.CategoryRank != nil {
		text += ". " + *score.CategoryRank
	}
	return text
}

// jsonResult renders a summary line followed by the JSON payload.
func (h *ToolHandlers) jsonResult(summary string, payload any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(data)},
		},
	}, payload, nil
}

// createErrorResult creates a standardized error result for tool calls
func (h *ToolHandlers) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		errorText += fmt.Sprintf(" - %s: %s", validationErr.Field, validationErr.Message)
	case err != nil:
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
