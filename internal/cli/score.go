package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/food-health-score-server/internal/domain"
)

// ScoredProduct is one line of score output.
type ScoredProduct struct {
	File  string              `json:"file"`
	Index int                 `json:"index"`
	Name  string              `json:"name"`
	Score *domain.HealthScore `json:"score,omitempty"`
	Error string              `json:"error,omitempty"`
}

func newScoreCommand(a *app) *cobra.Command {
	var (
		restrictions []string
		exclusions   []string
		focus        string
	)

	cmd := &cobra.Command{
		Use:     "score <product-file|glob>...",
		Short:   "Score products from JSON or YAML files",
		Example: `  healthscore score cereal.json
  healthscore score 'products/**/*.yaml' --restrict vegan --focus heart
  healthscore score snacks.json --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			products, err := loadProducts(paths)
			if err != nil {
				return err
			}
			svc, err := a.newService()
			if err != nil {
				return err
			}

			restricted := make([]domain.DietaryRestriction, len(restrictions))
			for i, r := range restrictions {
				restricted[i] = domain.DietaryRestriction(r)
			}

			results := make([]ScoredProduct, 0, len(products))
			failed := 0
			for _, p := range products {
				score, _, err := svc.Score(cmd.Context(), domain.ScoreRequest{
					Product:       p.Product,
					Restrictions:  restricted,
					Focus:         domain.HealthFocus(focus),
					CapExclusions: exclusions,
				})
				result := ScoredProduct{File: p.Path, Index: p.Index, Name: p.Product.Name, Score: score}
				if err != nil {
					result.Error = err.Error()
					failed++
				}
				results = append(results, result)
			}

			if a.format() == FormatJSON {
				if err := writeJSON(a.stdout, results); err != nil {
					return err
				}
			} else {
				newConsoleRenderer(a.stdout).scores(results)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d products could not be scored", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&restrictions, "restrict", "r", nil, "Dietary restrictions to enforce (e.g. vegan,gluten_free)")
	cmd.Flags().StringSliceVar(&exclusions, "exclude-cap", nil, "Guardrail cap rule ids to skip")
	cmd.Flags().StringVar(&focus, "focus", "", "Health focus for this run (e.g. heart, gut_health)")
	return cmd
}
