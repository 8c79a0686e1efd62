package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/food-health-score-server/internal/catalog"
	"github.com/food-health-score-server/internal/service"
)

// DietaryReport is the check command output.
type DietaryReport struct {
	Ingredients []string                   `json:"ingredients"`
	Compliant   bool                       `json:"compliant"`
	Violations  []service.DietaryViolation `json:"violations"`
}

func newCheckCommand(a *app) *cobra.Command {
	var restrictions []string

	cmd := &cobra.Command{
		Use:   "check <ingredients>...",
		Short: "Check an ingredient list against dietary restrictions",
		Long:  `Check an ingredient list against dietary restrictions. Ingredients may be
given as separate arguments or as one label text separated by commas.
Without --restrict every known restriction is checked.`,
		Example: `  healthscore check "wheat flour, sugar, whey" --restrict vegan,gluten_free`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ingredients []string
			for _, arg := range args {
				ingredients = append(ingredients, catalog.ParseIngredients(strings.TrimSpace(arg))...)
			}

			svc, err := a.newService()
			if err != nil {
				return err
			}
			violations, err := svc.CheckDietary(ingredients, restrictions)
			if err != nil {
				return err
			}
			if violations == nil {
				violations = []service.DietaryViolation{}
			}

			report := DietaryReport{
				Ingredients: ingredients,
				Compliant:   len(violations) == 0,
				Violations:  violations,
			}
			if a.format() == FormatJSON {
				return writeJSON(a.stdout, report)
			}
			newConsoleRenderer(a.stdout).dietary(report)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&restrictions, "restrict", "r", nil, "Restrictions to check (default all)")
	return cmd
}
