package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/food-health-score-server/internal/catalog"
)

func newCatalogCommand(a *app) *cobra.Command {
	var (
		output string
		opts   catalog.Options
	)

	cmd := &cobra.Command{
		Use:   "catalog <products.tsv[.gz]>",
		Short: "Build a scored essentials catalog from an Open Food Facts dump",
		Long:  `Build a scored essentials catalog from an Open Food Facts tab-separated
data dump. Products are filtered by country, the most scanned ones are kept
and each is scored with the current assets.`,
		Example: `  healthscore catalog en.openfoodfacts.org.products.csv.gz --output essentials_catalog.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}

			in, err := catalog.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			generator := catalog.NewGenerator(svc.Scorer(), a.logger())
			result, stats, err := generator.Generate(cmd.Context(), in, opts)
			if err != nil {
				return err
			}

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := catalog.WriteJSON(out, result); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			if a.format() == FormatJSON {
				return writeJSON(a.stdout, map[string]any{"output": output, "stats": stats})
			}
			newConsoleRenderer(a.stdout).catalog(output, stats)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "essentials_catalog.json", "Output JSON file")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", catalog.DefaultLimit, "Maximum number of products")
	cmd.Flags().StringVar(&opts.Country, "country", catalog.DefaultCountry, "countries_tags filter; empty keeps every country")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Scoring workers (default number of CPUs)")
	return cmd
}
