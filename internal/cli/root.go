// Package cli implements the healthscore command line tool.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/food-health-score-server/internal/bootstrap"
	"github.com/food-health-score-server/internal/domain"
	"github.com/food-health-score-server/internal/logging"
	"github.com/food-health-score-server/internal/service"
)

// EnvPrefix is the environment prefix for CLI settings, e.g. HEALTHSCORE_FORMAT.
const EnvPrefix = "HEALTHSCORE"

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// app carries the settings shared by every subcommand.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand builds the command tree writing to the given streams.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "healthscore",
		Short: "Score packaged foods from 0 to 100",
		Long:  `healthscore rates packaged food products on a 0-100 scale from their
nutrition panel and ingredient list, explains every point, and checks
ingredient lists against dietary restrictions.

Product files are JSON or YAML documents holding one product or a list of
products. Settings can also be supplied through HEALTHSCORE_* environment
variables or a .healthscore.yaml file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringP("format", "f", FormatConsole, "Output format (console|json)")
	flags.String("config", "", "Config file (default .healthscore.yaml)")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.String("thresholds", "", "Threshold asset file (JSON or YAML)")
	flags.String("additives", "", "Additive lexicon file (JSON or YAML)")
	flags.String("dietary-keywords", "", "Dietary keyword file (JSON or YAML)")
	flags.String("default-focus", string(domain.FocusBalanced), "Health focus used when a request names none")

	for _, name := range []string{"format", "config", "log-level", "thresholds", "additives", "dietary-keywords", "default-focus"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newScoreCommand(a),
		newCheckCommand(a),
		newCatalogCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute() int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) initConfig() error {
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		return nil
	}
	for _, path := range []string{".healthscore.yaml", ".healthscore.yml", ".healthscore.json"} {
		if _, err := os.Stat(path); err == nil {
			a.v.SetConfigFile(path)
			if err := a.v.ReadInConfig(); err != nil {
				return fmt.Errorf("error reading config file: %w", err)
			}
			break
		}
	}

	switch a.format() {
	case FormatConsole, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", a.format())
	}
}

func (a *app) format() string {
	return strings.ToLower(a.v.GetString("format"))
}

func (a *app) logger() *logrus.Logger {
	logger := logging.New(a.v.GetString("log-level"), "text")
	logger.SetOutput(a.stderr)
	return logger
}

func (a *app) scoringConfig() domain.ScoringConfig {
	return domain.ScoringConfig{
		ThresholdsPath:      a.v.GetString("thresholds"),
		AdditivesPath:       a.v.GetString("additives"),
		DietaryKeywordsPath: a.v.GetString("dietary-keywords"),
		DefaultFocus:        a.v.GetString("default-focus"),
	}
}

// newService builds an uncached score service without percentile tracking.
func (a *app) newService() (*service.ScoreService, error) {
	logger := a.logger()
	scorer, err := bootstrap.NewScorer(a.scoringConfig(), nil, logger)
	if err != nil {
		return nil, err
	}
	return service.NewScoreService(logger, scorer, nil), nil
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the scoring algorithm and asset versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.newService()
			if err != nil {
				return err
			}
			versions := map[string]string{
				"algorithm_version":   domain.AlgorithmVersion,
				"threshold_set_id":    svc.Scorer().ThresholdSetID(),
				"additive_lexicon_id": svc.Scorer().AdditiveLexiconID(),
			}
			if a.format() == FormatJSON {
				return writeJSON(a.stdout, versions)
			}
			fmt.Fprintf(a.stdout, "algorithm   %s\nthresholds  %s\nadditives   %s\n",
				versions["algorithm_version"], versions["threshold_set_id"], versions["additive_lexicon_id"])
			return nil
		},
	}
}
