package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/food-health-score-server/internal/catalog"
	"github.com/food-health-score-server/internal/domain"
)

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// consoleRenderer prints human readable reports.
type consoleRenderer struct {
	w       io.Writer
	title   lipgloss.Style
	muted   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	section lipgloss.Style
}

func newConsoleRenderer(w io.Writer) *consoleRenderer {
	return &consoleRenderer{
		w:       w,
		title:   lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		section: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

func (r *consoleRenderer) gradeStyle(g domain.Grade) lipgloss.Style {
	switch g {
	case domain.GradeA, domain.GradeB:
		return r.good.Bold(true)
	case domain.GradeC:
		return r.warn.Bold(true)
	default:
		return r.bad.Bold(true)
	}
}

func (r *consoleRenderer) scores(results []ScoredProduct) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		if res.Error != "" {
			fmt.Fprintf(r.w, "%s %s #%d: %s\n", r.bad.Render("✗"), res.File, res.Index+1, res.Error)
			continue
		}
		r.score(res)
	}
}

func (r *consoleRenderer) score(res ScoredProduct) {
	s := res.Score
	name := res.Name
	if name == "" {
		name = fmt.Sprintf("%s #%d", res.File, res.Index+1)
	}
	fmt.Fprintf(r.w, "%s  %s %s  %s\n",
		r.title.Render(name),
		r.gradeStyle(s.Grade).Render(fmt.Sprintf("%d/100", s.Overall)),
		r.gradeStyle(s.Grade).Render(string(s.Grade)),
		s.VerdictLabel,
	)
	fmt.Fprintf(r.w, "%s\n", r.muted.Render(fmt.Sprintf("%s · %s confidence (%d-%d)",
		s.Category.DisplayName(), s.Confidence, int(s.ConfidenceRange.Lower), int(s.ConfidenceRange.Upper))))
	if s.Warning != nil {
		fmt.Fprintf(r.w, "%s %s\n", r.warn.Render("!"), *s.Warning)
	}
	if s.CategoryRank != nil {
		fmt.Fprintln(r.w, r.muted.Render(*s.CategoryRank))
	}

	if len(s.TopFactors) > 0 {
		fmt.Fprintln(r.w, r.section.Render("Top factors"))
		for _, f := range s.TopFactors {
			style := r.good
			if f.Kind != domain.FactorPositive {
				style = r.bad
			}
			label := f.Label
			if f.Value != "" {
				label += " (" + f.Value + ")"
			}
			fmt.Fprintf(r.w, "  %s %s\n", style.Render(factorSign(f.Kind)), label)
		}
	}

	if len(s.Adjustments) > 0 {
		fmt.Fprintln(r.w, r.section.Render("Guardrails"))
		for _, adj := range s.Adjustments {
			fmt.Fprintf(r.w, "  %s %s: %s\n", r.warn.Render(string(adj.Kind)), adj.RuleID, adj.Reason)
		}
	}

	if len(s.DietaryViolations) > 0 {
		names := make([]string, len(s.DietaryViolations))
		for i, v := range s.DietaryViolations {
			names[i] = string(v)
		}
		fmt.Fprintf(r.w, "%s %s\n", r.bad.Render("Not suitable:"), strings.Join(names, ", "))
	}

	if s.Explanation != "" {
		fmt.Fprintln(r.w, r.muted.Render(s.Explanation))
	}
}

func factorSign(kind domain.TopFactorKind) string {
	switch kind {
	case domain.FactorPositive:
		return "+"
	case domain.FactorGuardrail:
		return "!"
	default:
		return "-"
	}
}

func (r *consoleRenderer) dietary(report DietaryReport) {
	if report.Compliant {
		fmt.Fprintf(r.w, "%s no dietary violations in %d ingredients\n", r.good.Render("✓"), len(report.Ingredients))
		return
	}
	fmt.Fprintf(r.w, "%s %d dietary violations\n", r.bad.Render("✗"), len(report.Violations))
	for _, v := range report.Violations {
		fmt.Fprintf(r.w, "  %s %s %s\n",
			r.bad.Render(string(v.Restriction)),
			v.Ingredient,
			r.muted.Render("(matched "+v.Keyword+")"))
	}
}

func (r *consoleRenderer) catalog(output string, stats catalog.Stats) {
	fmt.Fprintf(r.w, "%s wrote %d products to %s\n", r.good.Render("✓"), stats.Selected, output)
	fmt.Fprintln(r.w, r.muted.Render(fmt.Sprintf("read %d rows: %d usable, %d other countries, %d rejected",
		stats.Read, stats.Accepted, stats.Filtered, stats.Rejected)))
}
