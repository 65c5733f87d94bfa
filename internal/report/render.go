package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"pageaudit/internal/domain"
	"pageaudit/internal/scoring/composite"
)

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Decode reads a report written by WriteJSON.
func Decode(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// WriteMarkdown writes a human readable summary of r.
func WriteMarkdown(w io.Writer, r *Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Audit: %s\n\n", r.ResolvedURL)
	if r.ResolvedURL != r.URL {
		fmt.Fprintf(&b, "**Requested:** %s\n\n", r.URL)
	}
	if !r.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "**Completed:** %s\n\n", r.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "**Overall:** %d/100 (%s)\n\n", r.NewScores.Overall, r.Grade)
	if len(r.Badges) > 0 {
		fmt.Fprintf(&b, "**Badges:** %s\n\n", strings.Join(r.Badges, ", "))
	}

	b.WriteString("## Scores\n\n")
	b.WriteString("| Category | Score | Grade | Weight |\n")
	b.WriteString("|----------|-------|-------|--------|\n")
	for _, name := range composite.Order {
		cb := r.ScoreBreakdowns.Categories[name]
		fmt.Fprintf(&b, "| %s | %d | %s | %.0f%% |\n", name, r.NewScores.Get(name), cb.Grade, cb.Weight*100)
	}
	b.WriteString("\n")

	writeSuggestions(&b, "Quick wins", r.Suggestions.QuickWins)
	writeSuggestions(&b, "Priority fixes", r.Suggestions.PriorityFixes)
	writeSuggestions(&b, "Nice to have", r.Suggestions.NiceToHave)

	if len(r.FailedAnalyzers) > 0 {
		b.WriteString("## Incomplete\n\n")
		fmt.Fprintf(&b, "These checks failed and were scored as unavailable: %s\n\n", strings.Join(r.FailedAnalyzers, ", "))
	}

	if len(r.Screenshots) > 0 {
		b.WriteString("## Screenshots\n\n")
		for _, s := range r.Screenshots {
			fmt.Fprintf(&b, "- %s (%dx%d)\n", s.Name, s.Width, s.Height)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSuggestions(b *strings.Builder, title string, list []domain.Suggestion) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, s := range list {
		fmt.Fprintf(b, "### %s\n\n", s.Title)
		fmt.Fprintf(b, "%s\n\n", s.Description)
		fmt.Fprintf(b, "Impact: `%s` · Effort: `%s`", s.Impact, s.Effort)
		for _, g := range s.ScoreImprovement {
			fmt.Fprintf(b, " · +%d %s", g.Points, g.Category)
		}
		b.WriteString("\n\n")
		if s.HowToFix != "" {
			fmt.Fprintf(b, "> %s\n\n", s.HowToFix)
		}
	}
}
