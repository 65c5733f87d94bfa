package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pageaudit/internal/domain"
	"pageaudit/internal/report"
	"pageaudit/internal/scoring/composite"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fairStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	poorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	titleCaser = cases.Title(language.English)
)

// renderReport writes r in the requested output format.
func renderReport(w io.Writer, r *report.Result, format string, colorize bool) error {
	switch format {
	case "json":
		return report.WriteJSON(w, r)
	case "markdown":
		return report.WriteMarkdown(w, r)
	default:
		_, err := io.WriteString(w, renderConsole(r, colorize))
		return err
	}
}

func renderConsole(r *report.Result, colorize bool) string {
	style := func(s lipgloss.Style, v string) string {
		if !colorize {
			return v
		}
		return s.Render(v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", style(titleStyle, "Audit:"), r.ResolvedURL)
	if r.ResolvedURL != r.URL {
		fmt.Fprintf(&b, "%s\n", style(mutedStyle, "requested "+r.URL))
	}
	overall := fmt.Sprintf("%d/100 (%s)", r.NewScores.Overall, r.Grade)
	fmt.Fprintf(&b, "%s %s", style(titleStyle, "Overall:"), style(scoreStyle(r.NewScores.Overall), overall))
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(&b, "  %s", style(mutedStyle, "in "+d.Round(100*time.Millisecond).String()))
	}
	b.WriteString("\n")
	if len(r.Badges) > 0 {
		fmt.Fprintf(&b, "%s %s\n", style(titleStyle, "Badges:"), strings.Join(r.Badges, ", "))
	}
	b.WriteString("\n")

	scores := table.NewWriter()
	scores.SetStyle(table.StyleRounded)
	scores.AppendHeader(table.Row{"Category", "Score", "Grade", "Weight"})
	for _, name := range composite.Order {
		cb := r.ScoreBreakdowns.Categories[name]
		score := r.NewScores.Get(name)
		scores.AppendRow(table.Row{
			titleCaser.String(name),
			style(scoreStyle(score), fmt.Sprint(score)),
			cb.Grade,
			fmt.Sprintf("%.0f%%", cb.Weight*100),
		})
	}
	scores.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	b.WriteString(scores.Render())
	b.WriteString("\n")

	if all := r.Suggestions.All(); len(all) > 0 {
		b.WriteString("\n" + style(titleStyle, "Suggestions") + "\n")
		b.WriteString(suggestionTable(all))
		b.WriteString("\n")
	}

	if len(r.FailedAnalyzers) > 0 {
		b.WriteString("\n" + style(poorStyle, "Incomplete: ") + strings.Join(r.FailedAnalyzers, ", ") + "\n")
	}

	if len(r.Screenshots) > 0 {
		b.WriteString("\n" + style(titleStyle, "Screenshots") + "\n")
		for _, s := range r.Screenshots {
			fmt.Fprintf(&b, "  %-8s %dx%d  %s\n", s.Name, s.Width, s.Height, humanize.Bytes(uint64(max(s.Size, 0))))
		}
	}
	return b.String()
}

func suggestionTable(list []domain.Suggestion) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Suggestion", "Category", "Impact", "Effort", "Points"})
	for _, s := range list {
		points := 0
		for _, imp := range s.ScoreImprovement {
			points += imp.Points
		}
		tw.AppendRow(table.Row{s.Title, titleCaser.String(s.Category), s.Impact, s.Effort, fmt.Sprintf("+%d", points)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 5, Align: text.AlignRight}})
	return tw.Render()
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return goodStyle
	case score >= 50:
		return fairStyle
	default:
		return poorStyle
	}
}
