// Package report assembles the final audit result from findings and renders it.
package report

import (
	"time"

	"pageaudit/internal/domain"
	"pageaudit/internal/facts"
	"pageaudit/internal/findings"
	"pageaudit/internal/scoring/composite"
	"pageaudit/internal/scoring/legacy"
	"pageaudit/internal/suggest"
)

// Result is the report handed to callers and persisted as JSON. Screenshot
// bytes are stored separately.
type Result struct {
	ID              string                    `json:"id"`
	URL             string                    `json:"url"`
	ResolvedURL     string                    `json:"resolvedUrl"`
	StartedAt       time.Time                 `json:"startedAt"`
	CompletedAt     time.Time                 `json:"completedAt"`
	NewScores       composite.NewAuditScores  `json:"newScores"`
	Grade           string                    `json:"grade"`
	Badges          []string                  `json:"badges"`
	ScoreBreakdowns composite.ScoreBreakdowns `json:"scoreBreakdowns"`
	Facts           facts.AuditFacts          `json:"facts"`
	Suggestions     suggest.Suggestions       `json:"suggestions"`
	Issues          []domain.AuditIssue       `json:"issues"`
	FailedAnalyzers []string                  `json:"failedAnalyzers"`
	Screenshots     []domain.Screenshot       `json:"screenshots"`
	Legacy          Legacy                    `json:"legacy"`
}

// Legacy mirrors the nine-category report shape for older consumers.
type Legacy struct {
	Scores  map[string]int      `json:"scores"`
	Overall int                 `json:"overall"`
	Summary legacy.Summary      `json:"summary"`
	Issues  []domain.AuditIssue `json:"issues"`
}

// Input is everything the orchestrator collected for one page.
type Input struct {
	ID          string
	URL         string
	ResolvedURL string
	StartedAt   time.Time
	CompletedAt time.Time
	Results     findings.Results
	Screenshots []domain.Screenshot
}

// Assemble runs every scoring stage over in.Results and builds the report.
// Both score systems come from the same findings.
func Assemble(in Input) *Result {
	resolved := in.ResolvedURL
	if resolved == "" {
		resolved = in.URL
	}
	scores, breakdowns := composite.Compute(in.Results)
	old := legacy.Compute(in.Results)

	issues := append([]domain.AuditIssue{}, in.Results.Issues...)
	failed := append([]string{}, in.Results.Failed...)
	shots := append([]domain.Screenshot{}, in.Screenshots...)

	return &Result{
		ID:              in.ID,
		URL:             in.URL,
		ResolvedURL:     resolved,
		StartedAt:       in.StartedAt,
		CompletedAt:     in.CompletedAt,
		NewScores:       scores,
		Grade:           composite.Grade(scores.Overall),
		Badges:          composite.Badges(scores),
		ScoreBreakdowns: breakdowns,
		Facts:           facts.Extract(in.Results, resolved),
		Suggestions:     suggest.Generate(in.Results, scores),
		Issues:          issues,
		FailedAnalyzers: failed,
		Screenshots:     shots,
		Legacy: Legacy{
			Scores:  old.Scores,
			Overall: old.Overall,
			Summary: old.Summary,
			Issues:  issues,
		},
	}
}

// Duration is the wall time of the audit.
func (r *Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Score converts the report into the stored score row.
func (r *Result) Score(domainRef string) domain.Score {
	return domain.Score{
		DomainRef:     domainRef,
		AuditRef:      r.ID,
		Performance:   r.NewScores.Performance,
		Visibility:    r.NewScores.Visibility,
		Security:      r.NewScores.Security,
		Accessibility: r.NewScores.Accessibility,
		Trust:         r.NewScores.Trust,
		Overall:       r.NewScores.Overall,
		Badges:        r.Badges,
		ComputedAt:    r.CompletedAt,
	}
}
