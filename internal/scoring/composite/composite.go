// Package composite derives the five-category score set (performance,
// visibility, security, accessibility, trust) from the shared calculators.
package composite

import (
	"pageaudit/internal/findings"
	"pageaudit/internal/scoring"
)

// Composite category names.
const (
	Performance   = "performance"
	Visibility    = "visibility"
	Security      = "security"
	Accessibility = "accessibility"
	Trust         = "trust"
)

// Order is the display order of composite categories.
var Order = []string{Performance, Visibility, Security, Accessibility, Trust}

// Weights of the overall score. They sum to 1.
var Weights = map[string]float64{
	Performance:   0.25,
	Visibility:    0.25,
	Security:      0.20,
	Accessibility: 0.15,
	Trust:         0.15,
}

// components maps each composite category to the calculators it blends.
var components = map[string][]Component{
	Performance:   {{Category: scoring.CategoryPerformance, Weight: 1}},
	Visibility:    {{Category: scoring.CategorySEO, Weight: 0.7}, {Category: scoring.CategoryLocalPresence, Weight: 0.3}},
	Security:      {{Category: scoring.CategorySecurity, Weight: 1}},
	Accessibility: {{Category: scoring.CategoryAccessibility, Weight: 1}},
	Trust:         {{Category: scoring.CategorySocial, Weight: 0.4}, {Category: scoring.CategoryReviews, Weight: 0.6}},
}

// NewAuditScores is the five-category result.
type NewAuditScores struct {
	Performance   int `json:"performance"`
	Visibility    int `json:"visibility"`
	Security      int `json:"security"`
	Accessibility int `json:"accessibility"`
	Trust         int `json:"trust"`
	Overall       int `json:"overall"`
}

// Get returns the score of a composite category by name.
func (s NewAuditScores) Get(category string) int {
	switch category {
	case Performance:
		return s.Performance
	case Visibility:
		return s.Visibility
	case Security:
		return s.Security
	case Accessibility:
		return s.Accessibility
	case Trust:
		return s.Trust
	default:
		return 0
	}
}

// Component is one underlying category folded into a composite category.
type Component struct {
	Category string  `json:"category"`
	Score    int     `json:"score"`
	Weight   float64 `json:"weight"`
}

// CategoryBreakdown is one composite category with the components it folds in.
type CategoryBreakdown struct {
	Score      int         `json:"score"`
	Weight     float64     `json:"weight"`
	Grade      string      `json:"grade"`
	Components []Component `json:"components"`
	Tips       []string    `json:"tips"`
}

// ScoreBreakdowns explains NewAuditScores. Details holds the seven underlying
// breakdowns keyed by scoring category.
type ScoreBreakdowns struct {
	Categories map[string]CategoryBreakdown      `json:"categories"`
	Details    map[string]scoring.ScoreBreakdown `json:"details"`
}

// Compute scores r.
func Compute(r findings.Results) (NewAuditScores, ScoreBreakdowns) {
	details := map[string]scoring.ScoreBreakdown{
		scoring.CategoryPerformance:   scoring.Performance(r),
		scoring.CategorySEO:           scoring.SEO(r),
		scoring.CategoryLocalPresence: scoring.LocalPresence(r),
		scoring.CategorySecurity:      scoring.Security(r),
		scoring.CategoryAccessibility: scoring.Accessibility(r),
		scoring.CategorySocial:        scoring.Social(r),
		scoring.CategoryReviews:       scoring.Reviews(r),
	}
	return FromDetails(details)
}

// FromDetails combines already computed breakdowns. Missing details count
// as 0.
func FromDetails(details map[string]scoring.ScoreBreakdown) (NewAuditScores, ScoreBreakdowns) {
	breakdowns := ScoreBreakdowns{
		Categories: make(map[string]CategoryBreakdown, len(Order)),
		Details:    details,
	}
	var scores NewAuditScores
	for _, name := range Order {
		cb := CategoryBreakdown{
			Weight:     Weights[name],
			Components: make([]Component, 0, len(components[name])),
			Tips:       []string{},
		}
		var blended float64
		for _, c := range components[name] {
			d := details[c.Category]
			c.Score = d.Score
			blended += c.Weight * float64(d.Score)
			cb.Components = append(cb.Components, c)
			cb.Tips = append(cb.Tips, d.Tips...)
		}
		cb.Score = scoring.Clamp(scoring.Round(blended))
		cb.Grade = Grade(cb.Score)
		breakdowns.Categories[name] = cb

		switch name {
		case Performance:
			scores.Performance = cb.Score
		case Visibility:
			scores.Visibility = cb.Score
		case Security:
			scores.Security = cb.Score
		case Accessibility:
			scores.Accessibility = cb.Score
		case Trust:
			scores.Trust = cb.Score
		}
	}
	scores.Overall = Overall(scores)
	return scores, breakdowns
}

// Overall is round(Σ weight×score) over the five categories.
func Overall(s NewAuditScores) int {
	var sum float64
	for _, name := range Order {
		sum += Weights[name] * float64(s.Get(name))
	}
	return scoring.Clamp(scoring.Round(sum))
}

// VisibilityScore blends SEO and local presence.
func VisibilityScore(seo, local int) int {
	return scoring.Round(0.7*float64(seo) + 0.3*float64(local))
}

// TrustScore blends social and reviews.
func TrustScore(social, reviews int) int {
	return scoring.Round(0.4*float64(social) + 0.6*float64(reviews))
}

// Grade maps a score to a letter.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// BadgeScore is the score a category needs to earn its badge.
const BadgeScore = 80

// Badges lists the badges s earns, in a fixed order.
func Badges(s NewAuditScores) []string {
	badges := []string{}
	if s.Security >= BadgeScore {
		badges = append(badges, "https")
	}
	if s.Performance >= BadgeScore {
		badges = append(badges, "fast")
	}
	if s.Accessibility >= BadgeScore {
		badges = append(badges, "accessible")
	}
	if s.Trust >= BadgeScore {
		badges = append(badges, "trusted")
	}
	return badges
}
