// Package legacy computes the nine-category score set kept for existing report
// consumers. It shares the calculators in package scoring with the composite
// system and never re-runs an analyzer.
package legacy

import (
	"sort"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/scoring"
)

// Weights are the fixed category weights. They are renormalized over the
// categories present, so they need not sum to 1.
var Weights = map[string]float64{
	scoring.CategoryPerformance:   0.20,
	scoring.CategorySEO:           0.20,
	scoring.CategorySecurity:      0.15,
	scoring.CategoryAccessibility: 0.10,
	scoring.CategorySocial:        0.075,
	scoring.CategoryLocalPresence: 0.10,
	scoring.CategoryReviews:       0.10,
	scoring.CategoryAdvertising:   0.025,
	scoring.CategoryEcommerce:     0.025,
}

// Order is the display order of legacy categories.
var Order = []string{
	scoring.CategoryPerformance,
	scoring.CategorySEO,
	scoring.CategorySecurity,
	scoring.CategoryAccessibility,
	scoring.CategorySocial,
	scoring.CategoryLocalPresence,
	scoring.CategoryReviews,
	scoring.CategoryAdvertising,
	scoring.CategoryEcommerce,
}

// Summary thresholds.
const (
	StrengthScore = 80
	WeaknessScore = 50
)

// Scores is the legacy result. Scores only holds present categories;
// Breakdowns holds all nine.
type Scores struct {
	Scores     map[string]int                    `json:"scores"`
	Breakdowns map[string]scoring.ScoreBreakdown `json:"breakdowns"`
	Overall    int                               `json:"overall"`
	Summary    Summary                           `json:"summary"`
}

// Present reports whether category contributed to the overall score.
func (s Scores) Present(category string) bool {
	_, ok := s.Scores[category]
	return ok
}

// Improvement is one ranked fix in the legacy summary.
type Improvement struct {
	Priority    int          `json:"priority"`
	Category    string       `json:"category"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Impact      domain.Level `json:"impact"`
}

// Summary lists the strongest and weakest legacy categories.
type Summary struct {
	Strengths    []string      `json:"strengths"`
	Weaknesses   []string      `json:"weaknesses"`
	Improvements []Improvement `json:"improvements"`
}

// Compute scores every legacy category from r.
func Compute(r findings.Results) Scores {
	breakdowns := map[string]scoring.ScoreBreakdown{
		scoring.CategoryPerformance:   scoring.Performance(r),
		scoring.CategorySEO:           scoring.SEO(r),
		scoring.CategorySecurity:      scoring.Security(r),
		scoring.CategoryAccessibility: scoring.Accessibility(r),
		scoring.CategorySocial:        scoring.Social(r),
		scoring.CategoryLocalPresence: scoring.LocalPresence(r),
		scoring.CategoryReviews:       scoring.Reviews(r),
		scoring.CategoryAdvertising:   scoring.Advertising(r),
	}
	ecommerce, isStore := scoring.Ecommerce(r)
	breakdowns[scoring.CategoryEcommerce] = ecommerce

	present := make(map[string]int, len(breakdowns))
	for name, b := range breakdowns {
		b.Weight = Weights[name]
		breakdowns[name] = b
		if !b.Available {
			continue
		}
		if name == scoring.CategoryEcommerce && !isStore {
			continue
		}
		present[name] = b.Score
	}

	return Scores{
		Scores:     present,
		Breakdowns: breakdowns,
		Overall:    Overall(present),
		Summary:    Summarize(present, breakdowns),
	}
}

// Overall is the weighted average over the categories in scores. Categories
// without a weight are ignored; no categories yields 0.
func Overall(scores map[string]int) int {
	var sum, weights float64
	for _, name := range Order {
		s, ok := scores[name]
		if !ok {
			continue
		}
		w := Weights[name]
		sum += w * float64(s)
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return scoring.Clamp(scoring.Round(sum / weights))
}

// Summarize lists strengths, weaknesses and improvements for the present
// categories. Improvements are sorted by priority, lowest first.
func Summarize(scores map[string]int, breakdowns map[string]scoring.ScoreBreakdown) Summary {
	sum := Summary{
		Strengths:    []string{},
		Weaknesses:   []string{},
		Improvements: []Improvement{},
	}
	for _, name := range Order {
		s, ok := scores[name]
		if !ok {
			continue
		}
		switch {
		case s >= StrengthScore:
			sum.Strengths = append(sum.Strengths, name)
		case s < WeaknessScore:
			sum.Weaknesses = append(sum.Weaknesses, name)
		}
		if s < StrengthScore {
			if imp, ok := improvementFor(name, s, breakdowns[name]); ok {
				sum.Improvements = append(sum.Improvements, imp)
			}
		}
	}
	sort.SliceStable(sum.Improvements, func(i, j int) bool {
		return sum.Improvements[i].Priority < sum.Improvements[j].Priority
	})
	return sum
}

// improvementFor turns the largest deduction, or the first tip of a
// bonus-based category, into an improvement.
func improvementFor(category string, score int, b scoring.ScoreBreakdown) (Improvement, bool) {
	imp := Improvement{Category: category}
	switch {
	case score < WeaknessScore:
		imp.Priority, imp.Impact = 1, domain.LevelHigh
	case score < 70:
		imp.Priority, imp.Impact = 2, domain.LevelMedium
	default:
		imp.Priority, imp.Impact = 3, domain.LevelLow
	}

	var top *scoring.ScoreDeduction
	for i := range b.Deductions {
		if top == nil || b.Deductions[i].Points > top.Points {
			top = &b.Deductions[i]
		}
	}
	switch {
	case top != nil:
		imp.Title = top.Reason
		imp.Description = top.HowToFix
		if imp.Description == "" {
			imp.Description = top.Explanation
		}
	case len(b.Tips) > 0:
		imp.Title = "Improve " + category
		imp.Description = b.Tips[0]
	default:
		return Improvement{}, false
	}
	return imp, true
}
