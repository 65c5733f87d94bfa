// Package scoring holds the category calculators shared by the legacy and
// composite scoring systems. Every calculator is a pure function of
// findings.Results and returns a ScoreBreakdown.
package scoring

import "math"

// Category names.
const (
	CategoryPerformance   = "performance"
	CategorySEO           = "seo"
	CategorySocial        = "social"
	CategoryAccessibility = "accessibility"
	CategoryLocalPresence = "localPresence"
	CategoryReviews       = "reviews"
	CategoryAdvertising   = "advertising"
	CategoryEcommerce     = "ecommerce"
	CategorySecurity      = "security"
)

// ScoreDeduction is a penalty. Points are always positive.
type ScoreDeduction struct {
	Points      int    `json:"points"`
	Reason      string `json:"reason"`
	Explanation string `json:"explanation"`
	HowToFix    string `json:"howToFix,omitempty"`
	Fact        string `json:"fact,omitempty"`
}

// ScoreBonus is a reward. Points are always positive.
type ScoreBonus struct {
	Points      int    `json:"points"`
	Reason      string `json:"reason"`
	Explanation string `json:"explanation"`
	Fact        string `json:"fact,omitempty"`
}

// ScoreBreakdown is one category's score with the items that produced it.
// Score is always within [0, 100].
type ScoreBreakdown struct {
	Category   string           `json:"category"`
	Score      int              `json:"score"`
	MaxScore   int              `json:"maxScore"`
	Weight     float64          `json:"weight"`
	BaseScore  int              `json:"baseScore"`
	Available  bool             `json:"available"`
	Deductions []ScoreDeduction `json:"deductions"`
	Bonuses    []ScoreBonus     `json:"bonuses"`
	Tips       []string         `json:"tips"`
}

// TotalDeducted sums deduction points.
func (b ScoreBreakdown) TotalDeducted() int {
	total := 0
	for _, d := range b.Deductions {
		total += d.Points
	}
	return total
}

// TotalBonus sums bonus points.
func (b ScoreBreakdown) TotalBonus() int {
	total := 0
	for _, bo := range b.Bonuses {
		total += bo.Points
	}
	return total
}

// builder accumulates deductions and bonuses for one category.
type builder struct {
	b ScoreBreakdown
}

func deductionBased(category string) *builder {
	return newBuilder(category, 100)
}

func bonusBased(category string) *builder {
	return newBuilder(category, 0)
}

func newBuilder(category string, base int) *builder {
	return &builder{b: ScoreBreakdown{
		Category:   category,
		MaxScore:   100,
		BaseScore:  base,
		Available:  true,
		Deductions: []ScoreDeduction{},
		Bonuses:    []ScoreBonus{},
		Tips:       []string{},
	}}
}

func (bl *builder) deduct(points int, reason, explanation, howToFix, fact string) {
	if points <= 0 {
		return
	}
	bl.b.Deductions = append(bl.b.Deductions, ScoreDeduction{
		Points:      points,
		Reason:      reason,
		Explanation: explanation,
		HowToFix:    howToFix,
		Fact:        fact,
	})
}

// deductEach charges per item up to a cap.
func (bl *builder) deductEach(count, each, limit int, reason, explanation, howToFix, fact string) {
	if count <= 0 {
		return
	}
	bl.deduct(min(count*each, limit), reason, explanation, howToFix, fact)
}

func (bl *builder) add(points int, reason, explanation, fact string) {
	if points <= 0 {
		return
	}
	bl.b.Bonuses = append(bl.b.Bonuses, ScoreBonus{
		Points:      points,
		Reason:      reason,
		Explanation: explanation,
		Fact:        fact,
	})
}

func (bl *builder) addEach(count, each, limit int, reason, explanation, fact string) {
	if count <= 0 {
		return
	}
	bl.add(min(count*each, limit), reason, explanation, fact)
}

func (bl *builder) tip(s string) {
	bl.b.Tips = append(bl.b.Tips, s)
}

// unavailable marks the category as not analyzed: score 0 with one deduction.
func (bl *builder) unavailable(what string) ScoreBreakdown {
	bl.b.Available = false
	bl.b.BaseScore = 100
	bl.b.Bonuses = []ScoreBonus{}
	bl.b.Deductions = []ScoreDeduction{{
		Points:      100,
		Reason:      what + " could not be analyzed",
		Explanation: "The scanner for this category failed or returned no data, so no points were awarded.",
		HowToFix:    "Re-run the audit.",
	}}
	bl.tip("Re-run the audit to score " + what + ".")
	return bl.finish()
}

func (bl *builder) finish() ScoreBreakdown {
	bl.b.Score = Clamp(bl.b.BaseScore - bl.b.TotalDeducted() + bl.b.TotalBonus())
	return bl.b
}

// Clamp bounds a score to [0, 100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Round rounds half away from zero to an int.
func Round(v float64) int {
	return int(math.Round(v))
}
