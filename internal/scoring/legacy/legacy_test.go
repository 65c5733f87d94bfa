package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/findings"
	"pageaudit/internal/scoring"
)

func TestOverallRenormalizesOverPresentCategories(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]int
		want   int
	}{
		{"none present", map[string]int{}, 0},
		{"single category", map[string]int{scoring.CategorySEO: 64}, 64},
		{
			name: "two categories weighted",
			// (0.20*100 + 0.15*40) / 0.35 = 74.29
			scores: map[string]int{scoring.CategorySEO: 100, scoring.CategorySecurity: 40},
			want:   74,
		},
		{
			name:   "unknown category ignored",
			scores: map[string]int{scoring.CategorySEO: 80, "bogus": 0},
			want:   80,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overall(tt.scores))
		})
	}
}

func TestComputeExcludesFailedAnalyzers(t *testing.T) {
	r := findings.Empty()
	r.SEO = findings.EmptySEO()
	r.SEO.Available = true
	r.SEO.Title = "Acme Plumbing | Emergency plumbers in Springfield"
	r.Security = findings.SecurityResult{Available: true, HTTPS: true, PresentHeaders: []string{"X-Frame-Options"}}
	r.Failed = []string{findings.NameSocial}

	s := Compute(r)
	assert.True(t, s.Present(scoring.CategorySEO))
	assert.True(t, s.Present(scoring.CategorySecurity))
	assert.False(t, s.Present(scoring.CategorySocial))
	assert.False(t, s.Present(scoring.CategoryEcommerce))
	assert.Len(t, s.Breakdowns, 9)

	want := Overall(map[string]int{
		scoring.CategorySEO:      s.Scores[scoring.CategorySEO],
		scoring.CategorySecurity: s.Scores[scoring.CategorySecurity],
	})
	assert.Equal(t, want, s.Overall)
	assert.Equal(t, 0.15, s.Breakdowns[scoring.CategorySecurity].Weight)
}

func TestComputeIncludesStore(t *testing.T) {
	r := findings.Empty()
	r.Technology = findings.EmptyTechnology()
	r.Technology.Available = true
	r.Technology.Ecommerce = "WooCommerce"

	s := Compute(r)
	require.True(t, s.Present(scoring.CategoryEcommerce))
	assert.Equal(t, 50, s.Scores[scoring.CategoryEcommerce])
	assert.True(t, s.Present(scoring.CategoryAdvertising))
}

func TestSummarySortsImprovementsByPriority(t *testing.T) {
	scores := map[string]int{
		scoring.CategoryPerformance: 75,
		scoring.CategorySEO:         90,
		scoring.CategorySecurity:    30,
		scoring.CategorySocial:      60,
	}
	breakdowns := map[string]scoring.ScoreBreakdown{
		scoring.CategoryPerformance: {Deductions: []scoring.ScoreDeduction{
			{Points: 5, Reason: "small"}, {Points: 20, Reason: "LCP is poor", HowToFix: "compress images"},
		}},
		scoring.CategorySEO:      {},
		scoring.CategorySecurity: {Tips: []string{"Serve the site over HTTPS."}},
		scoring.CategorySocial:   {Tips: []string{"Add og tags."}},
	}

	sum := Summarize(scores, breakdowns)
	assert.Equal(t, []string{scoring.CategorySEO}, sum.Strengths)
	assert.Equal(t, []string{scoring.CategorySecurity}, sum.Weaknesses)
	require.Len(t, sum.Improvements, 3)

	got := []string{}
	for _, imp := range sum.Improvements {
		got = append(got, imp.Category)
	}
	assert.Equal(t, []string{scoring.CategorySecurity, scoring.CategorySocial, scoring.CategoryPerformance}, got)
	assert.Equal(t, "LCP is poor", sum.Improvements[2].Title)
	assert.Equal(t, "compress images", sum.Improvements[2].Description)
	for i := 1; i < len(sum.Improvements); i++ {
		assert.LessOrEqual(t, sum.Improvements[i-1].Priority, sum.Improvements[i].Priority)
	}
}
