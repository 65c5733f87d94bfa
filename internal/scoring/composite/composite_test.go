package composite

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/findings"
	"pageaudit/internal/scoring"
)

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, name := range Order {
		sum += Weights[name]
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Len(t, Weights, len(Order))
}

func TestBlendsMatchFormulas(t *testing.T) {
	for seo := 0; seo <= 100; seo += 7 {
		for other := 0; other <= 100; other += 9 {
			details := map[string]scoring.ScoreBreakdown{
				scoring.CategorySEO:           {Score: seo},
				scoring.CategoryLocalPresence: {Score: other},
				scoring.CategorySocial:        {Score: seo},
				scoring.CategoryReviews:       {Score: other},
			}
			s, _ := FromDetails(details)
			require.Equal(t, VisibilityScore(seo, other), s.Visibility)
			require.Equal(t, TrustScore(seo, other), s.Trust)
			require.Equal(t, int(math.Round(0.7*float64(seo)+0.3*float64(other))), s.Visibility)
		}
	}
}

func TestOverallIsWeightedSum(t *testing.T) {
	details := map[string]scoring.ScoreBreakdown{
		scoring.CategoryPerformance:   {Score: 62},
		scoring.CategorySEO:           {Score: 70},
		scoring.CategoryLocalPresence: {Score: 40},
		scoring.CategorySecurity:      {Score: 54},
		scoring.CategoryAccessibility: {Score: 88},
		scoring.CategorySocial:        {Score: 30},
		scoring.CategoryReviews:       {Score: 45},
	}
	s, b := FromDetails(details)

	assert.Equal(t, 61, s.Visibility) // 49 + 12
	assert.Equal(t, 39, s.Trust)      // 12 + 27
	want := 0.25*62 + 0.25*61 + 0.20*54 + 0.15*88 + 0.15*39
	assert.InDelta(t, want, float64(s.Overall), 0.5)
	assert.Equal(t, 61, s.Overall)

	vis := b.Categories[Visibility]
	require.Len(t, vis.Components, 2)
	assert.Equal(t, scoring.CategorySEO, vis.Components[0].Category)
	assert.Equal(t, 70, vis.Components[0].Score)
	assert.Equal(t, "D", vis.Grade)
	assert.Equal(t, 0.25, vis.Weight)
}

func TestComputeWithFailedAnalyzersIsComplete(t *testing.T) {
	r := findings.Empty()
	r.Failed = []string{findings.NameSEO, findings.NameSocial}

	s, b := Compute(r)
	assert.Equal(t, NewAuditScores{}, s)
	assert.Len(t, b.Categories, 5)
	assert.Len(t, b.Details, 7)
	for _, name := range Order {
		assert.NotNil(t, b.Categories[name].Tips, name)
		assert.Equal(t, "F", b.Categories[name].Grade)
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"}, {79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score %d", tt.score)
	}
}

func TestBadges(t *testing.T) {
	assert.Empty(t, Badges(NewAuditScores{}))
	assert.Equal(t, []string{"https", "trusted"}, Badges(NewAuditScores{Security: 80, Performance: 79, Trust: 95}))
	assert.Equal(t, []string{"https", "fast", "accessible", "trusted"},
		Badges(NewAuditScores{Security: 100, Performance: 100, Accessibility: 100, Trust: 100}))
}
