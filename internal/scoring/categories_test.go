package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/findings"
)

func ptr[T any](v T) *T { return &v }

// goodSEO returns SEO findings with nothing to deduct.
func goodSEO() findings.SEOResult {
	s := findings.EmptySEO()
	s.Available = true
	s.Title = "Acme Plumbing | Emergency plumbers in Springfield"
	s.MetaDescription = "Licensed plumbers in Springfield available around the clock for leaks, blocked drains and boiler repairs."
	s.Headings = map[string]int{"h1": 1, "h2": 3}
	s.WordCount = 820
	s.ImageCount = 4
	s.InternalLinks = 12
	s.Canonical = "https://acme.example/"
	s.HasViewport = true
	s.HasSitemap = true
	s.HasRobotsTxt = true
	s.StructuredDataTypes = []string{"LocalBusiness"}
	return s
}

func TestSEOPerfectPage(t *testing.T) {
	r := findings.Empty()
	r.SEO = goodSEO()

	b := SEO(r)
	assert.Equal(t, 100, b.Score)
	assert.Empty(t, b.Deductions)
	assert.Empty(t, b.Tips)
}

func TestSEOMissingTitleDescriptionAndSitemap(t *testing.T) {
	r := findings.Empty()
	r.SEO = goodSEO()
	r.SEO.Title = ""
	r.SEO.MetaDescription = ""
	r.SEO.HasSitemap = false

	b := SEO(r)
	require.Len(t, b.Deductions, 3)
	assert.Equal(t, 15, b.Deductions[0].Points)
	assert.Equal(t, 10, b.Deductions[1].Points)
	assert.Equal(t, 5, b.Deductions[2].Points)
	assert.Equal(t, 70, b.Score)
	assert.Equal(t, "content.title", b.Deductions[0].Fact)
}

func TestSEOCappedDeductions(t *testing.T) {
	r := findings.Empty()
	r.SEO = goodSEO()
	r.SEO.ImagesMissingAlt = 40
	r.SEO.BrokenLinks = []string{"a", "b", "c", "d", "e", "f", "g"}

	b := SEO(r)
	require.Len(t, b.Deductions, 2)
	assert.Equal(t, 10, b.Deductions[0].Points)
	assert.Equal(t, 15, b.Deductions[1].Points)
	assert.Equal(t, 75, b.Score)
}

func TestSEOLengthAndHeadingRules(t *testing.T) {
	r := findings.Empty()
	r.SEO = goodSEO()
	r.SEO.Title = "Home"
	r.SEO.MetaDescription = "Too short."
	r.SEO.Headings["h1"] = 3

	b := SEO(r)
	points := make([]int, 0, len(b.Deductions))
	for _, d := range b.Deductions {
		points = append(points, d.Points)
	}
	assert.Equal(t, []int{5, 3, 3}, points)
	assert.Equal(t, 89, b.Score)
}

func TestSEOClampsAtZero(t *testing.T) {
	r := findings.Empty()
	r.SEO = findings.EmptySEO()
	r.SEO.Available = true
	r.SEO.NoIndex = true
	r.SEO.ImagesMissingAlt = 10
	r.SEO.BrokenLinks = make([]string, 10)

	b := SEO(r)
	assert.Greater(t, b.TotalDeducted(), 100)
	assert.Equal(t, 0, b.Score)
}

func TestSecurityScenario(t *testing.T) {
	r := findings.Empty()
	r.Security = findings.EmptySecurity()
	r.Security.Available = true
	r.Security.HTTPS = true
	r.Security.PresentHeaders = []string{"X-Frame-Options"}
	r.Security.MissingHeaders = []string{"Content-Security-Policy", "X-Content-Type-Options", "Referrer-Policy", "Permissions-Policy"}

	b := Security(r)
	assert.Equal(t, 54, b.Score)
	assert.Equal(t, 54, b.TotalBonus())
	assert.Equal(t, 0, b.BaseScore)
}

func TestSecurityMixedContentOnlyRewardsHTTPS(t *testing.T) {
	r := findings.Empty()
	r.Security = findings.EmptySecurity()
	r.Security.Available = true

	b := Security(r)
	assert.Equal(t, 0, b.Score)
	assert.Empty(t, b.Bonuses)
}

func TestSecurityCapsAtHundred(t *testing.T) {
	r := findings.Empty()
	r.Security = findings.SecurityResult{
		Available:      true,
		HTTPS:          true,
		HSTS:           true,
		HTTPSRedirect:  true,
		SecureCookies:  true,
		PresentHeaders: findings.SecurityHeaders,
	}

	b := Security(r)
	assert.Equal(t, 100, b.Score)
	assert.Equal(t, 100, b.TotalBonus())
}

func TestUnavailableCategories(t *testing.T) {
	r := findings.Empty()
	calculators := map[string]func(findings.Results) ScoreBreakdown{
		CategoryPerformance:   Performance,
		CategorySEO:           SEO,
		CategorySecurity:      Security,
		CategorySocial:        Social,
		CategoryLocalPresence: LocalPresence,
		CategoryReviews:       Reviews,
		CategoryAccessibility: Accessibility,
		CategoryAdvertising:   Advertising,
	}
	for name, calc := range calculators {
		t.Run(name, func(t *testing.T) {
			b := calc(r)
			assert.False(t, b.Available)
			assert.Equal(t, 0, b.Score)
			require.Len(t, b.Deductions, 1)
			assert.True(t, strings.HasSuffix(b.Deductions[0].Reason, "could not be analyzed"))
		})
	}
}

func TestPerformanceFromMetrics(t *testing.T) {
	r := findings.Empty()
	r.Performance = findings.EmptyPerformance()
	r.Performance.Available = true
	r.Performance.Metrics = map[string]float64{
		"fcp": 0, "si": 0, "lcp": 8000, "tbt": 0, "cls": 0, "ttfb": 5000,
	}

	b := Performance(r)
	// lcp scores 0 and carries a quarter of the weight.
	assert.Equal(t, 75, b.Score)
	assert.Equal(t, b.BaseScore-b.TotalDeducted(), b.Score)
	for _, d := range b.Deductions {
		assert.NotEqual(t, "speed.ttfb", d.Fact)
	}
}

func TestPerformanceRenormalizesMissingMetrics(t *testing.T) {
	r := findings.Empty()
	r.Performance = findings.EmptyPerformance()
	r.Performance.Available = true
	r.Performance.Metrics = map[string]float64{"lcp": 8000}

	b := Performance(r)
	require.Len(t, b.Deductions, 1)
	assert.Equal(t, 100, b.Deductions[0].Points)
	assert.Equal(t, 0, b.Score)
	assert.NotEmpty(t, b.Tips)
}

func TestPerformanceFallsBackToCategoryScore(t *testing.T) {
	r := findings.Empty()
	r.Performance = findings.EmptyPerformance()
	r.Performance.Available = true
	r.Performance.Categories = map[string]float64{"performance": 73}

	b := Performance(r)
	assert.Equal(t, 73, b.Score)
}

func TestAccessibilityDeductions(t *testing.T) {
	r := findings.Empty()
	r.Accessibility = findings.AccessibilityResult{
		Available:          true,
		HasLang:            false,
		ImagesMissingAlt:   2,
		InputsWithoutLabel: 9,
		HasMainLandmark:    true,
		HasSkipLink:        true,
		MeasuredScore:      ptr(70.0),
	}

	b := Accessibility(r)
	// 10 lang + 6 alt + 20 inputs (capped) + 10 measured
	assert.Equal(t, 46, b.TotalDeducted())
	assert.Equal(t, 54, b.Score)
	assert.Empty(t, b.Tips)
}

func TestPresenceBonuses(t *testing.T) {
	r := findings.Empty()
	r.Local = findings.LocalResult{Available: true, HasSchema: true, Phones: []string{"+1 555 0100"}, HasAddress: true}
	r.Social = findings.SocialResult{
		Available: true,
		OpenGraph: map[string]string{"og:title": "Acme", "og:image": "https://acme.example/og.png"},
		Profiles: []findings.SocialProfile{
			{Platform: "facebook"}, {Platform: "instagram"}, {Platform: "linkedin"},
			{Platform: "x"}, {Platform: "youtube"},
		},
	}
	r.Reviews = findings.ReviewsResult{Available: true, Platforms: []string{"google", "yelp", "trustpilot", "tripadvisor"}, HasAggregateRating: true}

	assert.Equal(t, 70, LocalPresence(r).Score)
	assert.Equal(t, 70, Social(r).Score)
	assert.Equal(t, 70, Reviews(r).Score)
}

func TestAdvertisingAndEcommerce(t *testing.T) {
	r := findings.Empty()
	r.Technology = findings.EmptyTechnology()
	r.Technology.Available = true
	r.Technology.Analytics = []string{"Google Analytics"}
	r.Technology.AdPlatforms = []string{"Meta Pixel", "Google Ads", "TikTok Pixel"}

	assert.Equal(t, 80, Advertising(r).Score)

	_, applies := Ecommerce(r)
	assert.False(t, applies)

	r.Technology.Ecommerce = "Shopify"
	r.Technology.HasCart = true
	b, applies := Ecommerce(r)
	assert.True(t, applies)
	assert.Equal(t, 70, b.Score)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-20))
	assert.Equal(t, 100, Clamp(140))
	assert.Equal(t, 42, Clamp(42))
}
