// Package findings defines the raw analyzer output shared by every scoring
// stage. A Results value is built once per audit and never mutated after the
// orchestrator hands it on.
package findings

import "pageaudit/internal/domain"

// Analyzer names, in execution order.
const (
	NamePerformance   = "performance"
	NameSEO           = "seo"
	NameTechnology    = "technology"
	NameSocial        = "social"
	NameSecurity      = "security"
	NameLocal         = "local"
	NameReviews       = "reviews"
	NameAccessibility = "accessibility"
	NameScreenshots   = "screenshots"
)

// Results aggregates every analyzer's output for one page.
type Results struct {
	Performance   PerformanceResult   `json:"performance"`
	SEO           SEOResult           `json:"seo"`
	Technology    TechnologyResult    `json:"technology"`
	Social        SocialResult        `json:"social"`
	Security      SecurityResult      `json:"security"`
	Local         LocalResult         `json:"local"`
	Reviews       ReviewsResult       `json:"reviews"`
	Accessibility AccessibilityResult `json:"accessibility"`

	// Failed lists analyzers whose results are defaults.
	Failed []string            `json:"failed,omitempty"`
	Issues []domain.AuditIssue `json:"issues"`
}

// HasFailed reports whether the named analyzer failed.
func (r *Results) HasFailed(name string) bool {
	for _, f := range r.Failed {
		if f == name {
			return true
		}
	}
	return false
}

// Empty returns a Results where every analyzer holds its default.
func Empty() Results {
	return Results{
		Performance:   EmptyPerformance(),
		SEO:           EmptySEO(),
		Technology:    EmptyTechnology(),
		Social:        EmptySocial(),
		Security:      EmptySecurity(),
		Local:         EmptyLocal(),
		Reviews:       EmptyReviews(),
		Accessibility: EmptyAccessibility(),
		Issues:        []domain.AuditIssue{},
	}
}

// AuditDetail is one check from the measurement service report.
type AuditDetail struct {
	Title        string   `json:"title"`
	Score        *float64 `json:"score"`
	NumericValue *float64 `json:"numericValue,omitempty"`
	DisplayValue string   `json:"displayValue,omitempty"`
}

// PerformanceResult is what the measurement service returned. Categories are
// 0-100; Metrics are keyed lcp, fcp, cls, tbt, si, ttfb, tti, inp.
type PerformanceResult struct {
	Available  bool                   `json:"available"`
	Categories map[string]float64     `json:"categories"`
	Metrics    map[string]float64     `json:"metrics"`
	Audits     map[string]AuditDetail `json:"audits"`
}

func EmptyPerformance() PerformanceResult {
	return PerformanceResult{
		Categories: map[string]float64{},
		Metrics:    map[string]float64{},
		Audits:     map[string]AuditDetail{},
	}
}

// AuditPassed reports the pass state of a binary measurement check, which the
// service scores as exactly 0 or 1. Nil means the check was not reported.
func (p PerformanceResult) AuditPassed(id string) *bool {
	a, ok := p.Audits[id]
	if !ok || a.Score == nil {
		return nil
	}
	passed := *a.Score == 1
	return &passed
}

type SEOResult struct {
	Available           bool           `json:"available"`
	Title               string         `json:"title"`
	MetaDescription     string         `json:"metaDescription"`
	Headings            map[string]int `json:"headings"`
	WordCount           int            `json:"wordCount"`
	ImageCount          int            `json:"imageCount"`
	ImagesMissingAlt    int            `json:"imagesMissingAlt"`
	InternalLinks       int            `json:"internalLinks"`
	ExternalLinks       int            `json:"externalLinks"`
	LinksChecked        int            `json:"linksChecked"`
	BrokenLinks         []string       `json:"brokenLinks"`
	Canonical           string         `json:"canonical"`
	RobotsMeta          string         `json:"robotsMeta"`
	NoIndex             bool           `json:"noIndex"`
	HasViewport         bool           `json:"hasViewport"`
	Lang                string         `json:"lang"`
	HasSitemap          bool           `json:"hasSitemap"`
	HasRobotsTxt        bool           `json:"hasRobotsTxt"`
	StructuredDataTypes []string       `json:"structuredDataTypes"`
}

func EmptySEO() SEOResult {
	return SEOResult{Headings: map[string]int{}, BrokenLinks: []string{}, StructuredDataTypes: []string{}}
}

// H1Count is a shorthand for Headings["h1"].
func (s SEOResult) H1Count() int { return s.Headings["h1"] }

type Technology struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Confidence int      `json:"confidence"`
	DetectedBy []string `json:"detectedBy"`
}

type TechnologyResult struct {
	Available        bool         `json:"available"`
	Technologies     []Technology `json:"technologies"`
	CMS              string       `json:"cms"`
	Analytics        []string     `json:"analytics"`
	TagManager       bool         `json:"tagManager"`
	AdPlatforms      []string     `json:"adPlatforms"`
	Ecommerce        string       `json:"ecommerce"`
	HasCart          bool         `json:"hasCart"`
	HasProductSchema bool         `json:"hasProductSchema"`
	PaymentProviders []string     `json:"paymentProviders"`
	Server           string       `json:"server"`
}

func EmptyTechnology() TechnologyResult {
	return TechnologyResult{
		Technologies:     []Technology{},
		Analytics:        []string{},
		AdPlatforms:      []string{},
		PaymentProviders: []string{},
	}
}

// IsStore reports whether the page looks like an online store.
func (t TechnologyResult) IsStore() bool {
	return t.Ecommerce != "" || t.HasCart
}

type SocialProfile struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type SocialResult struct {
	Available   bool              `json:"available"`
	OpenGraph   map[string]string `json:"openGraph"`
	TwitterCard map[string]string `json:"twitterCard"`
	Profiles    []SocialProfile   `json:"profiles"`
}

func EmptySocial() SocialResult {
	return SocialResult{OpenGraph: map[string]string{}, TwitterCard: map[string]string{}, Profiles: []SocialProfile{}}
}

// SecurityHeaders are the headers that earn the per-header bonus. HSTS is scored
// on its own.
var SecurityHeaders = []string{
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
	"Permissions-Policy",
}

type SecurityResult struct {
	Available        bool     `json:"available"`
	HTTPS            bool     `json:"https"`
	HSTS             bool     `json:"hsts"`
	HSTSMaxAge       int      `json:"hstsMaxAge"`
	HTTPSRedirect    bool     `json:"httpsRedirect"`
	PresentHeaders   []string `json:"presentHeaders"`
	MissingHeaders   []string `json:"missingHeaders"`
	MixedContent     []string `json:"mixedContent"`
	CookieCount      int      `json:"cookieCount"`
	InsecureCookies  int      `json:"insecureCookies"`
	SecureCookies    bool     `json:"secureCookies"`
	ServerDisclosure string   `json:"serverDisclosure"`
	StatusCode       int      `json:"statusCode"`
}

func EmptySecurity() SecurityResult {
	return SecurityResult{PresentHeaders: []string{}, MissingHeaders: []string{}, MixedContent: []string{}}
}

type LocalResult struct {
	Available      bool     `json:"available"`
	HasSchema      bool     `json:"hasSchema"`
	BusinessName   string   `json:"businessName"`
	Phones         []string `json:"phones"`
	HasAddress     bool     `json:"hasAddress"`
	HasMap         bool     `json:"hasMap"`
	HasHours       bool     `json:"hasHours"`
	GoogleBusiness bool     `json:"googleBusiness"`
	Listings       []string `json:"listings"`
}

func EmptyLocal() LocalResult {
	return LocalResult{Phones: []string{}, Listings: []string{}}
}

type ReviewsResult struct {
	Available          bool     `json:"available"`
	Platforms          []string `json:"platforms"`
	HasWidget          bool     `json:"hasWidget"`
	HasAggregateRating bool     `json:"hasAggregateRating"`
	RatingValue        *float64 `json:"ratingValue"`
	ReviewCount        int      `json:"reviewCount"`
	HasTestimonials    bool     `json:"hasTestimonials"`
}

func EmptyReviews() ReviewsResult {
	return ReviewsResult{Platforms: []string{}}
}

type AccessibilityResult struct {
	Available          bool     `json:"available"`
	HasLang            bool     `json:"hasLang"`
	ImagesMissingAlt   int      `json:"imagesMissingAlt"`
	InputsWithoutLabel int      `json:"inputsWithoutLabel"`
	EmptyLinks         int      `json:"emptyLinks"`
	EmptyButtons       int      `json:"emptyButtons"`
	HasMainLandmark    bool     `json:"hasMainLandmark"`
	HasSkipLink        bool     `json:"hasSkipLink"`
	HeadingSkips       int      `json:"headingSkips"`
	MeasuredScore      *float64 `json:"measuredScore"`
}

func EmptyAccessibility() AccessibilityResult {
	return AccessibilityResult{}
}
