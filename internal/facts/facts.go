// Package facts projects analyzer findings into a flat, judgment-free snapshot.
// Nothing here scores or grades; every field defaults to its zero value, an
// empty collection or null when the analyzer behind it failed.
package facts

import (
	"encoding/json"
	"net/url"
	"strings"

	"pageaudit/internal/findings"
)

// AuditFacts is the full snapshot for one audited page.
type AuditFacts struct {
	URL      string        `json:"url"`
	Site     SiteFacts     `json:"site"`
	Speed    SpeedFacts    `json:"speed"`
	Content  ContentFacts  `json:"content"`
	Presence PresenceFacts `json:"presence"`
}

// SiteFacts covers transport, headers and the detected technology stack.
type SiteFacts struct {
	Host              string   `json:"host"`
	HTTPS             bool     `json:"https"`
	HSTS              bool     `json:"hsts"`
	HSTSMaxAge        int      `json:"hstsMaxAge"`
	HTTPSRedirect     bool     `json:"httpsRedirect"`
	StatusCode        int      `json:"statusCode"`
	SecurityHeaders   []string `json:"securityHeaders"`
	MissingHeaders    []string `json:"missingHeaders"`
	MixedContentCount int      `json:"mixedContentCount"`
	CookieCount       int      `json:"cookieCount"`
	InsecureCookies   int      `json:"insecureCookies"`
	Server            *string  `json:"server"`
	CMS               *string  `json:"cms"`
	Technologies      []string `json:"technologies"`
	Analytics         []string `json:"analytics"`
	TagManager        bool     `json:"tagManager"`
	AdPlatforms       []string `json:"adPlatforms"`
	Ecommerce         *string  `json:"ecommerce"`
	HasCart           bool     `json:"hasCart"`
	PaymentProviders  []string `json:"paymentProviders"`
}

// SpeedFacts holds raw metric values in milliseconds (CLS unitless). A nil
// metric was not measured.
type SpeedFacts struct {
	Measured bool        `json:"measured"`
	LCP      *float64    `json:"lcp"`
	FCP      *float64    `json:"fcp"`
	CLS      *float64    `json:"cls"`
	TBT      *float64    `json:"tbt"`
	SI       *float64    `json:"si"`
	TTFB     *float64    `json:"ttfb"`
	TTI      *float64    `json:"tti"`
	INP      *float64    `json:"inp"`
	Mobile   MobileFacts `json:"mobile"`
}

// MobileFacts are the pass/fail results of the measurement service's binary
// mobile checks. Nil means the check was not reported.
type MobileFacts struct {
	HasViewport   bool  `json:"hasViewport"`
	TapTargetsOK  *bool `json:"tapTargetsOk"`
	FontSizeOK    *bool `json:"fontSizeOk"`
	ContentFitsOK *bool `json:"contentFitsOk"`
}

// ContentFacts are the on-page SEO and content observations.
type ContentFacts struct {
	Title             *string            `json:"title"`
	TitleLength       int                `json:"titleLength"`
	MetaDescription   *string            `json:"metaDescription"`
	DescriptionLength int                `json:"descriptionLength"`
	H1Count           int                `json:"h1Count"`
	Headings          map[string]int     `json:"headings"`
	WordCount         int                `json:"wordCount"`
	ImageCount        int                `json:"imageCount"`
	ImagesMissingAlt  int                `json:"imagesMissingAlt"`
	InternalLinks     int                `json:"internalLinks"`
	ExternalLinks     int                `json:"externalLinks"`
	LinksChecked      int                `json:"linksChecked"`
	BrokenLinks       []string           `json:"brokenLinks"`
	Canonical         *string            `json:"canonical"`
	RobotsMeta        *string            `json:"robotsMeta"`
	Lang              *string            `json:"lang"`
	HasSitemap        bool               `json:"hasSitemap"`
	HasRobotsTxt      bool               `json:"hasRobotsTxt"`
	StructuredData    []string           `json:"structuredData"`
	Accessibility     AccessibilityFacts `json:"accessibility"`
}

// AccessibilityFacts counts the markup barriers found in the page.
type AccessibilityFacts struct {
	InputsWithoutLabel int  `json:"inputsWithoutLabel"`
	EmptyLinks         int  `json:"emptyLinks"`
	EmptyButtons       int  `json:"emptyButtons"`
	HasMainLandmark    bool `json:"hasMainLandmark"`
	HasSkipLink        bool `json:"hasSkipLink"`
	HeadingSkips       int  `json:"headingSkips"`
}

// PresenceFacts groups local, social and review signals.
type PresenceFacts struct {
	LocalBusiness LocalBusinessFacts `json:"localBusiness"`
	Social        SocialFacts        `json:"social"`
	Reviews       ReviewFacts        `json:"reviews"`
}

// LocalBusinessFacts describes local-business markup and listings.
type LocalBusinessFacts struct {
	HasSchema      bool     `json:"hasSchema"`
	Name           *string  `json:"name"`
	Phones         []string `json:"phones"`
	HasAddress     bool     `json:"hasAddress"`
	HasMap         bool     `json:"hasMap"`
	HasHours       bool     `json:"hasHours"`
	GoogleBusiness bool     `json:"googleBusiness"`
	Listings       []string `json:"listings"`
}

// SocialFacts holds share metadata and linked profiles.
type SocialFacts struct {
	OpenGraph   map[string]string        `json:"openGraph"`
	TwitterCard map[string]string        `json:"twitterCard"`
	Profiles    []findings.SocialProfile `json:"profiles"`
}

// ReviewFacts describes review platforms and rating markup.
type ReviewFacts struct {
	Platforms       []string         `json:"platforms"`
	HasWidget       bool             `json:"hasWidget"`
	AggregateRating *AggregateRating `json:"aggregateRating"`
	HasTestimonials bool             `json:"hasTestimonials"`
}

// AggregateRating is the schema.org rating as published by the page.
type AggregateRating struct {
	Value *float64 `json:"value"`
	Count int      `json:"count"`
}

// Extract builds the facts for rawURL from r. It never fails.
func Extract(r findings.Results, rawURL string) AuditFacts {
	f := AuditFacts{
		URL:      rawURL,
		Site:     site(r, rawURL),
		Speed:    speed(r),
		Content:  content(r),
		Presence: presence(r),
	}
	return f
}

func site(r findings.Results, rawURL string) SiteFacts {
	s := SiteFacts{
		SecurityHeaders:  []string{},
		MissingHeaders:   []string{},
		Technologies:     []string{},
		Analytics:        []string{},
		AdPlatforms:      []string{},
		PaymentProviders: []string{},
	}
	if u, err := url.Parse(rawURL); err == nil {
		s.Host = u.Hostname()
	}

	if sec := r.Security; sec.Available {
		s.HTTPS = sec.HTTPS
		s.HSTS = sec.HSTS
		s.HSTSMaxAge = sec.HSTSMaxAge
		s.HTTPSRedirect = sec.HTTPSRedirect
		s.StatusCode = sec.StatusCode
		s.SecurityHeaders = orEmpty(sec.PresentHeaders)
		s.MissingHeaders = orEmpty(sec.MissingHeaders)
		s.MixedContentCount = len(sec.MixedContent)
		s.CookieCount = sec.CookieCount
		s.InsecureCookies = sec.InsecureCookies
		s.Server = optional(sec.ServerDisclosure)
	} else {
		s.HTTPS = strings.HasPrefix(strings.ToLower(rawURL), "https://")
	}

	if t := r.Technology; t.Available {
		for _, tech := range t.Technologies {
			s.Technologies = append(s.Technologies, tech.Name)
		}
		s.CMS = optional(t.CMS)
		s.Analytics = orEmpty(t.Analytics)
		s.TagManager = t.TagManager
		s.AdPlatforms = orEmpty(t.AdPlatforms)
		s.Ecommerce = optional(t.Ecommerce)
		s.HasCart = t.HasCart
		s.PaymentProviders = orEmpty(t.PaymentProviders)
		if s.Server == nil {
			s.Server = optional(t.Server)
		}
	}
	return s
}

func speed(r findings.Results) SpeedFacts {
	var s SpeedFacts
	s.Mobile.HasViewport = r.SEO.Available && r.SEO.HasViewport

	p := r.Performance
	if !p.Available {
		return s
	}
	s.Measured = true
	metric := func(key string) *float64 {
		if v, ok := p.Metrics[key]; ok {
			return &v
		}
		return nil
	}
	s.LCP = metric("lcp")
	s.FCP = metric("fcp")
	s.CLS = metric("cls")
	s.TBT = metric("tbt")
	s.SI = metric("si")
	s.TTFB = metric("ttfb")
	s.TTI = metric("tti")
	s.INP = metric("inp")

	s.Mobile.TapTargetsOK = p.AuditPassed("tap-targets")
	s.Mobile.FontSizeOK = p.AuditPassed("font-size")
	s.Mobile.ContentFitsOK = p.AuditPassed("content-width")
	if passed := p.AuditPassed("viewport"); passed != nil && !r.SEO.Available {
		s.Mobile.HasViewport = *passed
	}
	return s
}

func content(r findings.Results) ContentFacts {
	c := ContentFacts{
		Headings:       map[string]int{},
		BrokenLinks:    []string{},
		StructuredData: []string{},
	}
	if seo := r.SEO; seo.Available {
		c.Title = optional(seo.Title)
		c.TitleLength = len([]rune(strings.TrimSpace(seo.Title)))
		c.MetaDescription = optional(seo.MetaDescription)
		c.DescriptionLength = len([]rune(strings.TrimSpace(seo.MetaDescription)))
		c.H1Count = seo.H1Count()
		for k, v := range seo.Headings {
			c.Headings[k] = v
		}
		c.WordCount = seo.WordCount
		c.ImageCount = seo.ImageCount
		c.ImagesMissingAlt = seo.ImagesMissingAlt
		c.InternalLinks = seo.InternalLinks
		c.ExternalLinks = seo.ExternalLinks
		c.LinksChecked = seo.LinksChecked
		c.BrokenLinks = orEmpty(seo.BrokenLinks)
		c.Canonical = optional(seo.Canonical)
		c.RobotsMeta = optional(seo.RobotsMeta)
		c.Lang = optional(seo.Lang)
		c.HasSitemap = seo.HasSitemap
		c.HasRobotsTxt = seo.HasRobotsTxt
		c.StructuredData = orEmpty(seo.StructuredDataTypes)
	}
	if a := r.Accessibility; a.Available {
		c.Accessibility = AccessibilityFacts{
			InputsWithoutLabel: a.InputsWithoutLabel,
			EmptyLinks:         a.EmptyLinks,
			EmptyButtons:       a.EmptyButtons,
			HasMainLandmark:    a.HasMainLandmark,
			HasSkipLink:        a.HasSkipLink,
			HeadingSkips:       a.HeadingSkips,
		}
		if !r.SEO.Available {
			c.ImagesMissingAlt = a.ImagesMissingAlt
		}
	}
	return c
}

func presence(r findings.Results) PresenceFacts {
	p := PresenceFacts{
		LocalBusiness: LocalBusinessFacts{Phones: []string{}, Listings: []string{}},
		Social: SocialFacts{
			OpenGraph:   map[string]string{},
			TwitterCard: map[string]string{},
			Profiles:    []findings.SocialProfile{},
		},
		Reviews: ReviewFacts{Platforms: []string{}},
	}
	if l := r.Local; l.Available {
		p.LocalBusiness = LocalBusinessFacts{
			HasSchema:      l.HasSchema,
			Name:           optional(l.BusinessName),
			Phones:         orEmpty(l.Phones),
			HasAddress:     l.HasAddress,
			HasMap:         l.HasMap,
			HasHours:       l.HasHours,
			GoogleBusiness: l.GoogleBusiness,
			Listings:       orEmpty(l.Listings),
		}
	}
	if s := r.Social; s.Available {
		for k, v := range s.OpenGraph {
			p.Social.OpenGraph[k] = v
		}
		for k, v := range s.TwitterCard {
			p.Social.TwitterCard[k] = v
		}
		p.Social.Profiles = append(p.Social.Profiles, s.Profiles...)
	}
	if rv := r.Reviews; rv.Available {
		p.Reviews.Platforms = orEmpty(rv.Platforms)
		p.Reviews.HasWidget = rv.HasWidget
		p.Reviews.HasTestimonials = rv.HasTestimonials
		if rv.HasAggregateRating {
			p.Reviews.AggregateRating = &AggregateRating{Value: rv.RatingValue, Count: rv.ReviewCount}
		}
	}
	return p
}

// Lookup resolves a dotted path such as "content.h1Count" against the JSON
// form of f.
func (f AuditFacts) Lookup(path string) (any, bool) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, false
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, false
	}
	for _, part := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[part]; !ok {
			return nil, false
		}
	}
	return node, true
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
