package analyzers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
)

// reviewPlatforms match links to review sites. Order is the report order.
var reviewPlatforms = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Google", regexp.MustCompile(`(?i)(search\.google\.com/local/(write)?reviews?|g\.page/r/|google\.[a-z.]+/maps/place/.*reviews|writereview)`)},
	{"Trustpilot", regexp.MustCompile(`(?i)trustpilot\.com/review/`)},
	{"Yelp", regexp.MustCompile(`(?i)yelp\.[a-z.]+/biz/`)},
	{"Tripadvisor", regexp.MustCompile(`(?i)tripadvisor\.[a-z.]+/.*_Review`)},
	{"Facebook", regexp.MustCompile(`(?i)facebook\.com/.+/reviews`)},
	{"Houzz", regexp.MustCompile(`(?i)houzz\.[a-z.]+/(pro|professionals)/`)},
	{"BBB", regexp.MustCompile(`(?i)bbb\.org/.+/profile/`)},
	{"Reviews.io", regexp.MustCompile(`(?i)reviews\.io/company-reviews/`)},
	{"Feefo", regexp.MustCompile(`(?i)feefo\.com/.*reviews`)},
}

var (
	reviewWidgetPattern = regexp.MustCompile(`(?i)(widget\.trustpilot\.com|elfsight|birdeye\.com|widget\.reviews\.io|yotpo|judge\.me|stamped\.io|feefo\.com/.*widget|reviewsonmywebsite|trustindex\.io)`)
	testimonialPattern  = regexp.MustCompile(`(?i)(testimonial|what our (customers|clients) say|customer reviews)`)
)

// Reviews looks for review platforms, rating markup and testimonials.
type Reviews struct {
	Registry *issues.Registry
}

func (a *Reviews) Name() string { return findings.NameReviews }

func (a *Reviews) Run(_ context.Context, pc PageContext) (Output[findings.ReviewsResult], error) {
	var out Output[findings.ReviewsResult]
	base, err := url.Parse(pc.URL)
	if err != nil {
		return out, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := parse(pc)
	if err != nil {
		return out, fmt.Errorf("parse html: %w", err)
	}

	res := findings.EmptyReviews()
	res.Available = true
	for _, el := range elements(doc, atom.A) {
		u, ok := resolve(base, attrOr(el, "href"))
		if !ok {
			continue
		}
		for _, p := range reviewPlatforms {
			if p.re.MatchString(u.String()) {
				res.Platforms = appendUnique(res.Platforms, p.name)
			}
		}
	}
	for _, el := range elements(doc, atom.Script, atom.Iframe) {
		if reviewWidgetPattern.MatchString(attrOr(el, "src")) {
			res.HasWidget = true
			break
		}
	}
	if !res.HasWidget && reviewWidgetPattern.MatchString(pc.HTML) {
		res.HasWidget = true
	}

	for _, obj := range jsonLD(doc) {
		rating, ok := aggregateRating(obj)
		if !ok {
			continue
		}
		res.HasAggregateRating = true
		if v, ok := ldNumber(rating, "ratingValue"); ok && res.RatingValue == nil {
			res.RatingValue = &v
		}
		if n, ok := ldNumber(rating, "reviewCount"); ok {
			res.ReviewCount = max(res.ReviewCount, int(n))
		} else if n, ok := ldNumber(rating, "ratingCount"); ok {
			res.ReviewCount = max(res.ReviewCount, int(n))
		}
	}

	res.HasTestimonials = hasTestimonials(doc)

	out.Result = res
	out.Issues = a.issues(res)
	return out, nil
}

// aggregateRating returns obj itself when it is an AggregateRating, or its
// nested aggregateRating property.
func aggregateRating(obj map[string]any) (map[string]any, bool) {
	if hasLDType(obj, "AggregateRating") {
		return obj, true
	}
	nested, ok := obj["aggregateRating"].(map[string]any)
	return nested, ok
}

// ldNumber reads a numeric property that may be encoded as a string.
func ldNumber(obj map[string]any, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func hasTestimonials(doc *html.Node) bool {
	found := false
	walk(doc, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type != html.ElementNode {
			return true
		}
		if testimonialPattern.MatchString(attrOr(n, "class")) || testimonialPattern.MatchString(attrOr(n, "id")) {
			found = true
			return false
		}
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4:
			found = testimonialPattern.MatchString(text(n))
		}
		return !found
	})
	return found
}

func (a *Reviews) issues(res findings.ReviewsResult) []domain.AuditIssue {
	reg := registry(a.Registry)
	var out []domain.AuditIssue
	if len(res.Platforms) == 0 && !res.HasWidget {
		out = append(out, reg.Issue("reviews.no-platforms", ""))
	}
	if !res.HasAggregateRating {
		out = append(out, reg.Issue("reviews.missing-aggregate-rating", ""))
	}
	return out
}

var _ Analyzer[findings.ReviewsResult] = (*Reviews)(nil)
