package analyzers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
)

// localBusinessTypes are schema.org types treated as a local business.
var localBusinessTypes = []string{
	"LocalBusiness", "Organization", "Store", "Restaurant", "ProfessionalService",
	"HomeAndConstructionBusiness", "Plumber", "Electrician", "RoofingContractor",
	"HVACBusiness", "Dentist", "MedicalBusiness", "LegalService", "Attorney",
	"AutoRepair", "BeautySalon", "HairSalon", "FoodEstablishment", "CafeOrCoffeeShop",
	"LodgingBusiness", "Hotel", "RealEstateAgent", "AccountingService", "HealthAndBeautyBusiness",
}

// listingHosts are business directories.
var listingHosts = map[string]string{
	"yelp.com":        "Yelp",
	"yellowpages.com": "Yellow Pages",
	"bbb.org":         "BBB",
	"tripadvisor.com": "Tripadvisor",
	"foursquare.com":  "Foursquare",
	"nextdoor.com":    "Nextdoor",
	"angi.com":        "Angi",
	"houzz.com":       "Houzz",
	"thumbtack.com":   "Thumbtack",
}

var (
	hoursPattern   = regexp.MustCompile(`(?i)(opening hours|business hours|hours of operation|mon(day)?\s*[-–]\s*fri(day)?|open\s+24\s*/\s*7)`)
	mapSrcPattern  = regexp.MustCompile(`(?i)(google\.[a-z.]+/maps|maps\.google\.|openstreetmap\.org|api\.mapbox\.com|bing\.com/maps)`)
	gbpLinkPattern = regexp.MustCompile(`(?i)(g\.page/|business\.google\.com|maps\.app\.goo\.gl|goo\.gl/maps|google\.[a-z.]+/maps/place|search\.google\.com/local)`)
	phonePattern   = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
)

// Local looks for local-business signals: schema, phone, address, map, hours.
type Local struct {
	Registry *issues.Registry
}

func (a *Local) Name() string { return findings.NameLocal }

func (a *Local) Run(_ context.Context, pc PageContext) (Output[findings.LocalResult], error) {
	var out Output[findings.LocalResult]
	base, err := url.Parse(pc.URL)
	if err != nil {
		return out, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := parse(pc)
	if err != nil {
		return out, fmt.Errorf("parse html: %w", err)
	}

	res := findings.EmptyLocal()
	res.Available = true
	for _, obj := range jsonLD(doc) {
		if !hasLDType(obj, localBusinessTypes...) {
			continue
		}
		res.HasSchema = true
		if res.BusinessName == "" {
			res.BusinessName = ldString(obj, "name")
		}
		if tel := ldString(obj, "telephone"); tel != "" {
			res.Phones = appendUnique(res.Phones, tel)
		}
		if _, ok := obj["address"]; ok {
			res.HasAddress = true
		}
		if _, ok := obj["openingHours"]; ok {
			res.HasHours = true
		}
		if _, ok := obj["openingHoursSpecification"]; ok {
			res.HasHours = true
		}
		if hasMapProp(obj) {
			res.HasMap = true
		}
	}

	for _, el := range elements(doc, atom.A) {
		href := attrOr(el, "href")
		if strings.HasPrefix(strings.ToLower(href), "tel:") {
			if tel := phonePattern.FindString(href); tel != "" {
				res.Phones = appendUnique(res.Phones, strings.TrimSpace(tel))
			}
			continue
		}
		u, ok := resolve(base, href)
		if !ok {
			continue
		}
		if gbpLinkPattern.MatchString(u.String()) {
			res.GoogleBusiness = true
		}
		if name, ok := listingHosts[domain.RegistrableHost(u.Hostname())]; ok {
			res.Listings = appendUnique(res.Listings, name)
		}
	}
	for _, f := range elements(doc, atom.Iframe) {
		if mapSrcPattern.MatchString(attrOr(f, "src")) {
			res.HasMap = true
		}
	}
	if len(elements(doc, atom.Address)) > 0 || hasMicrodata(doc, "PostalAddress") {
		res.HasAddress = true
	}
	if body := first(doc, atom.Body); body != nil && hoursPattern.MatchString(text(body)) {
		res.HasHours = true
	}

	out.Result = res
	out.Issues = a.issues(res)
	return out, nil
}

func hasMapProp(obj map[string]any) bool {
	_, hasMap := obj["hasMap"]
	_, geo := obj["geo"]
	return hasMap || geo
}

// hasMicrodata reports an itemtype ending in typ.
func hasMicrodata(root *html.Node, typ string) bool {
	found := false
	walk(root, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type == html.ElementNode && strings.HasSuffix(attrOr(n, "itemtype"), "/"+typ) {
			found = true
		}
		return true
	})
	return found
}

func (a *Local) issues(res findings.LocalResult) []domain.AuditIssue {
	reg := registry(a.Registry)
	var out []domain.AuditIssue
	if !res.HasSchema {
		out = append(out, reg.Issue("local.missing-schema", ""))
	}
	if len(res.Phones) == 0 {
		out = append(out, reg.Issue("local.missing-phone", ""))
	}
	if !res.HasAddress {
		out = append(out, reg.Issue("local.missing-address", ""))
	}
	if !res.GoogleBusiness {
		out = append(out, reg.Issue("local.missing-google-business", ""))
	}
	return out
}

var _ Analyzer[findings.LocalResult] = (*Local)(nil)
