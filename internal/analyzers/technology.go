package analyzers

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
)

//go:embed technologies.yaml
var technologiesYAML []byte

// Technology categories used by the fingerprint catalog.
const (
	TechCMS         = "cms"
	TechEcommerce   = "ecommerce"
	TechPayment     = "payment"
	TechAnalytics   = "analytics"
	TechTagManager  = "tag-manager"
	TechAdvertising = "advertising"
	TechFramework   = "framework"
	TechCDN         = "cdn"
	TechServer      = "server"
)

type fingerprintSpec struct {
	Name     string            `yaml:"name"`
	Category string            `yaml:"category"`
	HTML     []string          `yaml:"html"`
	Scripts  []string          `yaml:"scripts"`
	Meta     map[string]string `yaml:"meta"`
	Headers  map[string]string `yaml:"headers"`
	Cookies  []string          `yaml:"cookies"`
}

// Fingerprint is a compiled catalog entry.
type Fingerprint struct {
	Name     string
	Category string
	html     []*regexp.Regexp
	scripts  []*regexp.Regexp
	meta     map[string]*regexp.Regexp
	headers  map[string]*regexp.Regexp
	cookies  []*regexp.Regexp
}

// LoadFingerprints compiles a YAML fingerprint catalog.
func LoadFingerprints(data []byte) ([]Fingerprint, error) {
	var specs []fingerprintSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("decode fingerprints: %w", err)
	}
	out := make([]Fingerprint, 0, len(specs))
	for _, s := range specs {
		if s.Name == "" || s.Category == "" {
			return nil, fmt.Errorf("fingerprint %q: name and category are required", s.Name)
		}
		fp := Fingerprint{
			Name:     s.Name,
			Category: s.Category,
			meta:     map[string]*regexp.Regexp{},
			headers:  map[string]*regexp.Regexp{},
		}
		var err error
		if fp.html, err = compileAll(s.HTML); err != nil {
			return nil, fmt.Errorf("fingerprint %q: %w", s.Name, err)
		}
		if fp.scripts, err = compileAll(s.Scripts); err != nil {
			return nil, fmt.Errorf("fingerprint %q: %w", s.Name, err)
		}
		if fp.cookies, err = compileAll(s.Cookies); err != nil {
			return nil, fmt.Errorf("fingerprint %q: %w", s.Name, err)
		}
		for k, v := range s.Meta {
			re, err := regexp.Compile("(?i)" + v)
			if err != nil {
				return nil, fmt.Errorf("fingerprint %q meta %s: %w", s.Name, k, err)
			}
			fp.meta[strings.ToLower(k)] = re
		}
		for k, v := range s.Headers {
			re, err := regexp.Compile("(?i)" + v)
			if err != nil {
				return nil, fmt.Errorf("fingerprint %q header %s: %w", s.Name, k, err)
			}
			fp.headers[http.CanonicalHeaderKey(k)] = re
		}
		out = append(out, fp)
	}
	return out, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

var (
	defaultFingerprintsOnce sync.Once
	defaultFingerprints     []Fingerprint
)

// DefaultFingerprints returns the embedded catalog.
func DefaultFingerprints() []Fingerprint {
	defaultFingerprintsOnce.Do(func() {
		fps, err := LoadFingerprints(technologiesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded technologies.yaml: %v", err))
		}
		defaultFingerprints = fps
	})
	return defaultFingerprints
}

var cartPattern = regexp.MustCompile(`(?i)(add[-_ ]to[-_ ]cart|shopping[-_ ]cart|/cart["'/?]|/checkout["'/?]|woocommerce-cart|data-cart)`)

// Technology fingerprints the page from its markup, scripts and headers.
type Technology struct {
	// Fingerprints defaults to DefaultFingerprints.
	Fingerprints []Fingerprint
	Registry     *issues.Registry
}

func (a *Technology) Name() string { return findings.NameTechnology }

func (a *Technology) Run(_ context.Context, pc PageContext) (Output[findings.TechnologyResult], error) {
	var out Output[findings.TechnologyResult]
	doc, err := parse(pc)
	if err != nil {
		return out, fmt.Errorf("parse html: %w", err)
	}
	fps := a.Fingerprints
	if fps == nil {
		fps = DefaultFingerprints()
	}

	var scripts []string
	for _, s := range elements(doc, atom.Script) {
		if src := attrOr(s, "src"); src != "" {
			scripts = append(scripts, src)
		}
	}
	m := metas(doc)
	cookies := cookieNames(pc.Headers)

	res := findings.EmptyTechnology()
	res.Available = true
	for _, fp := range fps {
		detected := fp.match(pc.HTML, scripts, m, pc.Headers, cookies)
		if len(detected) == 0 {
			continue
		}
		res.Technologies = append(res.Technologies, findings.Technology{
			Name:       fp.Name,
			Category:   fp.Category,
			Confidence: min(100, 50+25*len(detected)),
			DetectedBy: detected,
		})
		switch fp.Category {
		case TechCMS:
			if res.CMS == "" {
				res.CMS = fp.Name
			}
		case TechEcommerce:
			if res.Ecommerce == "" {
				res.Ecommerce = fp.Name
			}
		case TechPayment:
			res.PaymentProviders = appendUnique(res.PaymentProviders, fp.Name)
		case TechAnalytics:
			res.Analytics = appendUnique(res.Analytics, fp.Name)
		case TechTagManager:
			res.TagManager = true
		case TechAdvertising:
			res.AdPlatforms = appendUnique(res.AdPlatforms, fp.Name)
		}
	}
	sort.SliceStable(res.Technologies, func(i, j int) bool {
		return res.Technologies[i].Confidence > res.Technologies[j].Confidence
	})

	res.Server = strings.TrimSpace(pc.Headers.Get("Server"))
	res.HasCart = cartPattern.MatchString(pc.HTML)
	for _, obj := range jsonLD(doc) {
		if hasLDType(obj, "Product", "ProductGroup", "Offer") {
			res.HasProductSchema = true
			break
		}
	}

	out.Result = res
	out.Issues = a.issues(res)
	return out, nil
}

func (a *Technology) issues(res findings.TechnologyResult) []domain.AuditIssue {
	reg := registry(a.Registry)
	var out []domain.AuditIssue
	if len(res.Analytics) == 0 {
		out = append(out, reg.Issue("technology.no-analytics", ""))
	}
	if res.CMS != "" {
		out = append(out, reg.Issuef("technology.cms-detected", "The site runs on %s.", res.CMS))
	}
	return out
}

// match returns the sources that matched, in a fixed order.
func (fp Fingerprint) match(doc string, scripts []string, meta map[string]string, headers http.Header, cookies []string) []string {
	var by []string
	for _, re := range fp.html {
		if re.MatchString(doc) {
			by = append(by, "html")
			break
		}
	}
scriptLoop:
	for _, re := range fp.scripts {
		for _, src := range scripts {
			if re.MatchString(src) {
				by = append(by, "script")
				break scriptLoop
			}
		}
	}
	for name, re := range fp.meta {
		if v, ok := meta[name]; ok && re.MatchString(v) {
			by = append(by, "meta")
			break
		}
	}
	for name, re := range fp.headers {
		if v := headers.Get(name); v != "" && re.MatchString(v) {
			by = append(by, "header")
			break
		}
	}
cookieLoop:
	for _, re := range fp.cookies {
		for _, c := range cookies {
			if re.MatchString(c) {
				by = append(by, "cookie")
				break cookieLoop
			}
		}
	}
	return by
}

func cookieNames(h http.Header) []string {
	var names []string
	for _, line := range h.Values("Set-Cookie") {
		if c, err := http.ParseSetCookie(line); err == nil {
			names = append(names, c.Name)
		}
	}
	return names
}

var _ Analyzer[findings.TechnologyResult] = (*Technology)(nil)
