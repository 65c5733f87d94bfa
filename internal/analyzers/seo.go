package analyzers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/atom"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
	"pageaudit/internal/scoring"
)

// SEO extracts on-page search signals and probes sitemap.xml and robots.txt.
type SEO struct {
	Client   HTTPDoer
	Links    *LinkChecker
	Registry *issues.Registry
	// ProbeTimeout bounds each sitemap/robots request.
	ProbeTimeout time.Duration
}

func (a *SEO) Name() string { return findings.NameSEO }

func (a *SEO) Run(ctx context.Context, pc PageContext) (Output[findings.SEOResult], error) {
	var out Output[findings.SEOResult]
	base, err := url.Parse(pc.URL)
	if err != nil {
		return out, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := parse(pc)
	if err != nil {
		return out, fmt.Errorf("parse html: %w", err)
	}

	res := findings.EmptySEO()
	res.Available = true
	if t := first(doc, atom.Title); t != nil {
		res.Title = text(t)
	}
	m := metas(doc)
	res.MetaDescription = m["description"]
	res.RobotsMeta = m["robots"]
	res.NoIndex = strings.Contains(strings.ToLower(res.RobotsMeta), "noindex") ||
		strings.Contains(strings.ToLower(pc.Headers.Get("X-Robots-Tag")), "noindex")
	_, res.HasViewport = m["viewport"]

	if h := first(doc, atom.Html); h != nil {
		res.Lang = attrOr(h, "lang")
	}
	for _, l := range elements(doc, atom.Link) {
		if strings.EqualFold(attrOr(l, "rel"), "canonical") {
			res.Canonical = attrOr(l, "href")
			break
		}
	}
	for _, h := range elements(doc, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6) {
		res.Headings[h.Data]++
	}
	if body := first(doc, atom.Body); body != nil {
		res.WordCount = len(strings.Fields(text(body)))
	}
	for _, img := range elements(doc, atom.Img) {
		res.ImageCount++
		if _, ok := attr(img, "alt"); !ok {
			res.ImagesMissingAlt++
		}
	}
	for _, obj := range jsonLD(doc) {
		for _, t := range ldTypes(obj) {
			res.StructuredDataTypes = appendUnique(res.StructuredDataTypes, t)
		}
	}

	var hrefs []string
	for _, href := range links(doc, base) {
		u, _ := url.Parse(href)
		if sameSite(base, u) {
			res.InternalLinks++
		} else {
			res.ExternalLinks++
		}
		hrefs = append(hrefs, href)
	}
	if a.Links != nil {
		pc.Progress("Checking links")
		res.LinksChecked, res.BrokenLinks = a.Links.Check(ctx, hrefs)
	}

	pc.Progress("Checking sitemap and robots.txt")
	res.HasSitemap = a.exists(ctx, base, "/sitemap.xml")
	res.HasRobotsTxt = a.exists(ctx, base, "/robots.txt")

	out.Result = res
	out.Issues = a.issues(res)
	return out, nil
}

// exists reports whether path on the page origin answers 200.
func (a *SEO) exists(ctx context.Context, base *url.URL, path string) bool {
	if a.Client == nil {
		return false
	}
	timeout := a.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := url.URL{Scheme: base.Scheme, Host: base.Host, Path: path}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := a.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode == http.StatusOK
}

func (a *SEO) issues(res findings.SEOResult) []domain.AuditIssue {
	reg := registry(a.Registry)
	var out []domain.AuditIssue
	title := strings.TrimSpace(res.Title)
	switch n := len([]rune(title)); {
	case n == 0:
		out = append(out, reg.Issue("seo.missing-title", ""))
	case n < scoring.TitleMin || n > scoring.TitleMax:
		out = append(out, reg.Issuef("seo.title-length", "The title is %d characters long.", n))
	}
	desc := strings.TrimSpace(res.MetaDescription)
	switch n := len([]rune(desc)); {
	case n == 0:
		out = append(out, reg.Issue("seo.missing-description", ""))
	case n < scoring.DescriptionMin || n > scoring.DescriptionMax:
		out = append(out, reg.Issuef("seo.description-length", "The meta description is %d characters long.", n))
	}
	switch h1 := res.H1Count(); {
	case h1 == 0:
		out = append(out, reg.Issue("seo.missing-h1", ""))
	case h1 > 1:
		out = append(out, reg.Issuef("seo.multiple-h1", "The page has %d H1 headings.", h1))
	}
	if res.WordCount < scoring.ThinContent {
		out = append(out, reg.Issuef("seo.thin-content", "The page has %d words.", res.WordCount))
	}
	if res.ImagesMissingAlt > 0 {
		out = append(out, reg.Issuef("seo.images-missing-alt", "%d of %d images have no alt attribute.", res.ImagesMissingAlt, res.ImageCount))
	}
	if len(res.BrokenLinks) > 0 {
		out = append(out, reg.Issuef("seo.broken-links", "Broken: %s", strings.Join(res.BrokenLinks, ", ")))
	}
	if !res.HasSitemap {
		out = append(out, reg.Issue("seo.missing-sitemap", ""))
	}
	if !res.HasRobotsTxt {
		out = append(out, reg.Issue("seo.missing-robots", ""))
	}
	if res.Canonical == "" {
		out = append(out, reg.Issue("seo.missing-canonical", ""))
	}
	if res.NoIndex {
		out = append(out, reg.Issue("seo.noindex", ""))
	}
	if !res.HasViewport {
		out = append(out, reg.Issue("seo.missing-viewport", ""))
	}
	return out
}

func registry(r *issues.Registry) *issues.Registry {
	if r != nil {
		return r
	}
	return issues.Default()
}

var _ Analyzer[findings.SEOResult] = (*SEO)(nil)
