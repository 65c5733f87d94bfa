package analyzers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
)

var (
	maxAgePattern  = regexp.MustCompile(`(?i)max-age\s*=\s*"?(\d+)`)
	versionPattern = regexp.MustCompile(`\d+(\.\d+)+`)
)

// Security fetches the resolved URL and inspects transport and header hygiene.
type Security struct {
	Client   HTTPDoer
	Registry *issues.Registry
	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration
}

func (a *Security) Name() string { return findings.NameSecurity }

func (a *Security) Run(ctx context.Context, pc PageContext) (Output[findings.SecurityResult], error) {
	var out Output[findings.SecurityResult]
	page, err := url.Parse(pc.URL)
	if err != nil {
		return out, fmt.Errorf("parse page url: %w", err)
	}

	headers := pc.Headers
	status := 0
	if a.Client != nil {
		resp, err := a.get(ctx, page.String())
		if err != nil {
			return out, fmt.Errorf("fetch %s: %w", page, err)
		}
		headers, status = resp.Header, resp.StatusCode
		if resp.Request != nil && resp.Request.URL != nil {
			page = resp.Request.URL
		}
	}
	if headers == nil {
		headers = http.Header{}
	}

	res := findings.EmptySecurity()
	res.Available = true
	res.StatusCode = status
	res.HTTPS = page.Scheme == "https"

	if hsts := headers.Get("Strict-Transport-Security"); hsts != "" && res.HTTPS {
		res.HSTS = true
		if m := maxAgePattern.FindStringSubmatch(hsts); m != nil {
			res.HSTSMaxAge, _ = strconv.Atoi(m[1])
		}
	}
	for _, h := range findings.SecurityHeaders {
		if headers.Get(h) != "" {
			res.PresentHeaders = append(res.PresentHeaders, h)
		} else {
			res.MissingHeaders = append(res.MissingHeaders, h)
		}
	}

	for _, line := range headers.Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		res.CookieCount++
		if !c.Secure || !c.HttpOnly {
			res.InsecureCookies++
		}
	}
	res.SecureCookies = res.CookieCount > 0 && res.InsecureCookies == 0

	for _, name := range []string{"Server", "X-Powered-By", "X-AspNet-Version"} {
		if v := headers.Get(name); versionPattern.MatchString(v) {
			res.ServerDisclosure = v
			break
		}
	}

	if res.HTTPS {
		doc, err := parse(pc)
		if err != nil {
			return out, fmt.Errorf("parse html: %w", err)
		}
		res.MixedContent = mixedContent(doc)
		res.HTTPSRedirect = a.redirectsToHTTPS(ctx, page)
	}

	out.Result = res
	out.Issues = a.issues(res)
	return out, nil
}

func (a *Security) timeout() time.Duration {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return 10 * time.Second
}

func (a *Security) get(ctx context.Context, target string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return resp, nil
}

// redirectsToHTTPS requests the plain-HTTP variant of page. A client that
// follows redirects ends on an https URL; one that does not returns a 3xx with
// an https Location.
func (a *Security) redirectsToHTTPS(ctx context.Context, page *url.URL) bool {
	if a.Client == nil {
		return false
	}
	plain := *page
	plain.Scheme = "http"
	resp, err := a.get(ctx, plain.String())
	if err != nil {
		return false
	}
	if resp.Request != nil && resp.Request.URL != nil && resp.Request.URL.Scheme == "https" {
		return true
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return strings.HasPrefix(strings.ToLower(resp.Header.Get("Location")), "https://")
	}
	return false
}

// mixedContent lists http:// subresources. Plain anchors are navigation, not
// subresources, and are ignored.
func mixedContent(doc *html.Node) []string {
	out := []string{}
	check := func(v string) {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "http://") {
			out = appendUnique(out, strings.TrimSpace(v))
		}
	}
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.DataAtom {
		case atom.Script, atom.Img, atom.Iframe, atom.Audio, atom.Video, atom.Source, atom.Embed:
			check(attrOr(n, "src"))
		case atom.Link:
			rel := strings.ToLower(attrOr(n, "rel"))
			if strings.Contains(rel, "stylesheet") || strings.Contains(rel, "icon") || strings.Contains(rel, "preload") {
				check(attrOr(n, "href"))
			}
		case atom.Object:
			check(attrOr(n, "data"))
		}
		return true
	})
	return out
}

func (a *Security) issues(res findings.SecurityResult) []domain.AuditIssue {
	reg := registry(a.Registry)
	var out []domain.AuditIssue
	if !res.HTTPS {
		out = append(out, reg.Issue("security.no-https", ""))
	} else {
		if !res.HTTPSRedirect {
			out = append(out, reg.Issue("security.no-https-redirect", ""))
		}
		if !res.HSTS {
			out = append(out, reg.Issue("security.missing-hsts", ""))
		}
		if len(res.MixedContent) > 0 {
			out = append(out, reg.Issuef("security.mixed-content", "%d resources load over HTTP.", len(res.MixedContent)))
		}
	}
	if len(res.MissingHeaders) > 0 {
		out = append(out, reg.Issuef("security.missing-headers", "Missing: %s", strings.Join(res.MissingHeaders, ", ")))
	}
	if res.InsecureCookies > 0 {
		out = append(out, reg.Issuef("security.insecure-cookies", "%d of %d cookies lack Secure or HttpOnly.", res.InsecureCookies, res.CookieCount))
	}
	if res.ServerDisclosure != "" {
		out = append(out, reg.Issuef("security.server-disclosure", "Disclosed: %s", res.ServerDisclosure))
	}
	return out
}

var _ Analyzer[findings.SecurityResult] = (*Security)(nil)
