package analyzers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html/atom"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
)

// socialHosts maps registrable domains to platform names.
var socialHosts = map[string]string{
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"linkedin.com":  "linkedin",
	"twitter.com":   "x",
	"x.com":         "x",
	"youtube.com":   "youtube",
	"tiktok.com":    "tiktok",
	"pinterest.com": "pinterest",
	"threads.net":   "threads",
}

// shareMarkers identify share buttons, which are not profiles.
var shareMarkers = []string{"sharer", "/share", "intent/tweet", "shareArticle", "/pin/create", "/dialog/"}

// Social reads Open Graph and Twitter card metadata and linked profiles.
type Social struct {
	Registry *issues.Registry
}

func (a *Social) Name() string { return findings.NameSocial }

func (a *Social) Run(_ context.Context, pc PageContext) (Output[findings.SocialResult], error) {
	var out Output[findings.SocialResult]
	base, err := url.Parse(pc.URL)
	if err != nil {
		return out, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := parse(pc)
	if err != nil {
		return out, fmt.Errorf("parse html: %w", err)
	}

	res := findings.EmptySocial()
	res.Available = true
	for k, v := range metas(doc) {
		switch {
		case strings.HasPrefix(k, "og:"):
			res.OpenGraph[k] = v
		case strings.HasPrefix(k, "twitter:"):
			res.TwitterCard[k] = v
		}
	}

	seen := map[string]bool{}
	for _, el := range elements(doc, atom.A) {
		u, ok := resolve(base, attrOr(el, "href"))
		if !ok {
			continue
		}
		platform, ok := socialHosts[domain.RegistrableHost(u.Hostname())]
		if !ok || isShareLink(u) || strings.Trim(u.Path, "/") == "" {
			continue
		}
		if seen[platform] {
			continue
		}
		seen[platform] = true
		res.Profiles = append(res.Profiles, findings.SocialProfile{Platform: platform, URL: u.String()})
	}

	out.Result = res
	out.Issues = a.issues(res)
	return out, nil
}

func isShareLink(u *url.URL) bool {
	s := u.Path + "?" + u.RawQuery
	for _, m := range shareMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func (a *Social) issues(res findings.SocialResult) []domain.AuditIssue {
	reg := registry(a.Registry)
	var out []domain.AuditIssue
	if res.OpenGraph["og:title"] == "" {
		out = append(out, reg.Issue("social.missing-open-graph", ""))
	} else if res.OpenGraph["og:image"] == "" {
		out = append(out, reg.Issue("social.missing-og-image", ""))
	}
	if res.TwitterCard["twitter:card"] == "" {
		out = append(out, reg.Issue("social.missing-twitter-card", ""))
	}
	if len(res.Profiles) == 0 {
		out = append(out, reg.Issue("social.no-profiles", ""))
	}
	return out
}

var _ Analyzer[findings.SocialResult] = (*Social)(nil)
