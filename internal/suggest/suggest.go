// Package suggest turns findings and composite scores into remediation
// suggestions, bucketed by impact and effort.
package suggest

import (
	"fmt"
	"strings"

	"pageaudit/internal/domain"
	"pageaudit/internal/facts"
	"pageaudit/internal/findings"
	"pageaudit/internal/scoring/composite"
)

// Suggestions is the bucketed output. Each suggestion is in exactly one bucket
// and buckets keep rule order.
type Suggestions struct {
	QuickWins     []domain.Suggestion `json:"quickWins"`
	PriorityFixes []domain.Suggestion `json:"priorityFixes"`
	NiceToHave    []domain.Suggestion `json:"niceToHave"`
}

// All returns every suggestion, quick wins first.
func (s Suggestions) All() []domain.Suggestion {
	out := make([]domain.Suggestion, 0, len(s.QuickWins)+len(s.PriorityFixes)+len(s.NiceToHave))
	out = append(out, s.QuickWins...)
	out = append(out, s.PriorityFixes...)
	return append(out, s.NiceToHave...)
}

// Len is the total number of suggestions.
func (s Suggestions) Len() int {
	return len(s.QuickWins) + len(s.PriorityFixes) + len(s.NiceToHave)
}

// input is what every rule sees.
type input struct {
	r      findings.Results
	f      facts.AuditFacts
	scores composite.NewAuditScores
}

type rule struct {
	when  func(in input) bool
	build func(in input) domain.Suggestion
}

// Generate evaluates the rules in order and partitions the matches.
func Generate(r findings.Results, scores composite.NewAuditScores) Suggestions {
	in := input{r: r, f: facts.Extract(r, ""), scores: scores}
	var matched []domain.Suggestion
	for _, ru := range rules {
		if ru.when(in) {
			matched = append(matched, ru.build(in))
		}
	}
	return Partition(matched)
}

// Partition buckets suggestions: high impact with low effort is a quick win,
// other high impact items are priority fixes, the rest are nice to have.
func Partition(list []domain.Suggestion) Suggestions {
	out := Suggestions{
		QuickWins:     []domain.Suggestion{},
		PriorityFixes: []domain.Suggestion{},
		NiceToHave:    []domain.Suggestion{},
	}
	for _, s := range list {
		switch {
		case s.Impact == domain.LevelHigh && s.Effort == domain.LevelLow:
			out.QuickWins = append(out.QuickWins, s)
		case s.Impact == domain.LevelHigh:
			out.PriorityFixes = append(out.PriorityFixes, s)
		default:
			out.NiceToHave = append(out.NiceToHave, s)
		}
	}
	return out
}

func gain(category string, points int) []domain.ScoreImprovement {
	if points <= 0 {
		return nil
	}
	return []domain.ScoreImprovement{{Category: category, Points: points}}
}

// visibilityGain converts SEO or local points into visibility points.
func visibilityGain(seoPoints, localPoints int) int {
	return composite.VisibilityScore(seoPoints, localPoints)
}

func trustGain(socialPoints, reviewPoints int) int {
	return composite.TrustScore(socialPoints, reviewPoints)
}

// rules are evaluated in this order; bucket order follows it.
var rules = []rule{
	{
		when: func(in input) bool { return in.r.Performance.Available && in.scores.Performance < 50 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "performance.load-speed",
				Title:            "Speed up page load",
				Description:      fmt.Sprintf("Performance scored %d/100. Slow pages lose visitors before they see your content.", in.scores.Performance),
				Category:         composite.Performance,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelMedium,
				ScoreImprovement: gain(composite.Performance, 90-in.scores.Performance),
				RelatedFact:      "speed.lcp",
				HowToFix:         "Compress and resize images, defer non-critical JavaScript and enable caching.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Security.Available && !in.f.Site.HTTPS },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "security.enable-https",
				Title:            "Enable HTTPS",
				Description:      "The site is served over plain HTTP. Browsers mark it as not secure.",
				Category:         composite.Security,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Security, 40),
				RelatedFact:      "site.https",
				HowToFix:         "Install a free Let's Encrypt certificate; most hosts offer a one-click option.",
			}
		},
	},
	{
		when: func(in input) bool { return in.f.Site.MixedContentCount > 0 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "security.mixed-content",
				Title:            "Remove mixed content",
				Description:      fmt.Sprintf("%d resources load over HTTP on an HTTPS page.", in.f.Site.MixedContentCount),
				Category:         composite.Security,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelMedium,
				ScoreImprovement: gain(composite.Security, 10),
				RelatedFact:      "site.mixedContentCount",
				HowToFix:         "Change http:// resource URLs to https:// or protocol-relative URLs.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && in.f.Content.Title == nil },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.add-title",
				Title:            "Add a page title",
				Description:      "The page has no <title>. Search engines show the title as the headline of your result.",
				Category:         composite.Visibility,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(15, 0)),
				RelatedFact:      "content.title",
				HowToFix:         "Add a 30-60 character <title> naming your business and main service.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && in.f.Content.MetaDescription == nil },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.add-description",
				Title:            "Add a meta description",
				Description:      "Without a description search engines pick arbitrary text for your snippet.",
				Category:         composite.Visibility,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(10, 0)),
				RelatedFact:      "content.metaDescription",
				HowToFix:         "Write a 70-160 character summary that invites the click.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && in.r.SEO.NoIndex },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.remove-noindex",
				Title:            "Allow search engines to index the page",
				Description:      "The robots meta tag contains noindex, so the page will not appear in search.",
				Category:         composite.Visibility,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(20, 0)),
				RelatedFact:      "content.robotsMeta",
				HowToFix:         "Remove noindex from the robots meta tag or X-Robots-Tag header.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && !in.f.Speed.Mobile.HasViewport },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.mobile-viewport",
				Title:            "Make the page mobile friendly",
				Description:      "The page has no viewport meta tag, so phones render it as a zoomed-out desktop page.",
				Category:         composite.Visibility,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(5, 0)),
				RelatedFact:      "speed.mobile.hasViewport",
				HowToFix:         `Add <meta name="viewport" content="width=device-width, initial-scale=1">.`,
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Local.Available && !in.f.Presence.LocalBusiness.GoogleBusiness },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.google-business",
				Title:            "Link your Google Business Profile",
				Description:      "No Google Business Profile link was found. The profile drives Maps and local pack results.",
				Category:         composite.Visibility,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(0, 10)),
				RelatedFact:      "presence.localBusiness.googleBusiness",
				HowToFix:         "Claim the profile at business.google.com and link it from the footer.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Local.Available && !in.f.Presence.LocalBusiness.HasSchema },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.local-schema",
				Title:            "Add LocalBusiness structured data",
				Description:      "Search engines cannot read your name, address and hours as structured data.",
				Category:         composite.Visibility,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelMedium,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(0, 30)),
				RelatedFact:      "presence.localBusiness.hasSchema",
				HowToFix:         "Add a JSON-LD LocalBusiness block with name, address, telephone and openingHours.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Reviews.Available && len(in.f.Presence.Reviews.Platforms) == 0 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "trust.collect-reviews",
				Title:            "Show third-party reviews",
				Description:      "The page links to no review platform. Visitors trust independent reviews most.",
				Category:         composite.Trust,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelMedium,
				ScoreImprovement: gain(composite.Trust, trustGain(0, 30)),
				RelatedFact:      "presence.reviews.platforms",
				HowToFix:         "Ask customers for Google reviews and link or embed them on the page.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Accessibility.Available && in.scores.Accessibility < 70 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "accessibility.fix-barriers",
				Title:            "Fix accessibility barriers",
				Description:      fmt.Sprintf("Accessibility scored %d/100. Some visitors cannot use the page.", in.scores.Accessibility),
				Category:         composite.Accessibility,
				Impact:           domain.LevelHigh,
				Effort:           domain.LevelMedium,
				ScoreImprovement: gain(composite.Accessibility, 80-in.scores.Accessibility),
				RelatedFact:      "content.accessibility",
				HowToFix:         "Label every form field, give icon buttons names and add alt text to images.",
			}
		},
	},
	{
		when: func(in input) bool {
			return in.f.Site.HTTPS && in.r.Security.Available && !in.f.Site.HTTPSRedirect
		},
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "security.https-redirect",
				Title:            "Redirect HTTP to HTTPS",
				Description:      "Visitors who type the bare domain stay on the insecure version.",
				Category:         composite.Security,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Security, 10),
				RelatedFact:      "site.httpsRedirect",
				HowToFix:         "Add a permanent (301) redirect from http:// to https:// at the server or CDN.",
			}
		},
	},
	{
		when: func(in input) bool { return in.f.Site.HTTPS && in.r.Security.Available && !in.f.Site.HSTS },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "security.hsts",
				Title:            "Enable HSTS",
				Description:      "Without Strict-Transport-Security browsers may still try plain HTTP first.",
				Category:         composite.Security,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Security, 10),
				RelatedFact:      "site.hsts",
				HowToFix:         "Send Strict-Transport-Security: max-age=31536000; includeSubDomains.",
			}
		},
	},
	{
		when: func(in input) bool { return len(in.f.Site.MissingHeaders) > 0 },
		build: func(in input) domain.Suggestion {
			missing := in.f.Site.MissingHeaders
			return domain.Suggestion{
				ID:               "security.headers",
				Title:            "Add security headers",
				Description:      "Missing: " + strings.Join(missing, ", ") + ".",
				Category:         composite.Security,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Security, min(4*len(missing), 20)),
				RelatedFact:      "site.securityHeaders",
				HowToFix:         "Set the headers in your web server, CDN or framework middleware.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && in.f.Content.H1Count == 0 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.add-h1",
				Title:            "Add a main heading",
				Description:      "The page has no H1 heading describing its topic.",
				Category:         composite.Visibility,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(10, 0)),
				RelatedFact:      "content.h1Count",
				HowToFix:         "Add one <h1> with your main service and location.",
			}
		},
	},
	{
		when: func(in input) bool { return in.f.Content.ImagesMissingAlt > 0 },
		build: func(in input) domain.Suggestion {
			n := in.f.Content.ImagesMissingAlt
			return domain.Suggestion{
				ID:          "accessibility.alt-text",
				Title:       "Describe your images",
				Description: fmt.Sprintf("%d images have no alt text.", n),
				Category:    composite.Accessibility,
				Impact:      domain.LevelMedium,
				Effort:      domain.LevelLow,
				ScoreImprovement: []domain.ScoreImprovement{
					{Category: composite.Accessibility, Points: min(3*n, 15)},
					{Category: composite.Visibility, Points: visibilityGain(min(2*n, 10), 0)},
				},
				RelatedFact: "content.imagesMissingAlt",
				HowToFix:    "Add a short alt attribute describing each meaningful image.",
			}
		},
	},
	{
		when: func(in input) bool { return len(in.f.Content.BrokenLinks) > 0 },
		build: func(in input) domain.Suggestion {
			n := len(in.f.Content.BrokenLinks)
			return domain.Suggestion{
				ID:               "visibility.broken-links",
				Title:            "Fix broken links",
				Description:      fmt.Sprintf("%d links return errors.", n),
				Category:         composite.Visibility,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(min(3*n, 15), 0)),
				RelatedFact:      "content.brokenLinks",
				HowToFix:         "Update or remove: " + strings.Join(in.f.Content.BrokenLinks, ", "),
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Local.Available && len(in.f.Presence.LocalBusiness.Phones) == 0 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.phone",
				Title:            "Show a phone number",
				Description:      "No phone number was found on the page.",
				Category:         composite.Visibility,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(0, 20)),
				RelatedFact:      "presence.localBusiness.phones",
				HowToFix:         `Add a clickable <a href="tel:..."> number in the header.`,
			}
		},
	},
	{
		when: func(in input) bool {
			return in.r.Social.Available && strings.TrimSpace(in.f.Presence.Social.OpenGraph["og:title"]) == ""
		},
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "trust.open-graph",
				Title:            "Add social sharing tags",
				Description:      "Links to this page render without a title or image when shared.",
				Category:         composite.Trust,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Trust, trustGain(40, 0)),
				RelatedFact:      "presence.social.openGraph",
				HowToFix:         "Add og:title, og:description, og:image and twitter:card meta tags.",
			}
		},
	},
	{
		when: func(in input) bool {
			return in.r.Reviews.Available && len(in.f.Presence.Reviews.Platforms) > 0 && in.f.Presence.Reviews.AggregateRating == nil
		},
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "trust.aggregate-rating",
				Title:            "Mark up your rating",
				Description:      "You have reviews but no AggregateRating markup, so search results show no stars.",
				Category:         composite.Trust,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelMedium,
				ScoreImprovement: gain(composite.Trust, trustGain(0, 25)),
				RelatedFact:      "presence.reviews.aggregateRating",
				HowToFix:         "Add schema.org AggregateRating with ratingValue and reviewCount.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && in.f.Content.WordCount < 300 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.thin-content",
				Title:            "Add more useful content",
				Description:      fmt.Sprintf("The page has %d words. Short pages rarely rank.", in.f.Content.WordCount),
				Category:         composite.Visibility,
				Impact:           domain.LevelMedium,
				Effort:           domain.LevelHigh,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(10, 0)),
				RelatedFact:      "content.wordCount",
				HowToFix:         "Describe your services, area served, prices and FAQs.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && !in.f.Content.HasSitemap },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "visibility.sitemap",
				Title:            "Publish a sitemap",
				Description:      "No /sitemap.xml was found.",
				Category:         composite.Visibility,
				Impact:           domain.LevelLow,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Visibility, visibilityGain(5, 0)),
				RelatedFact:      "content.hasSitemap",
				HowToFix:         "Generate a sitemap with your CMS or a plugin and reference it in robots.txt.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Social.Available && len(in.f.Presence.Social.Profiles) == 0 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "trust.social-profiles",
				Title:            "Link your social profiles",
				Description:      "No social media profiles are linked from the page.",
				Category:         composite.Trust,
				Impact:           domain.LevelLow,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Trust, trustGain(20, 0)),
				RelatedFact:      "presence.social.profiles",
				HowToFix:         "Add icons linking to your active profiles in the footer.",
			}
		},
	},
	{
		when: func(in input) bool { return in.r.SEO.Available && in.f.Content.Lang == nil },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:               "accessibility.lang",
				Title:            "Declare the page language",
				Description:      "The <html> element has no lang attribute.",
				Category:         composite.Accessibility,
				Impact:           domain.LevelLow,
				Effort:           domain.LevelLow,
				ScoreImprovement: gain(composite.Accessibility, 10),
				RelatedFact:      "content.lang",
				HowToFix:         `Add lang to the html element, e.g. <html lang="en">.`,
			}
		},
	},
	{
		when: func(in input) bool { return in.r.Technology.Available && len(in.f.Site.Analytics) == 0 },
		build: func(in input) domain.Suggestion {
			return domain.Suggestion{
				ID:          "site.analytics",
				Title:       "Install analytics",
				Description: "No analytics tool was detected, so you cannot measure visits or enquiries.",
				Category:    "site",
				Impact:      domain.LevelLow,
				Effort:      domain.LevelLow,
				RelatedFact: "site.analytics",
				HowToFix:    "Add Google Analytics, Plausible or a similar tool.",
			}
		},
	},
}
