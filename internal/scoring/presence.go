package scoring

import (
	"fmt"
	"strings"

	"pageaudit/internal/findings"
)

// LocalPresence is bonus-based: points for each local-business signal found.
func LocalPresence(r findings.Results) ScoreBreakdown {
	bl := bonusBased(CategoryLocalPresence)
	l := r.Local
	if !l.Available {
		return bl.unavailable("Local presence")
	}

	if l.HasSchema {
		bl.add(30, "LocalBusiness structured data",
			"Search engines can read your business details directly.", "presence.localBusiness.hasSchema")
	} else {
		bl.tip("Add LocalBusiness JSON-LD with name, address, phone and hours.")
	}
	if len(l.Phones) > 0 {
		bl.add(20, "Phone number listed",
			"Visitors and search engines can find how to call you.", "presence.localBusiness.phones")
	} else {
		bl.tip("Show a clickable phone number (tel: link).")
	}
	if l.HasAddress {
		bl.add(20, "Address listed", "A visible address supports local rankings.", "presence.localBusiness.hasAddress")
	}
	if l.HasMap {
		bl.add(10, "Map embedded", "An embedded map helps visitors find you.", "presence.localBusiness.hasMap")
	}
	if l.HasHours {
		bl.add(10, "Opening hours listed", "Opening hours answer the most common local question.", "presence.localBusiness.hasHours")
	}
	if l.GoogleBusiness {
		bl.add(10, "Google Business Profile linked",
			"Linking your profile connects the site to your Maps listing.", "presence.localBusiness.googleBusiness")
	} else {
		bl.tip("Claim your Google Business Profile and link it from the site.")
	}
	return bl.finish()
}

// Social is bonus-based: share metadata and linked profiles.
func Social(r findings.Results) ScoreBreakdown {
	bl := bonusBased(CategorySocial)
	s := r.Social
	if !s.Available {
		return bl.unavailable("Social")
	}

	if strings.TrimSpace(s.OpenGraph["og:title"]) != "" {
		bl.add(20, "Open Graph title", "Shared links show a proper headline.", "presence.social.openGraph")
	} else {
		bl.tip("Add og:title, og:description and og:image so shared links render a preview.")
	}
	if strings.TrimSpace(s.OpenGraph["og:image"]) != "" {
		bl.add(10, "Open Graph image", "Shared links show an image.", "presence.social.openGraph")
	}
	if strings.TrimSpace(s.OpenGraph["og:description"]) != "" {
		bl.add(10, "Open Graph description", "Shared links show a summary.", "presence.social.openGraph")
	}
	if strings.TrimSpace(s.TwitterCard["twitter:card"]) != "" {
		bl.add(20, "Twitter card", "Posts on X/Twitter render a rich card.", "presence.social.twitterCard")
	}
	bl.addEach(len(s.Profiles), 10, 40,
		fmt.Sprintf("%d social profiles linked", len(s.Profiles)),
		"Linked profiles let visitors follow you and confirm you are active.", "presence.social.profiles")
	if len(s.Profiles) == 0 {
		bl.tip("Link your social profiles from the header or footer.")
	}
	return bl.finish()
}

// Reviews is bonus-based: review platforms, widgets and rating markup.
func Reviews(r findings.Results) ScoreBreakdown {
	bl := bonusBased(CategoryReviews)
	rv := r.Reviews
	if !rv.Available {
		return bl.unavailable("Reviews")
	}

	bl.addEach(len(rv.Platforms), 15, 45,
		fmt.Sprintf("Linked to %s", strings.Join(rv.Platforms, ", ")),
		"Third-party reviews are trusted more than on-site claims.", "presence.reviews.platforms")
	if rv.HasWidget {
		bl.add(20, "Review widget embedded", "Live reviews on the page build confidence.", "presence.reviews.hasWidget")
	}
	if rv.HasAggregateRating {
		bl.add(25, "AggregateRating markup", "Rating markup can earn star snippets in search.", "presence.reviews.aggregateRating")
	} else {
		bl.tip("Mark up your average rating with schema.org AggregateRating.")
	}
	if rv.HasTestimonials {
		bl.add(10, "Testimonials section", "Customer quotes support buying decisions.", "presence.reviews.hasTestimonials")
	}
	if len(rv.Platforms) == 0 {
		bl.tip("Ask happy customers for Google reviews and link to them.")
	}
	return bl.finish()
}
