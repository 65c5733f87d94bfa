package scoring

import (
	"fmt"
	"strings"

	"pageaudit/internal/findings"
)

// Title and description length bounds.
const (
	TitleMin       = 30
	TitleMax       = 60
	DescriptionMin = 70
	DescriptionMax = 160
	ThinContent    = 300
)

// SEO is deduction-based: it starts at 100 and loses points per problem.
func SEO(r findings.Results) ScoreBreakdown {
	bl := deductionBased(CategorySEO)
	s := r.SEO
	if !s.Available {
		return bl.unavailable("SEO")
	}

	title := strings.TrimSpace(s.Title)
	switch n := len([]rune(title)); {
	case n == 0:
		bl.deduct(15, "Missing page title",
			"The title is the headline of your search result and the strongest on-page ranking signal.",
			"Add a <title> of 30-60 characters that names the page topic.",
			"content.title")
	case n < TitleMin || n > TitleMax:
		bl.deduct(5, fmt.Sprintf("Title is %d characters", n),
			"Titles outside 30-60 characters are truncated or waste space in search results.",
			"Rewrite the title to 30-60 characters.",
			"content.titleLength")
	}

	desc := strings.TrimSpace(s.MetaDescription)
	switch n := len([]rune(desc)); {
	case n == 0:
		bl.deduct(10, "Missing meta description",
			"Without a description search engines pick arbitrary text for your snippet.",
			"Add a meta description of 70-160 characters.",
			"content.metaDescription")
	case n < DescriptionMin || n > DescriptionMax:
		bl.deduct(3, fmt.Sprintf("Meta description is %d characters", n),
			"Descriptions outside 70-160 characters are truncated or too thin to persuade.",
			"Rewrite the description to 70-160 characters.",
			"content.descriptionLength")
	}

	switch h1 := s.H1Count(); {
	case h1 == 0:
		bl.deduct(10, "No H1 heading",
			"The H1 tells search engines and readers what the page is about.",
			"Add one <h1> with the main topic.",
			"content.h1Count")
	case h1 > 1:
		bl.deduct(3, fmt.Sprintf("%d H1 headings", h1),
			"Several H1s dilute the main topic of the page.",
			"Keep one <h1> and use <h2> for sections.",
			"content.h1Count")
	}

	if s.WordCount < ThinContent {
		bl.deduct(10, fmt.Sprintf("Thin content (%d words)", s.WordCount),
			"Pages with fewer than 300 words rarely rank for competitive searches.",
			"Add useful copy that answers your visitors' questions.",
			"content.wordCount")
	}

	bl.deductEach(s.ImagesMissingAlt, 2, 10,
		fmt.Sprintf("%d images without alt text", s.ImagesMissingAlt),
		"Search engines read alt text to understand images.",
		"Add descriptive alt attributes to every meaningful image.",
		"content.imagesMissingAlt")

	bl.deductEach(len(s.BrokenLinks), 3, 15,
		fmt.Sprintf("%d broken links", len(s.BrokenLinks)),
		"Broken links waste crawl budget and frustrate visitors.",
		"Fix or remove the links that return errors.",
		"content.brokenLinks")

	if !s.HasSitemap {
		bl.deduct(5, "No sitemap.xml",
			"A sitemap helps search engines discover every page.",
			"Publish /sitemap.xml and submit it in Search Console.",
			"content.hasSitemap")
	}
	if !s.HasRobotsTxt {
		bl.deduct(3, "No robots.txt",
			"robots.txt tells crawlers what to index and where the sitemap lives.",
			"Add a robots.txt at the site root.",
			"content.hasRobotsTxt")
	}
	if strings.TrimSpace(s.Canonical) == "" {
		bl.deduct(3, "No canonical URL",
			"Without a canonical URL duplicate versions of the page compete with each other.",
			`Add <link rel="canonical" href="..."> with the preferred URL.`,
			"content.canonical")
	}
	if s.NoIndex {
		bl.deduct(20, "Page is set to noindex",
			"The robots meta tag asks search engines not to index this page.",
			"Remove noindex from the robots meta tag.",
			"content.robotsMeta")
	}
	if !s.HasViewport {
		bl.deduct(5, "No viewport meta tag",
			"Mobile-first indexing ranks pages by their mobile rendering.",
			`Add <meta name="viewport" content="width=device-width, initial-scale=1">.`,
			"speed.mobile.hasViewport")
	}

	if len(s.StructuredDataTypes) == 0 {
		bl.tip("Add schema.org structured data to qualify for rich results.")
	}
	if s.InternalLinks < 3 {
		bl.tip("Link to related pages on your site to spread ranking signals.")
	}
	return bl.finish()
}
