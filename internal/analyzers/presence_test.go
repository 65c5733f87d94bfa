package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/findings"
)

const bareDoc = "<html><head></head><body><p>hello</p></body></html>"

func TestSocial(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Acme Plumbing">
<meta property="og:image" content="https://acme.test/og.png">
<meta name="twitter:card" content="summary_large_image">
</head><body>
<a href="https://www.facebook.com/sharer/sharer.php?u=https://acme.test">Share</a>
<a href="https://www.facebook.com/acmeplumbing">Facebook</a>
<a href="https://facebook.com/acmeplumbing/photos">Photos</a>
<a href="https://instagram.com/acme">Instagram</a>
<a href="https://x.com/intent/tweet?text=hi">Tweet</a>
<a href="https://www.linkedin.com/">LinkedIn home</a>
</body></html>`

	out, err := (&Social{}).Run(context.Background(), pageContext("https://acme.test/", page))
	require.NoError(t, err)
	res := out.Result

	assert.Equal(t, "Acme Plumbing", res.OpenGraph["og:title"])
	assert.Equal(t, "summary_large_image", res.TwitterCard["twitter:card"])
	assert.Equal(t, []findings.SocialProfile{
		{Platform: "facebook", URL: "https://www.facebook.com/acmeplumbing"},
		{Platform: "instagram", URL: "https://instagram.com/acme"},
	}, res.Profiles)
	assert.Empty(t, out.Issues)
}

func TestSocialBarePage(t *testing.T) {
	out, err := (&Social{}).Run(context.Background(), pageContext("https://acme.test/", bareDoc))
	require.NoError(t, err)

	assert.True(t, out.Result.Available)
	assert.Equal(t, []string{
		"social.missing-open-graph",
		"social.missing-twitter-card",
		"social.no-profiles",
	}, issueIDs(out.Issues))
}

func TestLocal(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Plumber","name":"Acme Plumbing",
 "telephone":"+1 555 0100","address":{"@type":"PostalAddress","streetAddress":"1 Main St"},
 "openingHours":"Mo-Fr 08:00-18:00"}
</script></head><body>
<a href="tel:+15550100">Call us</a>
<a href="https://g.page/acme-plumbing">Find us on Google</a>
<a href="https://www.yelp.com/biz/acme-plumbing">Yelp</a>
<iframe src="https://www.google.com/maps/embed?pb=abc"></iframe>
</body></html>`

	out, err := (&Local{}).Run(context.Background(), pageContext("https://acme.test/", page))
	require.NoError(t, err)
	res := out.Result

	assert.True(t, res.HasSchema)
	assert.Equal(t, "Acme Plumbing", res.BusinessName)
	assert.Equal(t, []string{"+1 555 0100", "+15550100"}, res.Phones)
	assert.True(t, res.HasAddress)
	assert.True(t, res.HasHours)
	assert.True(t, res.HasMap)
	assert.True(t, res.GoogleBusiness)
	assert.Equal(t, []string{"Yelp"}, res.Listings)
	assert.Empty(t, out.Issues)
}

func TestLocalMarkupFallbacks(t *testing.T) {
	page := `<html><body>
<footer><address>1 Main St, Springfield</address>
<p>Opening hours: Monday - Friday 8am to 6pm</p></footer>
</body></html>`

	out, err := (&Local{}).Run(context.Background(), pageContext("https://acme.test/", page))
	require.NoError(t, err)

	assert.False(t, out.Result.HasSchema)
	assert.True(t, out.Result.HasAddress)
	assert.True(t, out.Result.HasHours)
	assert.Equal(t, []string{
		"local.missing-schema",
		"local.missing-phone",
		"local.missing-google-business",
	}, issueIDs(out.Issues))
}

func TestReviews(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"LocalBusiness","name":"Acme",
 "aggregateRating":{"@type":"AggregateRating","ratingValue":"4.8","reviewCount":120}}
</script></head><body>
<a href="https://www.trustpilot.com/review/acme.test">Trustpilot</a>
<a href="https://www.yelp.com/biz/acme-plumbing">Yelp</a>
<section class="testimonials"><p>Great service!</p></section>
</body></html>`

	out, err := (&Reviews{}).Run(context.Background(), pageContext("https://acme.test/", page))
	require.NoError(t, err)
	res := out.Result

	assert.Equal(t, []string{"Trustpilot", "Yelp"}, res.Platforms)
	assert.False(t, res.HasWidget)
	assert.True(t, res.HasAggregateRating)
	require.NotNil(t, res.RatingValue)
	assert.InDelta(t, 4.8, *res.RatingValue, 1e-9)
	assert.Equal(t, 120, res.ReviewCount)
	assert.True(t, res.HasTestimonials)
	assert.Empty(t, out.Issues)
}

func TestReviewsWidgetAndHeadings(t *testing.T) {
	page := `<html><body>
<h2>What our customers say</h2>
<script src="https://widget.trustpilot.com/bootstrap/v5/tp.widget.bootstrap.min.js"></script>
</body></html>`

	out, err := (&Reviews{}).Run(context.Background(), pageContext("https://acme.test/", page))
	require.NoError(t, err)

	assert.True(t, out.Result.HasWidget)
	assert.True(t, out.Result.HasTestimonials)
	assert.Nil(t, out.Result.RatingValue)
	assert.Equal(t, []string{"reviews.missing-aggregate-rating"}, issueIDs(out.Issues))
}

func TestReviewsBarePage(t *testing.T) {
	out, err := (&Reviews{}).Run(context.Background(), pageContext("https://acme.test/", bareDoc))
	require.NoError(t, err)

	assert.Empty(t, out.Result.Platforms)
	assert.False(t, out.Result.HasTestimonials)
	assert.Equal(t, []string{"reviews.no-platforms", "reviews.missing-aggregate-rating"}, issueIDs(out.Issues))
}
