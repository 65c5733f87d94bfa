package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storePage = `<html><head>
<meta name="generator" content="WordPress 6.4.2">
<link rel="stylesheet" href="/wp-content/themes/acme/style.css">
<script src="/wp-content/plugins/slider/slider.js"></script>
<script async src="https://www.googletagmanager.com/gtag/js?id=G-ABC123"></script>
<script>gtag('config', 'G-ABC123');</script>
<script src="https://www.googletagmanager.com/gtm.js?id=GTM-XYZ"></script>
<script>fbq('init', '1234567890');</script>
<script src="https://js.stripe.com/v3/"></script>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product","name":"Boiler"}</script>
</head><body><button class="add-to-cart">Add to cart</button></body></html>`

func TestTechnologyDetectsStack(t *testing.T) {
	pc := pageContext("https://shop.acme.test/", storePage)
	pc.Headers.Set("Server", "nginx/1.25.3")
	pc.Headers.Add("Set-Cookie", "wp_session=abc; Path=/")

	out, err := (&Technology{}).Run(context.Background(), pc)
	require.NoError(t, err)
	res := out.Result

	assert.True(t, res.Available)
	assert.Equal(t, "WordPress", res.CMS)
	assert.Contains(t, res.Analytics, "Google Analytics")
	assert.True(t, res.TagManager)
	assert.Equal(t, []string{"Meta Pixel"}, res.AdPlatforms)
	assert.Equal(t, []string{"Stripe"}, res.PaymentProviders)
	assert.True(t, res.HasCart)
	assert.True(t, res.HasProductSchema)
	assert.Equal(t, "nginx/1.25.3", res.Server)
	assert.True(t, res.IsStore())

	require.NotEmpty(t, res.Technologies)
	wp := res.Technologies[0]
	assert.Equal(t, "WordPress", wp.Name)
	assert.Equal(t, 100, wp.Confidence)
	assert.Equal(t, []string{"html", "script", "meta"}, wp.DetectedBy)

	var names []string
	for _, tech := range res.Technologies {
		names = append(names, tech.Name)
	}
	assert.Contains(t, names, "Nginx")

	ids := issueIDs(out.Issues)
	assert.Contains(t, ids, "technology.cms-detected")
	assert.NotContains(t, ids, "technology.no-analytics")
}

func TestTechnologyPlainPage(t *testing.T) {
	out, err := (&Technology{}).Run(context.Background(), pageContext("https://acme.test/", "<html><body>hello</body></html>"))
	require.NoError(t, err)

	assert.Empty(t, out.Result.CMS)
	assert.False(t, out.Result.IsStore())
	assert.Equal(t, []string{"technology.no-analytics"}, issueIDs(out.Issues))
}

func TestTechnologyCookieFingerprint(t *testing.T) {
	fps, err := LoadFingerprints([]byte(`
- name: Shopify
  category: ecommerce
  cookies: ['^_shopify_']
`))
	require.NoError(t, err)

	pc := pageContext("https://acme.test/", "<html></html>")
	pc.Headers.Add("Set-Cookie", "_shopify_y=1; Path=/")
	out, err := (&Technology{Fingerprints: fps}).Run(context.Background(), pc)
	require.NoError(t, err)

	assert.Equal(t, "Shopify", out.Result.Ecommerce)
	assert.Equal(t, 75, out.Result.Technologies[0].Confidence)
	assert.Equal(t, []string{"cookie"}, out.Result.Technologies[0].DetectedBy)
}

func TestDefaultFingerprintsLoad(t *testing.T) {
	fps := DefaultFingerprints()
	require.NotEmpty(t, fps)

	categories := map[string]bool{}
	for _, fp := range fps {
		categories[fp.Category] = true
	}
	for _, c := range []string{TechCMS, TechEcommerce, TechPayment, TechAnalytics, TechTagManager, TechAdvertising, TechCDN} {
		assert.True(t, categories[c], "catalog has no %s entries", c)
	}
}

func TestLoadFingerprintsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "- name: [unclosed"},
		{"missing category", "- name: X\n  html: ['x']"},
		{"bad regexp", "- name: X\n  category: cms\n  html: ['(']"},
		{"bad header regexp", "- name: X\n  category: cms\n  headers: {server: '['}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFingerprints([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
