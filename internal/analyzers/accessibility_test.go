package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestAccessibilityChecks(t *testing.T) {
	page := `<html><body>
<a href="#content">Skip to content</a>
<h1>Acme</h1>
<h3>Skipped a level</h3>
<h4>Fine</h4>
<h2>Back up</h2>
<h5>Skipped two</h5>
<img src="/hero.png">
<img src="/spacer.gif" role="presentation">
<form>
  <input type="text" name="q">
  <label for="email">Email</label><input id="email" type="email">
  <label>Name <input type="text" name="name"></label>
  <input type="hidden" name="token">
  <input type="submit" value="Send">
  <input type="search" aria-label="Search">
  <select name="topic"><option>A</option></select>
</form>
<a href="/x"></a>
<a href="/home"><img src="/logo.png" alt="Home"></a>
<button></button>
<button aria-label="Close"></button>
<div role="button">Open</div>
</body></html>`

	pc := pageContext("https://acme.test/", page)
	pc.Measured = map[string]float64{"accessibility": 72}

	out, err := (&Accessibility{}).Run(context.Background(), pc)
	require.NoError(t, err)
	res := out.Result

	assert.True(t, res.Available)
	assert.False(t, res.HasLang)
	assert.Equal(t, 1, res.ImagesMissingAlt)
	assert.Equal(t, 2, res.InputsWithoutLabel)
	assert.Equal(t, 1, res.EmptyLinks)
	assert.Equal(t, 1, res.EmptyButtons)
	assert.False(t, res.HasMainLandmark)
	assert.True(t, res.HasSkipLink)
	assert.Equal(t, 2, res.HeadingSkips)
	require.NotNil(t, res.MeasuredScore)
	assert.Equal(t, 72.0, *res.MeasuredScore)

	assert.Equal(t, []string{
		"accessibility.missing-lang",
		"accessibility.missing-alt",
		"accessibility.unlabeled-inputs",
		"accessibility.empty-links",
		"accessibility.empty-buttons",
		"accessibility.missing-main",
		"accessibility.heading-skips",
	}, issueIDs(out.Issues))
}

func TestAccessibilityCleanPage(t *testing.T) {
	page := `<html lang="en"><body><main role="main">
<h1>Title</h1><h2>Section</h2><h3>Sub</h3><h2>Next</h2>
<img src="/a.png" alt="A chart">
</main></body></html>`

	out, err := (&Accessibility{}).Run(context.Background(), pageContext("https://acme.test/", page))
	require.NoError(t, err)

	assert.True(t, out.Result.HasLang)
	assert.True(t, out.Result.HasMainLandmark)
	assert.Zero(t, out.Result.HeadingSkips)
	assert.Nil(t, out.Result.MeasuredScore)
	assert.Empty(t, out.Issues)
}

func TestHeadingLevel(t *testing.T) {
	doc, err := parse(pageContext("", "<h1></h1><h6></h6><p></p>"))
	require.NoError(t, err)

	var levels []int
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			levels = append(levels, headingLevel(n))
		}
		return true
	})
	// html, head, body, h1, h6, p
	assert.Equal(t, []int{0, 0, 0, 1, 6, 0}, levels)
}
