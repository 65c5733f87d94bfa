// Package analyzers holds the page checks run by the audit orchestrator. Each
// analyzer inspects one rendered page and returns a typed findings value plus
// the issues it found.
package analyzers

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"pageaudit/internal/domain"
)

// UserAgent is sent with every request an analyzer makes.
const UserAgent = "pageaudit/1.0 (+https://github.com/pageaudit)"

// PageContext is what every analyzer receives.
type PageContext struct {
	// URL is the resolved URL after scheme fallback and redirects.
	URL string
	// HTML is the rendered document.
	HTML string
	// Headers are the main document response headers, canonicalized.
	Headers http.Header
	// ChannelID is the browser debugging port the measurement service binds to.
	ChannelID int
	// Measured holds measurement-service category scores (0-100), if any.
	Measured map[string]float64
	// Percent is the audit milestone the analyzer runs at.
	Percent float64
	// OnProgress may be nil.
	OnProgress func(percent float64, message string)
}

// Progress reports an ad hoc message at the analyzer's milestone, kept
// within 0-100.
func (pc PageContext) Progress(message string) {
	if pc.OnProgress != nil {
		pc.OnProgress(min(max(pc.Percent, 0), 100), message)
	}
}

// Output is an analyzer result with the issues found while producing it.
type Output[T any] struct {
	Result T
	Issues []domain.AuditIssue
}

// Analyzer is one page check.
type Analyzer[T any] interface {
	Name() string
	Run(ctx context.Context, pc PageContext) (Output[T], error)
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// parse parses the page HTML. x/net/html never fails on malformed markup, so
// only reader errors surface.
func parse(pc PageContext) (*html.Node, error) {
	return html.Parse(strings.NewReader(pc.HTML))
}
