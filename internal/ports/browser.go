package ports

import (
	"context"
	"errors"
	"net/http"

	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
)

// Navigation failures a Browser classifies for the orchestrator.
var (
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrHostUnreachable   = errors.New("host unreachable")
)

// Browser launches isolated sessions.
type Browser interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// Navigation is the outcome of loading the main document.
type Navigation struct {
	// URL is the final URL after redirects.
	URL     string
	Status  int
	Headers http.Header
}

// BrowserSession is one browser with one page. It is owned by a single audit.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) (Navigation, error)
	HTML(ctx context.Context) (string, error)
	Screenshots(ctx context.Context, viewports []domain.Viewport) ([]domain.Screenshot, error)
	// DebugPort is the remote debugging port the measurement service attaches to.
	DebugPort() int
	Close() error
}

// Measurer runs the web-vitals measurement service once per audit.
type Measurer interface {
	Measure(ctx context.Context, url string, channel int) (findings.PerformanceResult, error)
}
