package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageaudit/internal/analyzers"
	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
	"pageaudit/internal/ports"
)

const page = `<html lang="en"><head><title>Acme Plumbing | Emergency plumbers</title></head>
<body><main><h1>Acme</h1><p>We fix pipes.</p></main></body></html>`

// ============================================================================
// Fakes
// ============================================================================

type fakeSession struct {
	fail    map[string]error
	shotErr error
	visited []string
	closed  bool
}

func (s *fakeSession) Navigate(_ context.Context, raw string) (ports.Navigation, error) {
	s.visited = append(s.visited, raw)
	u, _ := url.Parse(raw)
	if err := s.fail[u.Scheme]; err != nil {
		return ports.Navigation{}, err
	}
	return ports.Navigation{URL: raw, Status: http.StatusOK, Headers: http.Header{}}, nil
}

func (s *fakeSession) HTML(context.Context) (string, error) { return page, nil }

func (s *fakeSession) Screenshots(_ context.Context, vps []domain.Viewport) ([]domain.Screenshot, error) {
	if s.shotErr != nil {
		return nil, s.shotErr
	}
	out := make([]domain.Screenshot, 0, len(vps))
	for _, vp := range vps {
		out = append(out, domain.Screenshot{Name: vp.Name, Width: vp.Width, Height: vp.Height, Size: 3, Data: []byte("png")})
	}
	return out, nil
}

func (s *fakeSession) DebugPort() int { return 9222 }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeBrowser struct {
	session   *fakeSession
	launchErr error
	launched  int
}

func (b *fakeBrowser) Launch(context.Context) (ports.BrowserSession, error) {
	b.launched++
	if b.launchErr != nil {
		return nil, b.launchErr
	}
	return b.session, nil
}

type fakeMeasurer struct {
	err     error
	url     string
	channel int
}

func (m *fakeMeasurer) Measure(_ context.Context, u string, channel int) (findings.PerformanceResult, error) {
	m.url, m.channel = u, channel
	if m.err != nil {
		return findings.PerformanceResult{}, m.err
	}
	res := findings.EmptyPerformance()
	res.Categories["accessibility"] = 88
	res.Metrics["lcp"] = 1200
	res.Metrics["cls"] = 0.02
	return res, nil
}

type stubAnalyzer[T any] struct {
	name string
	run  func(pc analyzers.PageContext) (T, error)
}

func (s stubAnalyzer[T]) Name() string { return s.name }

func (s stubAnalyzer[T]) Run(_ context.Context, pc analyzers.PageContext) (analyzers.Output[T], error) {
	v, err := s.run(pc)
	return analyzers.Output[T]{Result: v}, err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(session *fakeSession, m ports.Measurer) (*Orchestrator, *fakeBrowser) {
	b := &fakeBrowser{session: session}
	o := New(b, m, Deps{}, quietLogger())
	o.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return o, b
}

// ============================================================================
// Sequence
// ============================================================================

func TestRunProducesCompleteReport(t *testing.T) {
	session := &fakeSession{}
	m := &fakeMeasurer{}
	o, _ := newOrchestrator(session, m)

	res, err := o.Run(context.Background(), Config{URL: "acme.test", ID: "a1"})
	require.NoError(t, err)

	assert.Equal(t, "a1", res.ID)
	assert.Equal(t, "https://acme.test", res.URL)
	assert.Equal(t, "https://acme.test", res.ResolvedURL)
	assert.Equal(t, "https://acme.test", m.url)
	assert.Equal(t, 9222, m.channel)
	assert.Empty(t, res.FailedAnalyzers)
	assert.Len(t, res.Screenshots, 3)
	assert.True(t, session.closed)
	assert.NotZero(t, res.NewScores.Overall)
	assert.Equal(t, "acme.test", res.Facts.Site.Host)
	assert.True(t, res.Facts.Speed.Measured)
}

func TestRunFallsBackToHTTP(t *testing.T) {
	session := &fakeSession{fail: map[string]error{"https": ports.ErrHostUnreachable}}
	m := &fakeMeasurer{}
	o, _ := newOrchestrator(session, m)

	var seen []string
	o.Steps = []Step{
		Register[findings.SEOResult](stubAnalyzer[findings.SEOResult]{
			name: findings.NameSEO,
			run: func(pc analyzers.PageContext) (findings.SEOResult, error) {
				seen = append(seen, pc.URL)
				return findings.EmptySEO(), nil
			},
		}, findings.EmptySEO, func(r *findings.Results, v findings.SEOResult) { r.SEO = v }),
	}

	res, err := o.Run(context.Background(), Config{URL: "https://acme.test/about"})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://acme.test/about", "http://acme.test/about"}, session.visited)
	assert.Equal(t, "http://acme.test/about", res.ResolvedURL)
	assert.Equal(t, "https://acme.test/about", res.URL)
	assert.Equal(t, []string{"http://acme.test/about"}, seen)
	assert.Equal(t, "http://acme.test/about", m.url)
}

func TestRunIsolatesAnalyzerFailures(t *testing.T) {
	session := &fakeSession{}
	o, _ := newOrchestrator(session, &fakeMeasurer{err: errors.New("lighthouse exited 1")})

	for i, s := range o.Steps {
		switch s.Name {
		case findings.NameSocial:
			o.Steps[i] = Register[findings.SocialResult](stubAnalyzer[findings.SocialResult]{
				name: findings.NameSocial,
				run: func(analyzers.PageContext) (findings.SocialResult, error) {
					panic("nil map")
				},
			}, findings.EmptySocial, func(r *findings.Results, v findings.SocialResult) { r.Social = v })
		case findings.NameReviews:
			o.Steps[i] = Register[findings.ReviewsResult](stubAnalyzer[findings.ReviewsResult]{
				name: findings.NameReviews,
				run: func(analyzers.PageContext) (findings.ReviewsResult, error) {
					r := findings.EmptyReviews()
					r.Available = true
					return r, errors.New("widget timeout")
				},
			}, findings.EmptyReviews, func(r *findings.Results, v findings.ReviewsResult) { r.Reviews = v })
		}
	}

	res, err := o.Run(context.Background(), Config{URL: "https://acme.test/"})
	require.NoError(t, err)

	assert.Equal(t, []string{findings.NamePerformance, findings.NameSocial, findings.NameReviews}, res.FailedAnalyzers)

	var failures []string
	for _, issue := range res.Issues {
		if issue.Category == "scanner failure" {
			failures = append(failures, issue.ID)
		}
	}
	assert.Equal(t, []string{"scanner.failure.performance", "scanner.failure.social", "scanner.failure.reviews"}, failures)

	// Facts and scores are still complete.
	assert.False(t, res.Facts.Speed.Measured)
	assert.Empty(t, res.Facts.Presence.Social.Profiles)
	assert.Zero(t, res.NewScores.Performance)
	assert.Zero(t, res.NewScores.Trust)
	assert.NotZero(t, res.NewScores.Accessibility)
	assert.NotContains(t, res.Legacy.Scores, "social")
	assert.NotContains(t, res.Legacy.Scores, "reviews")
	assert.True(t, session.closed)
}

func TestRunDescribesEachFailure(t *testing.T) {
	session := &fakeSession{}
	b := &fakeBrowser{session: session}
	o := New(b, &fakeMeasurer{err: errors.New("lighthouse exited 1")}, Deps{Registry: issues.Default()}, quietLogger())
	for i, s := range o.Steps {
		if s.Name == findings.NameTechnology {
			o.Steps[i] = Register[findings.TechnologyResult](stubAnalyzer[findings.TechnologyResult]{
				name: findings.NameTechnology,
				run: func(analyzers.PageContext) (findings.TechnologyResult, error) {
					panic("fingerprint table missing")
				},
			}, findings.EmptyTechnology, func(r *findings.Results, v findings.TechnologyResult) { r.Technology = v })
		}
	}

	res, err := o.Run(context.Background(), Config{URL: "https://acme.test/"})
	require.NoError(t, err)
	require.Equal(t, []string{findings.NamePerformance, findings.NameTechnology}, res.FailedAnalyzers)

	described := map[string]domain.AuditIssue{}
	for _, issue := range res.Issues {
		if issue.Category == issues.CategoryScannerFailure {
			described[issue.ID] = issue
		}
	}
	perf, ok := described["scanner.failure.performance"]
	require.True(t, ok)
	assert.Contains(t, perf.Description, "lighthouse exited 1")
	assert.NotEmpty(t, perf.Title)
	assert.NotEmpty(t, perf.Recommendation)

	tech, ok := described["scanner.failure.technology"]
	require.True(t, ok)
	assert.Contains(t, tech.Description, "fingerprint table missing")

	// The analyzers that ran still report catalog issues for this page.
	var fromCatalog int
	for _, issue := range res.Issues {
		if issues.Default().Has(issue.ID) {
			assert.NotEqual(t, issue.ID, issue.Title, "catalog issue %s should carry its title", issue.ID)
			fromCatalog++
		}
	}
	assert.Positive(t, fromCatalog)
}

func TestRunScreenshotFailureIsRecoverable(t *testing.T) {
	session := &fakeSession{shotErr: errors.New("capture failed")}
	o, _ := newOrchestrator(session, nil)

	res, err := o.Run(context.Background(), Config{URL: "https://acme.test/"})
	require.NoError(t, err)

	assert.Equal(t, []string{findings.NameScreenshots}, res.FailedAnalyzers)
	assert.Empty(t, res.Screenshots)
}

func TestRunReportsProgress(t *testing.T) {
	o, _ := newOrchestrator(&fakeSession{}, &fakeMeasurer{})

	var milestones []float64
	byMessage := map[string]float64{}
	_, err := o.Run(context.Background(), Config{
		URL: "https://acme.test/",
		OnProgress: func(p float64, msg string) {
			assert.GreaterOrEqual(t, p, 0.0, msg)
			assert.LessOrEqual(t, p, 100.0, msg)
			milestones = append(milestones, p)
			byMessage[msg] = p
		},
	})
	require.NoError(t, err)

	require.NotEmpty(t, milestones)
	assert.IsNonDecreasing(t, milestones)
	assert.Equal(t, float64(progressLaunch), milestones[0])
	assert.Equal(t, float64(progressDone), milestones[len(milestones)-1])
	require.Contains(t, byMessage, "Running performance measurement")
	assert.Equal(t, float64(progressMeasure), byMessage["Running performance measurement"])
	require.Contains(t, byMessage, "Checking sitemap and robots.txt")
	assert.Equal(t, byMessage["Running seo checks"], byMessage["Checking sitemap and robots.txt"])
}

// ============================================================================
// Fatal errors
// ============================================================================

func TestRunFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		browser *fakeBrowser
		want    error
	}{
		{
			name:    "timeout on both schemes",
			url:     "https://slow.test/",
			browser: &fakeBrowser{session: &fakeSession{fail: map[string]error{"https": ports.ErrNavigationTimeout, "http": context.DeadlineExceeded}}},
			want:    ErrTimeout,
		},
		{
			name:    "unreachable on both schemes",
			url:     "https://nowhere.test/",
			browser: &fakeBrowser{session: &fakeSession{fail: map[string]error{"https": ports.ErrHostUnreachable, "http": ports.ErrHostUnreachable}}},
			want:    ErrUnreachable,
		},
		{
			name:    "launch failure",
			url:     "https://acme.test/",
			browser: &fakeBrowser{launchErr: errors.New("chrome not found")},
			want:    ErrBrowser,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(tt.browser, nil, Deps{}, quietLogger())
			res, err := o.Run(context.Background(), Config{URL: tt.url})
			assert.Nil(t, res)
			require.ErrorIs(t, err, tt.want)
			if tt.browser.session != nil {
				assert.True(t, tt.browser.session.closed, "session must be closed on fatal errors")
				assert.Len(t, tt.browser.session.visited, 2)
			}
		})
	}
}

func TestRunInvalidURLNeverLaunches(t *testing.T) {
	b := &fakeBrowser{session: &fakeSession{}}
	o := New(b, nil, Deps{}, quietLogger())

	_, err := o.Run(context.Background(), Config{URL: "ftp://acme.test/file"})
	require.ErrorIs(t, err, ErrInvalidURL)
	assert.Zero(t, b.launched)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"acme.test", "https://acme.test", false},
		{"  http://acme.test/a?b=1 ", "http://acme.test/a?b=1", false},
		{"https://acme.test/", "https://acme.test/", false},
		{"", "", true},
		{"mailto://x", "", true},
		{"https://", "", true},
		{"http://[::1", "", true},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidURL, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestAlternateScheme(t *testing.T) {
	assert.Equal(t, "http://a.test/x", alternateScheme("https://a.test/x"))
	assert.Equal(t, "https://a.test/x", alternateScheme("http://a.test/x"))
}
