// Package audit runs one page audit: browser load, measurement, screenshots,
// the analyzer sequence, then every scoring stage.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"pageaudit/internal/analyzers"
	"pageaudit/internal/domain"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
	"pageaudit/internal/ports"
	"pageaudit/internal/report"
)

// Fatal audit errors. Anything returned by Run wraps exactly one of them.
var (
	ErrInvalidURL  = errors.New("invalid url")
	ErrUnreachable = errors.New("page unreachable")
	ErrTimeout     = errors.New("page load timed out")
	ErrBrowser     = errors.New("browser failure")
)

// Progress milestones reported by Run.
const (
	progressLaunch      = 5
	progressNavigate    = 10
	progressMeasure     = 20
	progressScreenshots = 35
	progressAnalyzers   = 45
	progressScoring     = 95
	progressDone        = 100
)

// Config is one audit request.
type Config struct {
	URL string
	// ID defaults to a new UUID.
	ID string
	// NavigationTimeout bounds each navigation attempt. Zero means 30s.
	NavigationTimeout time.Duration
	// Viewports default to domain.DefaultViewports.
	Viewports []domain.Viewport
	// OnProgress may be nil. Percent is always within 0-100 and never
	// decreases; analyzer messages repeat the milestone they run at.
	OnProgress func(percent float64, message string)
}

// Orchestrator owns the fixed audit sequence.
type Orchestrator struct {
	Browser ports.Browser
	// Measurer may be nil, in which case performance is reported unavailable.
	Measurer ports.Measurer
	Steps    []Step
	Logger   *slog.Logger
	Now      func() time.Time
}

// New returns an Orchestrator running DefaultSteps(deps).
func New(browser ports.Browser, measurer ports.Measurer, deps Deps, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Browser: browser, Measurer: measurer, Steps: DefaultSteps(deps), Logger: logger}
}

// Run audits cfg.URL. Only browser launch, navigation and HTML extraction are
// fatal; analyzer failures end up in the report.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (*report.Result, error) {
	log := o.logger()
	progress := func(p float64, msg string) {
		if cfg.OnProgress != nil {
			cfg.OnProgress(p, msg)
		}
	}

	target, err := Normalize(cfg.URL)
	if err != nil {
		return nil, err
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	started := o.now()
	log = log.With("audit", id, "url", target)

	progress(progressLaunch, "Launching browser")
	session, err := o.Browser.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: launch: %v", ErrBrowser, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("browser close failed", "error", cerr)
		}
	}()

	progress(progressNavigate, "Loading page")
	stageStart := time.Now()
	nav, err := o.navigate(ctx, session, target, cfg.NavigationTimeout)
	if err != nil {
		return nil, err
	}
	resolved := nav.URL
	if resolved == "" {
		resolved = target
	}
	log.Info("page loaded", "stage", "navigate", "resolved", resolved, "status", nav.Status, "duration", time.Since(stageStart))

	doc, err := session.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read html: %v", ErrBrowser, err)
	}

	res := findings.Empty()
	pc := analyzers.PageContext{
		URL:        resolved,
		HTML:       doc,
		Headers:    nav.Headers,
		ChannelID:  session.DebugPort(),
		OnProgress: cfg.OnProgress,
	}

	progress(progressMeasure, "Measuring performance")
	pc.Percent = progressMeasure
	if o.Measurer != nil {
		measurementStep(o.Measurer).guard(ctx, pc, &res, log)
	} else {
		log.Info("measurement disabled", "stage", "measure")
	}
	pc.Measured = res.Performance.Categories

	progress(progressScreenshots, "Capturing screenshots")
	shots := o.screenshots(ctx, session, cfg.Viewports, &res, log)

	for i, step := range o.Steps {
		span := float64(progressScoring-progressAnalyzers) / float64(max(len(o.Steps), 1))
		pc.Percent = progressAnalyzers + span*float64(i)
		progress(pc.Percent, "Running "+step.Name+" checks")
		step.guard(ctx, pc, &res, log)
	}

	progress(progressScoring, "Scoring")
	result := report.Assemble(report.Input{
		ID:          id,
		URL:         target,
		ResolvedURL: resolved,
		StartedAt:   started,
		CompletedAt: o.now(),
		Results:     res,
		Screenshots: shots,
	})
	log.Info("audit complete", "stage", "report", "overall", result.NewScores.Overall,
		"failed", len(result.FailedAnalyzers), "duration", time.Since(started))
	progress(progressDone, "Done")
	return result, nil
}

// navigate loads target, retrying once with the other scheme when the first
// attempt fails.
func (o *Orchestrator) navigate(ctx context.Context, s ports.BrowserSession, target string, timeout time.Duration) (ports.Navigation, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempt := func(u string) (ports.Navigation, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return s.Navigate(ctx, u)
	}

	nav, err := attempt(target)
	if err == nil {
		return nav, nil
	}
	alt := alternateScheme(target)
	o.logger().Info("navigation failed, trying alternate scheme", "url", target, "alternate", alt, "error", err)
	nav, altErr := attempt(alt)
	if altErr == nil {
		return nav, nil
	}
	return ports.Navigation{}, classify(target, errors.Join(err, altErr))
}

func (o *Orchestrator) screenshots(ctx context.Context, s ports.BrowserSession, viewports []domain.Viewport, res *findings.Results, log *slog.Logger) []domain.Screenshot {
	if len(viewports) == 0 {
		viewports = domain.DefaultViewports()
	}
	shots, err := s.Screenshots(ctx, viewports)
	if err != nil {
		res.Failed = append(res.Failed, findings.NameScreenshots)
		res.Issues = append(res.Issues, issues.ScannerFailure(findings.NameScreenshots, err))
		log.Warn("screenshots failed", "stage", "screenshots", "error", err)
		return []domain.Screenshot{}
	}
	return shots
}

// classify maps a navigation failure to a fatal sentinel.
func classify(target string, err error) error {
	switch {
	case errors.Is(err, ports.ErrNavigationTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", ErrTimeout, target, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrUnreachable, target, err)
	}
}

// Normalize validates raw and defaults a missing scheme to https.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.String(), nil
}

func alternateScheme(target string) string {
	if rest, ok := strings.CutPrefix(target, "https://"); ok {
		return "http://" + rest
	}
	return "https://" + strings.TrimPrefix(target, "http://")
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
