package audit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"pageaudit/internal/analyzers"
	"pageaudit/internal/findings"
	"pageaudit/internal/issues"
	"pageaudit/internal/ports"
)

// Step is one guarded analyzer invocation. Steps never return errors: a
// failure stores the analyzer's default result and a scanner-failure issue.
type Step struct {
	Name string
	run  func(ctx context.Context, pc analyzers.PageContext, res *findings.Results) error

	// reset stores the default result after a failure.
	reset func(res *findings.Results)
}

// Register binds an analyzer to its slot in Results. fallback supplies the
// default stored when the analyzer errors or panics.
func Register[T any](a analyzers.Analyzer[T], fallback func() T, store func(*findings.Results, T)) Step {
	return Step{
		Name: a.Name(),
		run: func(ctx context.Context, pc analyzers.PageContext, res *findings.Results) error {
			out, err := a.Run(ctx, pc)
			if err != nil {
				return err
			}
			store(res, out.Result)
			res.Issues = append(res.Issues, out.Issues...)
			return nil
		},
		reset: func(res *findings.Results) { store(res, fallback()) },
	}
}

// guard runs s, recovering panics, and records any failure in res.
func (s Step) guard(ctx context.Context, pc analyzers.PageContext, res *findings.Results, log *slog.Logger) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
				log.Debug("analyzer panic", "analyzer", s.Name, "stack", string(debug.Stack()))
			}
		}()
		return s.run(ctx, pc, res)
	}()
	if err != nil {
		if s.reset != nil {
			s.reset(res)
		}
		res.Failed = append(res.Failed, s.Name)
		res.Issues = append(res.Issues, issues.ScannerFailure(s.Name, err))
		log.Warn("analyzer failed", "url", pc.URL, "stage", "analyze", "analyzer", s.Name, "error", err)
		return
	}
	log.Info("analyzer done", "url", pc.URL, "stage", "analyze", "analyzer", s.Name, "duration", time.Since(start))
}

// Deps are the collaborators of the default analyzer set.
type Deps struct {
	Client   analyzers.HTTPDoer
	Links    *analyzers.LinkChecker
	Registry *issues.Registry
	// ProbeTimeout bounds the per-request timeouts of the SEO and security analyzers.
	ProbeTimeout time.Duration
}

// DefaultSteps returns the analyzers run after screenshots, in order.
func DefaultSteps(d Deps) []Step {
	return []Step{
		Register[findings.SEOResult](
			&analyzers.SEO{Client: d.Client, Links: d.Links, Registry: d.Registry, ProbeTimeout: d.ProbeTimeout},
			findings.EmptySEO, func(r *findings.Results, v findings.SEOResult) { r.SEO = v }),
		Register[findings.TechnologyResult](
			&analyzers.Technology{Registry: d.Registry},
			findings.EmptyTechnology, func(r *findings.Results, v findings.TechnologyResult) { r.Technology = v }),
		Register[findings.SocialResult](
			&analyzers.Social{Registry: d.Registry},
			findings.EmptySocial, func(r *findings.Results, v findings.SocialResult) { r.Social = v }),
		Register[findings.SecurityResult](
			&analyzers.Security{Client: d.Client, Registry: d.Registry, Timeout: d.ProbeTimeout},
			findings.EmptySecurity, func(r *findings.Results, v findings.SecurityResult) { r.Security = v }),
		Register[findings.LocalResult](
			&analyzers.Local{Registry: d.Registry},
			findings.EmptyLocal, func(r *findings.Results, v findings.LocalResult) { r.Local = v }),
		Register[findings.ReviewsResult](
			&analyzers.Reviews{Registry: d.Registry},
			findings.EmptyReviews, func(r *findings.Results, v findings.ReviewsResult) { r.Reviews = v }),
		Register[findings.AccessibilityResult](
			&analyzers.Accessibility{Registry: d.Registry},
			findings.EmptyAccessibility, func(r *findings.Results, v findings.AccessibilityResult) { r.Accessibility = v }),
	}
}

// measurement adapts a Measurer to the analyzer contract so it shares the guard.
type measurement struct {
	m ports.Measurer
}

func (a measurement) Name() string { return findings.NamePerformance }

func (a measurement) Run(ctx context.Context, pc analyzers.PageContext) (analyzers.Output[findings.PerformanceResult], error) {
	pc.Progress("Running performance measurement")
	res, err := a.m.Measure(ctx, pc.URL, pc.ChannelID)
	if err != nil {
		return analyzers.Output[findings.PerformanceResult]{}, err
	}
	res.Available = true
	return analyzers.Output[findings.PerformanceResult]{Result: res}, nil
}

func measurementStep(m ports.Measurer) Step {
	return Register[findings.PerformanceResult](measurement{m: m},
		findings.EmptyPerformance, func(r *findings.Results, v findings.PerformanceResult) { r.Performance = v })
}
