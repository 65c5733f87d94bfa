// Package lighthouse implements ports.Measurer on top of the Lighthouse CLI
// and the PageSpeed Insights API. Both produce the same JSON report shape.
package lighthouse

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"pageaudit/internal/findings"
)

// metricAudits maps a metric key to the report audit carrying its value.
var metricAudits = map[string][]string{
	"lcp":  {"largest-contentful-paint"},
	"fcp":  {"first-contentful-paint"},
	"cls":  {"cumulative-layout-shift"},
	"tbt":  {"total-blocking-time"},
	"si":   {"speed-index"},
	"ttfb": {"server-response-time"},
	"tti":  {"interactive"},
	"inp":  {"interaction-to-next-paint", "experimental-interaction-to-next-paint"},
}

// keptAudits are copied into PerformanceResult.Audits besides the metric audits.
var keptAudits = []string{
	"viewport", "tap-targets", "font-size", "content-width",
	"render-blocking-resources", "uses-optimized-images", "uses-text-compression",
	"uses-responsive-images", "unused-javascript", "document-title", "meta-description",
	"color-contrast", "image-alt", "is-on-https",
}

// ErrRuntime reports a Lighthouse run that completed with a runtime error.
var ErrRuntime = errors.New("lighthouse runtime error")

// lhr is the subset of the Lighthouse result we read.
type lhr struct {
	FinalURL     string `json:"finalUrl"`
	RuntimeError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"runtimeError"`
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
	Audits map[string]findings.AuditDetail `json:"audits"`
}

// Parse decodes a Lighthouse JSON report.
func Parse(data []byte) (findings.PerformanceResult, error) {
	var report lhr
	if err := json.Unmarshal(data, &report); err != nil {
		return findings.PerformanceResult{}, fmt.Errorf("lighthouse parse: %w", err)
	}
	return fromReport(report)
}

func fromReport(report lhr) (findings.PerformanceResult, error) {
	if rt := report.RuntimeError; rt != nil && rt.Code != "" && rt.Code != "NO_ERROR" {
		return findings.PerformanceResult{}, fmt.Errorf("%w: %s: %s", ErrRuntime, rt.Code, rt.Message)
	}

	res := findings.EmptyPerformance()
	for name, c := range report.Categories {
		if c.Score != nil {
			res.Categories[name] = math.Round(*c.Score*1000) / 10
		}
	}
	for key, ids := range metricAudits {
		for _, id := range ids {
			a, ok := report.Audits[id]
			if !ok || a.NumericValue == nil {
				continue
			}
			res.Metrics[key] = *a.NumericValue
			res.Audits[id] = a
			break
		}
	}
	for _, id := range keptAudits {
		if a, ok := report.Audits[id]; ok {
			res.Audits[id] = a
		}
	}
	if len(res.Categories) == 0 && len(res.Metrics) == 0 {
		return findings.PerformanceResult{}, errors.New("lighthouse report has no categories or metrics")
	}
	res.Available = true
	return res, nil
}
