package lighthouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pageaudit/internal/analyzers"
	"pageaudit/internal/findings"
)

// DefaultPageSpeedEndpoint is the PageSpeed Insights v5 API.
const DefaultPageSpeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// PageSpeed measures pages through the hosted PageSpeed Insights API. The
// browser channel is not used.
type PageSpeed struct {
	Endpoint string
	APIKey   string
	// Strategy is "mobile" (default) or "desktop".
	Strategy string
	Timeout  time.Duration
	Client   analyzers.HTTPDoer
}

// NewPageSpeed constructs a PageSpeed client against the public endpoint.
func NewPageSpeed(apiKey, strategy string, timeout time.Duration) *PageSpeed {
	return &PageSpeed{
		Endpoint: DefaultPageSpeedEndpoint,
		APIKey:   strings.TrimSpace(apiKey),
		Strategy: strategy,
		Timeout:  timeout,
		Client:   http.DefaultClient,
	}
}

type pageSpeedResponse struct {
	LighthouseResult  *lhr `json:"lighthouseResult"`
	LoadingExperience struct {
		Metrics map[string]struct {
			Percentile float64 `json:"percentile"`
		} `json:"metrics"`
	} `json:"loadingExperience"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Measure calls the API for target.
func (p *PageSpeed) Measure(ctx context.Context, target string, _ int) (findings.PerformanceResult, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.requestURL(target), nil)
	if err != nil {
		return findings.PerformanceResult{}, fmt.Errorf("build pagespeed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return findings.PerformanceResult{}, fmt.Errorf("pagespeed request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return findings.PerformanceResult{}, fmt.Errorf("read pagespeed response: %w", err)
	}
	var payload pageSpeedResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return findings.PerformanceResult{}, fmt.Errorf("pagespeed parse (status %d): %w", resp.StatusCode, err)
	}
	if payload.Error != nil {
		return findings.PerformanceResult{}, fmt.Errorf("pagespeed returned %d: %s", payload.Error.Code, payload.Error.Message)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return findings.PerformanceResult{}, fmt.Errorf("pagespeed returned %d", resp.StatusCode)
	}
	if payload.LighthouseResult == nil {
		return findings.PerformanceResult{}, fmt.Errorf("pagespeed response has no lighthouseResult")
	}

	res, err := fromReport(*payload.LighthouseResult)
	if err != nil {
		return findings.PerformanceResult{}, err
	}
	// Lab runs have no INP; use the field percentile when there is one.
	if _, ok := res.Metrics["inp"]; !ok {
		if m, ok := payload.LoadingExperience.Metrics["INTERACTION_TO_NEXT_PAINT"]; ok {
			res.Metrics["inp"] = m.Percentile
		}
	}
	return res, nil
}

func (p *PageSpeed) requestURL(target string) string {
	q := url.Values{}
	q.Set("url", target)
	strategy := strings.ToLower(p.Strategy)
	if strategy != "desktop" {
		strategy = "mobile"
	}
	q.Set("strategy", strategy)
	for _, c := range Categories {
		q.Add("category", strings.ToUpper(strings.ReplaceAll(c, "-", "_")))
	}
	if p.APIKey != "" {
		q.Set("key", p.APIKey)
	}
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = DefaultPageSpeedEndpoint
	}
	return endpoint + "?" + q.Encode()
}
