package lighthouse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"pageaudit/internal/findings"
)

var commandContext = exec.CommandContext

// Categories requested from Lighthouse.
var Categories = []string{"performance", "accessibility", "best-practices", "seo"}

// Option configures the Runner.
type Option func(*Runner)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if binary = strings.TrimSpace(binary); binary != "" {
			r.binary = binary
		}
	}
}

// WithStrategy selects "mobile" or "desktop" emulation.
func WithStrategy(strategy string) Option {
	return func(r *Runner) {
		if strategy != "" {
			r.strategy = strings.ToLower(strategy)
		}
	}
}

// WithTimeout bounds one Lighthouse run.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Runner drives the lighthouse CLI against an already running browser.
type Runner struct {
	binary   string
	strategy string
	timeout  time.Duration
}

// NewRunner constructs a Runner using defaults.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{binary: "lighthouse", strategy: "mobile", timeout: 120 * time.Second}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Measure runs Lighthouse against url through the browser's debugging port.
func (r *Runner) Measure(ctx context.Context, url string, channel int) (findings.PerformanceResult, error) {
	if strings.TrimSpace(url) == "" {
		return findings.PerformanceResult{}, errors.New("lighthouse: empty url")
	}
	if channel <= 0 {
		return findings.PerformanceResult{}, fmt.Errorf("lighthouse: invalid debugging port %d", channel)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := commandContext(ctx, r.binary, r.args(url, channel)...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return findings.PerformanceResult{}, fmt.Errorf("lighthouse: %w", ctx.Err())
		}
		return findings.PerformanceResult{}, fmt.Errorf("lighthouse: %w: %s", err, lastLine(stderr.String()))
	}
	return Parse(stdout.Bytes())
}

func (r *Runner) args(url string, channel int) []string {
	args := []string{
		url,
		"--port=" + strconv.Itoa(channel),
		"--output=json",
		"--output-path=stdout",
		"--quiet",
		"--only-categories=" + strings.Join(Categories, ","),
	}
	if r.strategy == "desktop" {
		args = append(args, "--preset=desktop")
	} else {
		args = append(args, "--form-factor=mobile")
	}
	return args
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
