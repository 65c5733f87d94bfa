package analyzers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// LinkChecker probes outbound links with bounded concurrency. A failed or slow
// probe marks the link broken; it never fails the analyzer.
type LinkChecker struct {
	Client      HTTPDoer
	MaxChecks   int
	Timeout     time.Duration
	Concurrency int
	// Exclude holds doublestar globs matched against "host/path".
	Exclude []string
	Logger  *slog.Logger
}

// ValidateExcludes reports the first malformed exclude pattern.
func ValidateExcludes(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid link exclude pattern %q", p)
		}
	}
	return nil
}

// Excluded reports whether u matches an exclude pattern.
func (c *LinkChecker) Excluded(u *url.URL) bool {
	target := u.Host + u.EscapedPath()
	for _, p := range c.Exclude {
		if ok, err := doublestar.Match(p, target); err == nil && ok {
			return true
		}
	}
	return false
}

// Check probes up to MaxChecks unique links and returns the checked count and
// the broken ones in input order.
func (c *LinkChecker) Check(ctx context.Context, hrefs []string) (int, []string) {
	targets := c.selectTargets(hrefs)
	if len(targets) == 0 {
		return 0, []string{}
	}

	broken := make([]bool, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Concurrency, 1))
	for i, target := range targets {
		g.Go(func() error {
			broken[i] = !c.probe(gctx, target)
			return nil
		})
	}
	_ = g.Wait()

	out := []string{}
	for i, b := range broken {
		if b {
			out = append(out, targets[i])
		}
	}
	return len(targets), out
}

func (c *LinkChecker) selectTargets(hrefs []string) []string {
	if c.MaxChecks == 0 {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, h := range hrefs {
		if c.MaxChecks > 0 && len(out) >= c.MaxChecks {
			break
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		u, err := url.Parse(h)
		if err != nil || c.Excluded(u) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// probe sends HEAD, falling back to GET when the server rejects HEAD.
func (c *LinkChecker) probe(ctx context.Context, target string) bool {
	status, err := c.request(ctx, http.MethodHead, target)
	if err != nil || status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented || status == http.StatusForbidden {
		status, err = c.request(ctx, http.MethodGet, target)
	}
	if err != nil {
		c.logger().Debug("link check failed", "url", target, "error", err)
		return false
	}
	return status < 400
}

func (c *LinkChecker) request(ctx context.Context, method, target string) (int, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", UserAgent)
	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

func (c *LinkChecker) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
