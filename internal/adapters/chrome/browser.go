// Package chrome implements ports.Browser with a chromedp-driven headless
// Chrome. Each Launch starts a dedicated browser process with a remote
// debugging port the measurement service can attach to.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"

	"pageaudit/internal/domain"
	"pageaudit/internal/ports"
)

const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// Browser launches headless Chrome sessions.
type Browser struct {
	ExecPath  string
	Headless  bool
	DebugPort int
	Logger    *slog.Logger
}

// New returns a Browser with headless mode on.
func New(execPath string, debugPort int, logger *slog.Logger) *Browser {
	return &Browser{ExecPath: execPath, Headless: true, DebugPort: debugPort, Logger: logger}
}

// Launch starts Chrome and opens one tab. A DebugPort <= 0 picks a free port,
// which lets concurrent sessions coexist.
func (b *Browser) Launch(ctx context.Context) (ports.BrowserSession, error) {
	port := b.DebugPort
	if port <= 0 {
		free, err := freePort()
		if err != nil {
			return nil, fmt.Errorf("pick debugging port: %w", err)
		}
		port = free
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.Headless),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(port)),
		chromedp.WindowSize(1920, 1080),
	)
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}

	// The browser outlives the caller's launch context; Close releases it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	// The first Run starts the process; it must not carry a deadline or the
	// browser dies with it.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	if b.Logger != nil {
		b.Logger.Debug("chrome launched", "port", port, "headless", b.Headless)
	}
	return &Session{ctx: tabCtx, port: port, cancel: func() { tabCancel(); allocCancel() }}, nil
}

// Session is one browser tab.
type Session struct {
	ctx    context.Context
	port   int
	cancel func()
}

// bound derives a tab context that honours the caller's deadline and
// cancellation.
func (s *Session) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	cancelDeadline := context.CancelFunc(func() {})
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancelDeadline()
		cancel()
	}
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := s.bound(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and returns the main document response.
func (s *Session) Navigate(ctx context.Context, url string) (ports.Navigation, error) {
	runCtx, cancel := s.bound(ctx)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return ports.Navigation{}, classify(url, err)
	}
	nav := ports.Navigation{URL: url, Headers: http.Header{}}
	if resp != nil {
		if resp.URL != "" {
			nav.URL = resp.URL
		}
		nav.Status = int(resp.Status)
		for k, v := range resp.Headers {
			// CDP joins repeated headers with newlines.
			for _, line := range strings.Split(fmt.Sprint(v), "\n") {
				nav.Headers.Add(k, line)
			}
		}
	}
	return nav, nil
}

// HTML returns the rendered document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var doc string
	if err := s.run(ctx, chromedp.OuterHTML("html", &doc, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return doc, nil
}

// Screenshots captures one PNG per viewport, then restores the default
// viewport.
func (s *Session) Screenshots(ctx context.Context, viewports []domain.Viewport) ([]domain.Screenshot, error) {
	shots := make([]domain.Screenshot, 0, len(viewports))
	for _, vp := range viewports {
		var buf []byte
		if err := s.run(ctx, viewportAction(vp), chromedp.CaptureScreenshot(&buf)); err != nil {
			return nil, fmt.Errorf("screenshot %s: %w", vp.Name, err)
		}
		shots = append(shots, domain.Screenshot{
			Name:   vp.Name,
			Width:  vp.Width,
			Height: vp.Height,
			Size:   len(buf),
			Data:   buf,
		})
	}
	if err := s.run(ctx, chromedp.EmulateReset()); err != nil {
		return shots, fmt.Errorf("reset viewport: %w", err)
	}
	return shots, nil
}

func viewportAction(vp domain.Viewport) chromedp.Action {
	scale := vp.DeviceScaleFactor
	if scale <= 0 {
		scale = 1
	}
	if vp.Emulate {
		return chromedp.Emulate(device.Info{
			Name:      vp.Name,
			UserAgent: mobileUserAgent,
			Width:     int64(vp.Width),
			Height:    int64(vp.Height),
			Scale:     scale,
			Mobile:    vp.Mobile,
			Touch:     vp.Mobile,
		})
	}
	return chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height), chromedp.EmulateScale(scale))
}

// DebugPort is the remote debugging port the browser listens on.
func (s *Session) DebugPort() int { return s.port }

// Close shuts down the tab and the browser process.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

// unreachableCodes are Chrome net errors meaning the host could not be reached.
var unreachableCodes = []string{
	"net::ERR_NAME_NOT_RESOLVED",
	"net::ERR_CONNECTION_REFUSED",
	"net::ERR_CONNECTION_RESET",
	"net::ERR_CONNECTION_CLOSED",
	"net::ERR_ADDRESS_UNREACHABLE",
	"net::ERR_INTERNET_DISCONNECTED",
	"net::ERR_SSL_PROTOCOL_ERROR",
	"net::ERR_CERT_",
}

// classify maps a navigation error onto the port sentinels.
func classify(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ports.ErrNavigationTimeout, url, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "net::ERR_TIMED_OUT") || strings.Contains(msg, "net::ERR_CONNECTION_TIMED_OUT") {
		return fmt.Errorf("%w: %s: %v", ports.ErrNavigationTimeout, url, err)
	}
	for _, code := range unreachableCodes {
		if strings.Contains(msg, code) {
			return fmt.Errorf("%w: %s: %v", ports.ErrHostUnreachable, url, err)
		}
	}
	return fmt.Errorf("navigate %s: %w", url, err)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
