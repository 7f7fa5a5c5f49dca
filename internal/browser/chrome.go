// File: internal/browser/chrome.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Chrome drives a single page in a real Chrome instance over CDP. It owns
// the allocator and browser contexts for the whole run; the workflow layer
// never sees chromedp types.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
	tracer      Tracer
	navTimeout  time.Duration
}

var _ Driver = (*Chrome)(nil)

// execOptions translates driver options into chromedp allocator options.
func execOptions(opts Options) []chromedp.ExecAllocatorOption {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened hosts and inside containers.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.Headless {
		execOpts = append(execOpts, chromedp.Headless)
	}
	if opts.IgnoreTLSErrors {
		execOpts = append(execOpts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range opts.Args {
		if !strings.HasPrefix(arg, "--") {
			arg = "--" + arg
		}
		if key, value, found := strings.Cut(arg, "="); found {
			execOpts = append(execOpts, chromedp.Flag(strings.TrimPrefix(key, "--"), value))
		} else {
			execOpts = append(execOpts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
		}
	}
	return execOpts
}

// NewChrome launches Chrome and opens the single page session used for the
// entire provisioning run. The tracer, when non-nil, receives every
// navigation and network request for the diagnostic timeline.
func NewChrome(parent context.Context, opts Options, logger *zap.Logger, tracer Tracer) (*Chrome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, execOptions(opts)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	c := &Chrome{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      log,
		tracer:      tracer,
		navTimeout:  opts.NavTimeout,
	}
	if c.navTimeout <= 0 {
		c.navTimeout = 90 * time.Second
	}

	if tracer != nil {
		chromedp.ListenTarget(browserCtx, func(ev interface{}) {
			if req, ok := ev.(*network.EventRequestWillBeSent); ok {
				tracer.Record("network", fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL))
			}
		})
	}

	// Starting the browser is the first point of failure worth a bounded
	// wait: a missing chrome binary or a dead display should surface fast.
	startCtx, startCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer startCancel()
	if err := chromedp.Run(startCtx, network.Enable()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("Browser session started", zap.Bool("headless", opts.Headless))
	return c, nil
}

// run executes chromedp actions on the browser context, linked to the
// caller's context for cancellation.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(c.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the URL, bounded by the configured navigation timeout.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.logger.Debug("Navigating", zap.String("url", url))
	c.record("navigate", url)

	navCtx, cancel := context.WithTimeout(ctx, c.navTimeout)
	defer cancel()

	if err := c.run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %s: %w", url, c.navTimeout, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Location returns the page's current URL.
func (c *Chrome) Location(ctx context.Context) (string, error) {
	var loc string
	if err := c.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// visibleExpr answers, for the current DOM only, whether the selector
// matches something rendered and enabled. It never waits.
const visibleExpr = `(() => {
	const el = document.querySelector(%q);
	if (!el) return false;
	if (el.disabled) return false;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
})()`

// Visible reports whether the selector matches a rendered, interactable
// element right now.
func (c *Chrome) Visible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	expr := fmt.Sprintf(visibleExpr, selector)
	if err := c.run(ctx, chromedp.Evaluate(expr, &visible)); err != nil {
		return false, fmt.Errorf("visibility probe for %q failed: %w", selector, err)
	}
	return visible, nil
}

// Click scrolls the element into view and clicks it.
func (c *Chrome) Click(ctx context.Context, selector string) error {
	c.logger.Debug("Clicking", zap.String("selector", selector))
	c.record("click", selector)

	err := c.run(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click failed for %q: %w", selector, err)
	}
	return nil
}

// Type clears the input and sends the text as keystrokes.
func (c *Chrome) Type(ctx context.Context, selector, text string) error {
	c.logger.Debug("Typing", zap.String("selector", selector), zap.Int("text_length", len(text)))
	c.record("type", selector)

	err := c.run(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("type failed for %q: %w", selector, err)
	}
	return nil
}

// Upload sets the file on a file input element.
func (c *Chrome) Upload(ctx context.Context, selector, path string) error {
	c.logger.Debug("Uploading file", zap.String("selector", selector), zap.String("path", path))
	c.record("upload", path)

	err := c.run(ctx, chromedp.SetUploadFiles(selector, []string{path}, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("upload via %q failed: %w", selector, err)
	}
	return nil
}

// Text returns the trimmed text content of the matching element.
func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := c.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read text of %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// Evaluate runs a JS expression; out may be nil to discard the result.
func (c *Chrome) Evaluate(ctx context.Context, expr string, out any) error {
	if err := c.run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// Screenshot captures a full-page PNG.
func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Close tears down the page and the browser process.
func (c *Chrome) Close(ctx context.Context) error {
	c.logger.Info("Closing browser session")
	c.cancel()
	c.allocCancel()
	return nil
}

func (c *Chrome) record(kind, detail string) {
	if c.tracer != nil {
		c.tracer.Record(kind, detail)
	}
}
