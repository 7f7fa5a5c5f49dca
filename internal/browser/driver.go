// File: internal/browser/driver.go
package browser

import (
	"context"
	"time"
)

// Driver is the capability interface the orchestration layer is written
// against: a single page session exposing the primitives the workflow
// needs and nothing else. The production implementation drives a real
// Chrome over CDP (see chrome.go); tests substitute fakes.
//
// All methods honor the passed context for cancellation and deadlines.
// Visible is a non-blocking presence probe: it answers immediately for the
// current DOM and never waits for an element to appear. Waiting is the
// resolver's job, built as explicit polling on top of this probe.
type Driver interface {
	// Navigate loads the URL and waits for the page load to settle.
	Navigate(ctx context.Context, url string) error
	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)
	// Visible reports whether the selector matches an element that is
	// currently rendered and interactable.
	Visible(ctx context.Context, selector string) (bool, error)
	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error
	// Type clears the matching input and types the text into it.
	Type(ctx context.Context, selector, text string) error
	// Upload sets the file on a file input element.
	Upload(ctx context.Context, selector, path string) error
	// Text returns the trimmed text content of the matching element.
	Text(ctx context.Context, selector string) (string, error)
	// Evaluate runs a JS expression and unmarshals its result into out.
	// Pass nil when the result is irrelevant.
	Evaluate(ctx context.Context, expr string, out any) error
	// Screenshot captures a full-page PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close tears down the page session and the browser.
	Close(ctx context.Context) error
}

// Tracer receives the ordered timeline of driver actions and page events.
// The diagnostic recorder implements it; a nil tracer disables recording.
type Tracer interface {
	Record(kind, detail string)
}

// Options configures the Chrome-backed driver.
type Options struct {
	Headless        bool
	NavTimeout      time.Duration
	IgnoreTLSErrors bool
	// Extra chrome flags in "--key" or "--key=value" form.
	Args []string
}

// CombineContext derives a context cancelled when either input is done.
// chromedp actions must run on the browser's context chain to reach the
// right target, so the caller's deadline is linked in from the side.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(ctx1)
	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}
