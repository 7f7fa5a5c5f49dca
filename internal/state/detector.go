// File: internal/state/detector.go
package state

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Markers are the DOM signals used to break ties when the URL alone is
// ambiguous. They are cheap presence checks, collected without waiting.
type Markers struct {
	SignupForm       bool // signup email/password form is on the page
	LoginForm        bool // login form is on the page
	OnboardingPrompt bool // the post-signup questionnaire is showing
	ApplicationsGrid bool // the authenticated applications/home listing
	EditorCanvas     bool // the application editor shell
}

// urlRule maps a URL path fragment to a state. Rules are evaluated in
// order; the first match wins.
type urlRule struct {
	fragment string
	state    State
}

// Detector classifies the current page into a logical workflow state.
// URL patterns take precedence over DOM markers; markers are consulted only
// when the URL says nothing. Classification never fails: anything
// unrecognized is NotReady, which callers treat as "keep polling".
type Detector struct {
	logger   *zap.Logger
	urlRules []urlRule
}

// NewDetector builds a detector with the rule set for the target
// application's known URL space.
func NewDetector(logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		logger: logger.Named("detector"),
		urlRules: []urlRule{
			{"/user/login", LoginRequired},
			{"/setup/welcome", SignupRequired},
			{"/user/signup", SignupRequired},
			{"/signup-success", Onboarding},
			{"/onboarding", Onboarding},
			{"/applications", AuthenticatedHome},
			{"/home", AuthenticatedHome},
			{"/edit", Editor},
			{"/editor", Editor},
		},
	}
}

// Classify maps the current URL and DOM markers to a State.
func (d *Detector) Classify(rawURL string, m Markers) State {
	if path := urlPath(rawURL); path != "" {
		for _, rule := range d.urlRules {
			if strings.Contains(path, rule.fragment) {
				return rule.state
			}
		}
	}

	// The URL was ambiguous (root path, blank page, unknown route); fall
	// back to DOM markers in priority order.
	switch {
	case m.OnboardingPrompt:
		return Onboarding
	case m.SignupForm:
		return SignupRequired
	case m.LoginForm:
		return LoginRequired
	case m.EditorCanvas:
		return Editor
	case m.ApplicationsGrid:
		return AuthenticatedHome
	default:
		return NotReady
	}
}

// Page is the slice of the browser driver the detector needs to take a
// snapshot: where we are, and which markers are present.
type Page interface {
	Location(ctx context.Context) (string, error)
	Visible(ctx context.Context, selector string) (bool, error)
}

// Marker selectors for the target application's UI. These are presence
// probes, not interaction targets, so a single selector each is enough.
const (
	selSignupForm       = `form[action*="signup"], input[name="email"][data-testid*="signup"]`
	selLoginForm        = `form[action*="login"], form#login, input[name="password"]`
	selOnboardingPrompt = `[data-testid*="onboarding"], .t--onboarding-container`
	selApplicationsGrid = `[data-testid*="applications"], .t--applications-container`
	selEditorCanvas     = `[data-testid*="canvas"], .t--canvas-artboard, #art-board`
)

// Snapshot reads the current URL and markers from the page and classifies
// them. Probe errors are logged and treated as "marker absent"; a driver
// hiccup during a poll must not masquerade as a state change.
func (d *Detector) Snapshot(ctx context.Context, page Page) State {
	loc, err := page.Location(ctx)
	if err != nil {
		d.logger.Debug("Could not read current location", zap.Error(err))
		return NotReady
	}

	markers := Markers{
		SignupForm:       d.probe(ctx, page, selSignupForm),
		LoginForm:        d.probe(ctx, page, selLoginForm),
		OnboardingPrompt: d.probe(ctx, page, selOnboardingPrompt),
		ApplicationsGrid: d.probe(ctx, page, selApplicationsGrid),
		EditorCanvas:     d.probe(ctx, page, selEditorCanvas),
	}

	s := d.Classify(loc, markers)
	d.logger.Debug("Classified page",
		zap.String("url", loc),
		zap.String("state", s.String()),
	)
	return s
}

func (d *Detector) probe(ctx context.Context, page Page, selector string) bool {
	visible, err := page.Visible(ctx, selector)
	if err != nil {
		d.logger.Debug("Marker probe failed", zap.String("selector", selector), zap.Error(err))
		return false
	}
	return visible
}

// urlPath extracts the path component, tolerating bare or malformed input.
func urlPath(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
