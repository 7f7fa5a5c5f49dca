// File: internal/workflow/steps_test.go
package workflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/config"
	"github.com/xkilldash9x/uiprov/internal/probe"
	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// stepDriver scripts a page for concrete step tests. Clicks can mutate the
// location through onClick, simulating the target's navigation responses.
type stepDriver struct {
	loc      string
	visible  map[string]bool
	typed    map[string]string
	typedSeq []string
	clicks   []string
	uploads  []string

	uploadErr error
	onClick   func(selector string)
	onUpload  func()
	// navTo, when set, is where Navigate actually lands (a redirect).
	navTo string
}

func (d *stepDriver) Navigate(_ context.Context, url string) error {
	if d.navTo != "" {
		d.loc = d.navTo
		return nil
	}
	d.loc = url
	return nil
}

func (d *stepDriver) Location(context.Context) (string, error) { return d.loc, nil }

func (d *stepDriver) Visible(_ context.Context, selector string) (bool, error) {
	return d.visible[selector], nil
}

func (d *stepDriver) Click(_ context.Context, selector string) error {
	d.clicks = append(d.clicks, selector)
	if d.onClick != nil {
		d.onClick(selector)
	}
	return nil
}

func (d *stepDriver) Type(_ context.Context, selector, text string) error {
	if d.typed == nil {
		d.typed = map[string]string{}
	}
	d.typed[selector] = text
	d.typedSeq = append(d.typedSeq, selector)
	return nil
}

func (d *stepDriver) Upload(_ context.Context, selector, path string) error {
	if d.uploadErr != nil {
		return d.uploadErr
	}
	d.uploads = append(d.uploads, path)
	if d.onUpload != nil {
		d.onUpload()
	}
	return nil
}

func (d *stepDriver) Text(context.Context, string) (string, error) { return "", nil }
func (d *stepDriver) Evaluate(context.Context, string, any) error  { return nil }
func (d *stepDriver) Screenshot(context.Context) ([]byte, error)   { return []byte("png"), nil }
func (d *stepDriver) Close(context.Context) error                  { return nil }

func newStepDeps(driver *stepDriver) *Deps {
	logger := zap.NewNop()
	return &Deps{
		Page:     driver,
		Resolver: resolver.New(driver, logger),
		Detector: state.NewDetector(logger),
		Logger:   logger,
	}
}

func stepContext() *Context {
	return NewContext(&config.Config{
		TargetURL:     "http://localhost",
		AdminEmail:    "admin@example.com",
		AdminPassword: "secret",
		AppJSONPath:   "/tmp/app.json",
		DatasourceURL: "http://host.docker.internal:8085",
		TimeoutMs:     90000,
	})
}

const (
	submitSel   = `button[type="submit"]`
	emailSel    = `input[name="email"]`
	passwordSel = `input[name="password"]`
)

func TestIdentityStepSignupThenLoginLoopBack(t *testing.T) {
	driver := &stepDriver{
		loc: "http://localhost/user/signup",
		visible: map[string]bool{
			emailSel:    true,
			passwordSel: true,
			submitSel:   true,
		},
	}
	// First submit lands on login (account exists), second one authenticates.
	driver.onClick = func(selector string) {
		if selector != submitSel {
			return
		}
		switch driver.loc {
		case "http://localhost/user/signup":
			driver.loc = "http://localhost/user/login"
		case "http://localhost/user/login":
			driver.loc = "http://localhost/applications"
		}
	}

	step := newIdentityStep(newStepDeps(driver))
	wctx := stepContext()

	require.NoError(t, step.Run(context.Background(), wctx))

	assert.Equal(t, []string{submitSel, submitSel}, driver.clicks,
		"both the signup and the login form must be submitted, once each")
	assert.Equal(t, []string{emailSel, passwordSel, emailSel, passwordSel}, driver.typedSeq,
		"credentials must be re-entered on the login form after the loop-back")
	assert.Equal(t, "admin@example.com", driver.typed[emailSel])
	assert.Equal(t, "secret", driver.typed[passwordSel])
	assert.Equal(t, "http://localhost/applications", driver.loc)
}

func TestIdentityStepLoginOnly(t *testing.T) {
	driver := &stepDriver{
		loc: "http://localhost/user/login",
		visible: map[string]bool{
			emailSel:    true,
			passwordSel: true,
			submitSel:   true,
		},
	}
	driver.onClick = func(string) { driver.loc = "http://localhost/applications" }

	step := newIdentityStep(newStepDeps(driver))
	require.NoError(t, step.Run(context.Background(), stepContext()))

	assert.Equal(t, []string{submitSel}, driver.clicks, "an existing account logs in with a single submission")
}

func TestIdentityStepPredicates(t *testing.T) {
	step := newIdentityStep(newStepDeps(&stepDriver{}))

	assert.True(t, step.CanRun(state.SignupRequired))
	assert.True(t, step.CanRun(state.LoginRequired))
	assert.False(t, step.CanRun(state.NotReady))
	assert.False(t, step.CanRun(state.Editor))

	assert.True(t, step.Done(state.AuthenticatedHome))
	assert.True(t, step.Done(state.Onboarding))
	assert.False(t, step.Done(state.LoginRequired))
}

func TestWaitReadyStepProbesThenNavigates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	driver := &stepDriver{
		loc:   "about:blank",
		navTo: "http://localhost/user/signup",
	}
	deps := newStepDeps(driver)
	deps.Probe = probe.New(probe.Config{URL: srv.URL, Attempts: 1, Interval: time.Millisecond}, zap.NewNop())

	step := newWaitReadyStep(deps)
	require.NoError(t, step.Run(context.Background(), stepContext()))
	assert.Equal(t, "http://localhost/user/signup", driver.loc)
}

func TestWaitReadyStepFailsWhenTargetNeverAnswers(t *testing.T) {
	driver := &stepDriver{loc: "about:blank"}
	deps := newStepDeps(driver)
	deps.Probe = probe.New(probe.Config{URL: "http://127.0.0.1:1", Attempts: 2, Interval: time.Millisecond}, zap.NewNop())

	step := newWaitReadyStep(deps)
	err := step.Run(context.Background(), stepContext())
	require.Error(t, err)
	assert.Equal(t, "ReadinessTimeout", Kind(err))
}

func TestOnboardingStepSkipsThroughQuestionnaire(t *testing.T) {
	skipSel := `[data-testid*="skip"]`
	driver := &stepDriver{
		loc:     "http://localhost/onboarding",
		visible: map[string]bool{skipSel: true},
	}
	driver.onClick = func(string) { driver.loc = "http://localhost/applications" }

	step := newOnboardingStep(newStepDeps(driver))
	require.NoError(t, step.Run(context.Background(), stepContext()))
	assert.Equal(t, []string{skipSel}, driver.clicks)
}

func TestOnboardingStepNotApplicableOffTheQuestionnaire(t *testing.T) {
	driver := &stepDriver{loc: "http://localhost/applications"}
	step := newOnboardingStep(newStepDeps(driver))

	err := step.Run(context.Background(), stepContext())
	assert.True(t, errors.Is(err, ErrNotApplicable))
	assert.Empty(t, driver.clicks)
}

func TestImportStepOrderingInvariant(t *testing.T) {
	step := newImportStep(newStepDeps(&stepDriver{}))

	// Import must never run before an authenticated session exists.
	assert.False(t, step.CanRun(state.NotReady))
	assert.False(t, step.CanRun(state.SignupRequired))
	assert.False(t, step.CanRun(state.LoginRequired))
	assert.False(t, step.CanRun(state.Onboarding))
	assert.True(t, step.CanRun(state.AuthenticatedHome))
	assert.True(t, step.CanRun(state.Editor))
}

func TestImportStepUploadsBundleAndRewritesDatasource(t *testing.T) {
	menuSel := `[data-testid="t--workspace-action-btn"]`
	optionSel := `[data-testid="t--workspace-import-app"]`
	fileSel := `input[type="file"][accept*="json"]`
	dsURLSel := `input[name*="url"][data-testid*="datasource"]`
	dsSaveSel := `[data-testid="t--datasource-save"]`

	driver := &stepDriver{
		loc: "http://localhost/applications",
		visible: map[string]bool{
			menuSel:   true,
			optionSel: true,
			fileSel:   true,
			dsURLSel:  true,
			dsSaveSel: true,
		},
	}
	// A successful import opens the new application in the editor.
	driver.onUpload = func() { driver.loc = "http://localhost/app/imported/page-1/edit" }

	step := newImportStep(newStepDeps(driver))
	wctx := stepContext()
	require.NoError(t, step.Run(context.Background(), wctx))

	assert.Equal(t, []string{wctx.Cfg.AppJSONPath}, driver.uploads)
	assert.Equal(t, []string{menuSel, optionSel, dsSaveSel}, driver.clicks)
	assert.Equal(t, wctx.Cfg.DatasourceURL, driver.typed[dsURLSel])
}

func TestImportStepReportsUploadFailure(t *testing.T) {
	driver := &stepDriver{
		loc: "http://localhost/applications",
		visible: map[string]bool{
			`[data-testid="t--workspace-action-btn"]`:  true,
			`[data-testid="t--workspace-import-app"]`:  true,
			`input[type="file"][accept*="json"]`:       true,
		},
		uploadErr: errors.New("file rejected"),
	}

	step := newImportStep(newStepDeps(driver))
	err := step.Run(context.Background(), stepContext())
	require.Error(t, err)

	var upload *UploadFailureError
	require.ErrorAs(t, err, &upload)
	assert.Equal(t, "/tmp/app.json", upload.Path)
	assert.Equal(t, "UploadFailure", Kind(err))
}

func TestResolveURLStepStripsEditorSuffix(t *testing.T) {
	driver := &stepDriver{loc: "http://localhost/app/my-app/page-abc123/edit?onboarding=1#widgets"}
	step := newResolveURLStep(newStepDeps(driver))
	wctx := stepContext()

	require.NoError(t, step.Run(context.Background(), wctx))
	assert.Equal(t, "http://localhost/app/my-app/page-abc123", wctx.AppURL)
}

func TestResolveURLStepIsIdempotent(t *testing.T) {
	driver := &stepDriver{loc: "http://localhost/app/other/page/edit"}
	step := newResolveURLStep(newStepDeps(driver))
	wctx := stepContext()
	wctx.AppURL = "http://localhost/app/first/page-1"

	require.NoError(t, step.Run(context.Background(), wctx))
	assert.Equal(t, "http://localhost/app/first/page-1", wctx.AppURL, "an already-resolved URL must not be overwritten")
}

func TestCanonicalAppURL(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"editor url", "http://localhost/app/slug/page-1/edit", "http://localhost/app/slug/page-1", false},
		{"editor url with query", "http://localhost/app/slug/page-1/edit?a=1", "http://localhost/app/slug/page-1", false},
		{"editor sub-route", "http://localhost/app/slug/page-1/edit/widgets/w1", "http://localhost/app/slug/page-1", false},
		{"already canonical", "http://localhost/app/slug/page-1", "http://localhost/app/slug/page-1", false},
		{"trailing slash", "http://localhost/app/slug/page-1/", "http://localhost/app/slug/page-1", false},
		{"no application path", "http://localhost/", "", true},
		{"empty", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := canonicalAppURL(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeployStepClicksThroughConfirmation(t *testing.T) {
	deploySel := `[data-testid="t--application-publish-btn"]`
	confirmSel := `[data-testid="t--deploy-popup-option"]`

	driver := &stepDriver{
		loc: "http://localhost/app/slug/page-1/edit",
		visible: map[string]bool{
			deploySel:  true,
			confirmSel: true,
		},
	}

	step := newDeployStep(newStepDeps(driver))
	require.NoError(t, step.Run(context.Background(), stepContext()))

	assert.Equal(t, []string{deploySel, confirmSel}, driver.clicks)
	assert.Equal(t, state.Deployed, step.Advance(state.Editor))
}

func TestPipelineOrder(t *testing.T) {
	steps := Pipeline(newStepDeps(&stepDriver{}))
	var names []string
	for _, s := range steps {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"wait-ready",
		"establish-identity",
		"onboarding",
		"import-configuration",
		"resolve-app-url",
		"deploy",
	}, names)
}
