// File: internal/workflow/step_import.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// importStep uploads the configuration bundle through the target's import
// dialog and, once the imported application opens in the editor, rewrites
// the datasource endpoint to the configured backend.
//
// The ordering invariant is enforced by CanRun: import never executes
// unless the session is on the authenticated home or already in an editor.
type importStep struct {
	deps *Deps
}

func newImportStep(deps *Deps) *importStep {
	return &importStep{deps: deps}
}

func (s *importStep) Name() string { return "import-configuration" }

func (s *importStep) CanRun(cur state.State) bool {
	return cur == state.AuthenticatedHome || cur == state.Editor
}

// Done never matches a live classification: the detector cannot see
// "imported" in the DOM, so this step always runs. Re-running an import on
// a re-entered run creates a second copy rather than corrupting the first.
func (s *importStep) Done(cur state.State) bool { return cur.AtLeast(state.Imported) }

func (s *importStep) Verify(cur state.State) bool { return cur.AtLeast(state.Editor) }

func (s *importStep) Advance(state.State) state.State { return state.Imported }

func (s *importStep) Optional() bool { return false }

func (s *importStep) Run(ctx context.Context, wctx *Context) error {
	cur := s.deps.Detector.Snapshot(ctx, s.deps.Page)

	// Import starts from the applications listing. An editor left over from
	// a previous partial run is navigated away from first.
	if cur != state.AuthenticatedHome {
		home := strings.TrimRight(wctx.Cfg.TargetURL, "/") + "/applications"
		if err := s.deps.Page.Navigate(ctx, home); err != nil {
			return fmt.Errorf("could not return to the applications listing: %w", err)
		}
		s.deps.awaitState(ctx, func(st state.State) bool { return st == state.AuthenticatedHome })
	}

	if err := s.openImportDialog(ctx); err != nil {
		return err
	}

	// Locate and feed the file input. Both a missing input and a rejected
	// file are upload failures, distinct from ordinary resolution misses.
	input, err := s.deps.Resolver.Resolve(ctx, importFileInputIntent(), fieldResolveTimeout)
	if err != nil {
		return &UploadFailureError{Path: wctx.Cfg.AppJSONPath, Err: err}
	}
	if err := s.deps.Page.Upload(ctx, input.Selector, wctx.Cfg.AppJSONPath); err != nil {
		return &UploadFailureError{Path: wctx.Cfg.AppJSONPath, Err: err}
	}
	s.deps.Logger.Info("Uploaded configuration bundle", zap.String("path", wctx.Cfg.AppJSONPath))

	// A successful import opens the imported application in the editor.
	settled := s.deps.awaitState(ctx, func(st state.State) bool { return st == state.Editor })
	if settled != state.Editor {
		return nil // verification reports the state it settled on
	}

	s.rewriteDatasource(ctx, wctx)
	return nil
}

// openImportDialog drives the menu path to the file chooser.
func (s *importStep) openImportDialog(ctx context.Context) error {
	menu, err := s.deps.Resolver.Resolve(ctx, importMenuIntent(), fieldResolveTimeout)
	if err != nil {
		return err
	}
	if err := s.deps.Page.Click(ctx, menu.Selector); err != nil {
		return err
	}

	option, err := s.deps.Resolver.Resolve(ctx, importOptionIntent(), fieldResolveTimeout)
	if err != nil {
		return err
	}
	return s.deps.Page.Click(ctx, option.Selector)
}

// rewriteDatasource points the imported application's datasource at the
// configured backend. Recent target versions prompt for missing datasource
// credentials right after import; older ones don't, so an absent pane is
// logged and tolerated.
func (s *importStep) rewriteDatasource(ctx context.Context, wctx *Context) {
	const paneTimeout = 15 * time.Second

	field, err := s.deps.Resolver.Resolve(ctx, datasourceURLIntent(), paneTimeout)
	if err != nil {
		var notFound *resolver.ElementNotFoundError
		if errors.As(err, &notFound) {
			s.deps.Logger.Info("No datasource pane after import; leaving bundled endpoint in place")
		} else {
			s.deps.Logger.Warn("Datasource pane lookup failed", zap.Error(err))
		}
		return
	}

	if err := s.deps.Page.Type(ctx, field.Selector, wctx.Cfg.DatasourceURL); err != nil {
		s.deps.Logger.Warn("Could not write datasource URL", zap.Error(err))
		return
	}

	save, err := s.deps.Resolver.Resolve(ctx, datasourceSaveIntent(), paneTimeout)
	if err != nil {
		s.deps.Logger.Warn("Datasource save control not found", zap.Error(err))
		return
	}
	if err := s.deps.Page.Click(ctx, save.Selector); err != nil {
		s.deps.Logger.Warn("Datasource save click failed", zap.Error(err))
		return
	}
	s.deps.Logger.Info("Rewrote datasource endpoint", zap.String("url", wctx.Cfg.DatasourceURL))
}
