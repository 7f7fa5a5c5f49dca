// File: internal/workflow/step_resolveurl.go
package workflow

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/state"
)

// resolveURLStep captures the canonical application URL. The target assigns
// application and page IDs dynamically at import time, so the only way to
// learn the final URL is to read it off the editor's address bar and strip
// the editing suffix.
type resolveURLStep struct {
	deps *Deps
}

func newResolveURLStep(deps *Deps) *resolveURLStep {
	return &resolveURLStep{deps: deps}
}

func (s *resolveURLStep) Name() string { return "resolve-app-url" }

func (s *resolveURLStep) CanRun(cur state.State) bool {
	return cur == state.Editor || cur.AtLeast(state.Imported)
}

func (s *resolveURLStep) Done(state.State) bool { return false }

func (s *resolveURLStep) Verify(cur state.State) bool { return cur.AtLeast(state.Editor) }

func (s *resolveURLStep) Advance(state.State) state.State { return state.Imported }

func (s *resolveURLStep) Optional() bool { return false }

func (s *resolveURLStep) Run(ctx context.Context, wctx *Context) error {
	if wctx.AppURL != "" {
		return nil
	}

	loc, err := s.deps.Page.Location(ctx)
	if err != nil {
		return fmt.Errorf("could not read editor location: %w", err)
	}

	appURL, err := canonicalAppURL(loc)
	if err != nil {
		return err
	}

	wctx.AppURL = appURL
	s.deps.Logger.Info("Resolved canonical application URL", zap.String("url", appURL))
	return nil
}

// canonicalAppURL turns an editor URL into the viewer URL the operator will
// hand out: the same path with the editing suffix removed.
func canonicalAppURL(editorURL string) (string, error) {
	u, err := url.Parse(editorURL)
	if err != nil {
		return "", fmt.Errorf("editor URL %q is not parseable: %w", editorURL, err)
	}
	if u.Path == "" || u.Path == "/" {
		return "", fmt.Errorf("editor URL %q carries no application path", editorURL)
	}

	path := u.Path
	if idx := strings.Index(path, "/edit"); idx >= 0 {
		path = path[:idx]
	}
	u.Path = strings.TrimRight(path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
