// File: internal/workflow/step_deploy.go
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// deployStep publishes the imported application so the canonical URL
// actually serves it. Not every target version exposes a deploy control in
// the same place; when none resolves the step is recorded as skipped and
// the operator deploys by hand.
type deployStep struct {
	deps *Deps
}

func newDeployStep(deps *Deps) *deployStep {
	return &deployStep{deps: deps}
}

func (s *deployStep) Name() string { return "deploy" }

func (s *deployStep) CanRun(cur state.State) bool { return cur == state.Editor }

func (s *deployStep) Done(cur state.State) bool { return cur.AtLeast(state.Deployed) }

func (s *deployStep) Verify(cur state.State) bool { return cur.AtLeast(state.Editor) }

func (s *deployStep) Advance(state.State) state.State { return state.Deployed }

func (s *deployStep) Optional() bool { return true }

func (s *deployStep) Run(ctx context.Context, wctx *Context) error {
	const controlTimeout = 15 * time.Second

	button, err := s.deps.Resolver.Resolve(ctx, deployButtonIntent(), controlTimeout)
	if err != nil {
		var notFound *resolver.ElementNotFoundError
		if errors.As(err, &notFound) {
			return ErrNotApplicable
		}
		return err
	}
	if err := s.deps.Page.Click(ctx, button.Selector); err != nil {
		return err
	}

	// Some versions interpose a confirmation popup; its absence is fine.
	confirm, err := s.deps.Resolver.Resolve(ctx, deployConfirmIntent(), 5*time.Second)
	if err == nil {
		if err := s.deps.Page.Click(ctx, confirm.Selector); err != nil {
			return err
		}
	}

	// Deployment is asynchronous on the target side; wait for the editor to
	// settle rather than for a completion signal the UI doesn't expose.
	s.deps.awaitState(ctx, func(st state.State) bool { return st == state.Editor })
	return nil
}
