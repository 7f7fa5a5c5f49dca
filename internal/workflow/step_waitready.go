// File: internal/workflow/step_waitready.go
package workflow

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/uiprov/internal/state"
)

// waitReadyStep blocks until the target's health signal answers, then
// performs the first navigation. Everything downstream assumes a page that
// at least renders.
type waitReadyStep struct {
	deps *Deps
}

func newWaitReadyStep(deps *Deps) *waitReadyStep {
	return &waitReadyStep{deps: deps}
}

func (s *waitReadyStep) Name() string { return "wait-ready" }

func (s *waitReadyStep) CanRun(state.State) bool { return true }

// Done skips the probe when the page already classifies, which only
// happens on re-entry into a live session.
func (s *waitReadyStep) Done(cur state.State) bool { return cur != state.NotReady }

func (s *waitReadyStep) Verify(cur state.State) bool { return cur != state.NotReady }

func (s *waitReadyStep) Advance(observed state.State) state.State { return observed }

func (s *waitReadyStep) Optional() bool { return false }

func (s *waitReadyStep) Run(ctx context.Context, wctx *Context) error {
	if err := s.deps.Probe.Wait(ctx); err != nil {
		return err
	}

	if err := s.deps.Page.Navigate(ctx, wctx.Cfg.TargetURL); err != nil {
		return fmt.Errorf("initial navigation failed: %w", err)
	}

	// The target may redirect through a couple of loading screens before
	// settling on signup/login/home; wait for something classifiable.
	s.deps.awaitState(ctx, func(cur state.State) bool { return cur != state.NotReady })
	return nil
}
