// File: internal/workflow/step_onboarding.go
package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// onboardingStep walks the post-signup questionnaire. The questionnaire's
// answers are cosmetic and have no effect on later steps, so the step
// prefers the skip control when one exists and otherwise clicks through
// with defaults. The target doesn't always show onboarding at all; when
// its markers never appear the step reports ErrNotApplicable and the run
// proceeds.
type onboardingStep struct {
	deps *Deps
}

func newOnboardingStep(deps *Deps) *onboardingStep {
	return &onboardingStep{deps: deps}
}

func (s *onboardingStep) Name() string { return "onboarding" }

func (s *onboardingStep) CanRun(cur state.State) bool { return cur == state.Onboarding }

func (s *onboardingStep) Done(cur state.State) bool {
	return cur.AtLeast(state.AuthenticatedHome)
}

func (s *onboardingStep) Verify(cur state.State) bool {
	return cur != state.Onboarding && cur.Authenticated()
}

func (s *onboardingStep) Advance(observed state.State) state.State { return observed }

func (s *onboardingStep) Optional() bool { return true }

// maxOnboardingScreens bounds the click-through; the questionnaire has a
// handful of screens and anything past this is a loop.
const maxOnboardingScreens = 8

func (s *onboardingStep) Run(ctx context.Context, wctx *Context) error {
	const controlTimeout = 10 * time.Second

	for screen := 0; screen < maxOnboardingScreens; screen++ {
		cur := s.deps.Detector.Snapshot(ctx, s.deps.Page)
		if cur != state.Onboarding {
			if screen == 0 {
				return ErrNotApplicable
			}
			return nil
		}

		// Prefer the skip control; fall back to advancing with defaults.
		control, err := s.deps.Resolver.Resolve(ctx, onboardingSkipIntent(), controlTimeout)
		if err != nil {
			var notFound *resolver.ElementNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
			control, err = s.deps.Resolver.Resolve(ctx, onboardingAdvanceIntent(), controlTimeout)
			if err != nil {
				if errors.As(err, &notFound) && screen == 0 {
					return ErrNotApplicable
				}
				return err
			}
		}

		if err := s.deps.Page.Click(ctx, control.Selector); err != nil {
			return err
		}
		s.deps.Logger.Debug("Advanced onboarding screen", zap.Int("screen", screen+1))

		// Give the page a beat to transition before re-classifying.
		s.deps.awaitState(ctx, func(st state.State) bool { return st != state.NotReady })
	}

	s.deps.Logger.Warn("Onboarding did not conclude within the screen budget")
	return nil
}
