// File: internal/workflow/step_identity.go
package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
)

const fieldResolveTimeout = 20 * time.Second

// identityStep establishes the administrator identity. On a fresh target it
// signs up; on a target that already has an administrator it logs in. A
// signup submission that redirects to the login page is the designed
// loop-back, not a failure: the step follows it with a login attempt.
//
// Submissions are single-shot. Re-submitting a partially failed signup can
// corrupt the target (duplicate-account errors), so any failure here ends
// the run.
type identityStep struct {
	deps *Deps
}

func newIdentityStep(deps *Deps) *identityStep {
	return &identityStep{deps: deps}
}

func (s *identityStep) Name() string { return "establish-identity" }

func (s *identityStep) CanRun(cur state.State) bool {
	return cur == state.SignupRequired || cur == state.LoginRequired
}

func (s *identityStep) Done(cur state.State) bool { return cur.Authenticated() }

func (s *identityStep) Verify(cur state.State) bool { return cur.Authenticated() }

func (s *identityStep) Advance(observed state.State) state.State { return observed }

func (s *identityStep) Optional() bool { return false }

func (s *identityStep) Run(ctx context.Context, wctx *Context) error {
	cur := s.deps.Detector.Snapshot(ctx, s.deps.Page)

	if cur == state.SignupRequired {
		if err := s.submitForm(ctx, wctx, signupSubmitIntent()); err != nil {
			return fmt.Errorf("signup submission failed: %w", err)
		}

		// Wait for the target to move off the signup page, then decide.
		cur = s.deps.awaitState(ctx, func(st state.State) bool {
			return st != state.SignupRequired && st != state.NotReady
		})
		if cur.Authenticated() {
			return nil
		}
		if cur != state.LoginRequired {
			// Still on signup or somewhere unclassifiable; verification
			// will report the state it settled on.
			return nil
		}
		s.deps.Logger.Info("Signup redirected to login; account already exists",
			zap.String("email", wctx.Cfg.AdminEmail))
	}

	if err := s.submitForm(ctx, wctx, loginSubmitIntent()); err != nil {
		return fmt.Errorf("login submission failed: %w", err)
	}

	s.deps.awaitState(ctx, func(st state.State) bool {
		return st != state.LoginRequired && st != state.NotReady
	})
	return nil
}

// submitForm fills the email and password fields and submits exactly once.
func (s *identityStep) submitForm(ctx context.Context, wctx *Context, submit resolver.Intent) error {
	email, err := s.deps.Resolver.Resolve(ctx, emailFieldIntent(), fieldResolveTimeout)
	if err != nil {
		return err
	}
	if err := s.deps.Page.Type(ctx, email.Selector, wctx.Cfg.AdminEmail); err != nil {
		return err
	}

	password, err := s.deps.Resolver.Resolve(ctx, passwordFieldIntent(), fieldResolveTimeout)
	if err != nil {
		return err
	}
	if err := s.deps.Page.Type(ctx, password.Selector, wctx.Cfg.AdminPassword); err != nil {
		return err
	}

	button, err := s.deps.Resolver.Resolve(ctx, submit, fieldResolveTimeout)
	if err != nil {
		return err
	}
	return s.deps.Page.Click(ctx, button.Selector)
}
