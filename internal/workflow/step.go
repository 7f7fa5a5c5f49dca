// File: internal/workflow/step.go
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/browser"
	"github.com/xkilldash9x/uiprov/internal/probe"
	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// Step is one named unit of orchestration logic. The orchestrator consults
// the predicates against the detector's classification: Done decides
// whether the step can be skipped entirely (idempotent re-entry), CanRun
// guards the precondition, Verify checks the postcondition after Run, and
// Advance maps the observed page state to the logical workflow state the
// context should carry forward.
//
// Every step failure is fatal to the run. Optional steps may instead
// return ErrNotApplicable when their trigger never appeared.
type Step interface {
	Name() string
	CanRun(s state.State) bool
	Done(s state.State) bool
	Verify(s state.State) bool
	Advance(observed state.State) state.State
	Optional() bool
	Run(ctx context.Context, wctx *Context) error
}

// Deps bundles the collaborators the concrete steps share. All of them
// operate on the single page session owned by the orchestrator.
type Deps struct {
	Page     browser.Driver
	Resolver *resolver.Resolver
	Detector *state.Detector
	Probe    *probe.Probe
	Logger   *zap.Logger
}

// awaitState polls the detector until pred matches the classification or
// the context ends, returning the last observed state. Suspension happens
// only here and in the resolver's polling; steps contain no bare sleeps.
func (d *Deps) awaitState(ctx context.Context, pred func(state.State) bool) state.State {
	const interval = 500 * time.Millisecond

	last := d.Detector.Snapshot(ctx, d.Page)
	for !pred(last) {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last
		case <-timer.C:
		}
		last = d.Detector.Snapshot(ctx, d.Page)
	}
	return last
}

// Pipeline assembles the fixed, ordered step sequence of a provisioning
// run. The order is the workflow's state machine; it never varies.
func Pipeline(deps *Deps) []Step {
	return []Step{
		newWaitReadyStep(deps),
		newIdentityStep(deps),
		newOnboardingStep(deps),
		newImportStep(deps),
		newResolveURLStep(deps),
		newDeployStep(deps),
	}
}
