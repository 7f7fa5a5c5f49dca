// File: internal/workflow/orchestrator.go
// Description: Sequences the provisioning steps against the single browser
// session. The orchestrator owns the WorkflowContext for the run's
// duration; steps receive it by reference and results are merged between
// steps, never concurrently.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprov/internal/browser"
	"github.com/xkilldash9x/uiprov/internal/diag"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// Orchestrator runs the fixed step pipeline with fail-fast semantics: the
// first step error aborts the whole run after exactly one diagnostic
// capture. There is no step-level recovery and no partial success.
type Orchestrator struct {
	logger   *zap.Logger
	page     browser.Driver
	detector *state.Detector
	recorder *diag.Recorder
	steps    []Step
}

// New creates an Orchestrator with its dependencies injected.
func New(
	logger *zap.Logger,
	page browser.Driver,
	detector *state.Detector,
	recorder *diag.Recorder,
	steps []Step,
) (*Orchestrator, error) {
	if logger == nil || page == nil || detector == nil || recorder == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("orchestrator needs at least one step")
	}
	return &Orchestrator{
		logger:   logger.Named("orchestrator"),
		page:     page,
		detector: detector,
		recorder: recorder,
		steps:    steps,
	}, nil
}

// Run executes the pipeline. It returns the final state: Done on success,
// Failed with the fatal error otherwise.
func (o *Orchestrator) Run(ctx context.Context, wctx *Context) (state.State, error) {
	o.logger.Info("Starting provisioning run",
		zap.String("run_id", wctx.RunID),
		zap.String("target", wctx.Cfg.TargetURL),
	)

	for _, step := range o.steps {
		cur := o.classify(ctx)

		// Idempotent re-entry: a step whose success predicate already holds
		// is a no-op, recorded but never executed.
		if step.Done(cur) {
			o.logger.Info("Skipping step; postcondition already satisfied",
				zap.String("step", step.Name()),
				zap.String("state", cur.String()),
			)
			o.record(wctx, step, OutcomeSkipped, time.Now(), "", nil)
			if cur.AtLeast(wctx.State) {
				wctx.State = cur
			}
			continue
		}

		if !step.CanRun(cur) {
			if step.Optional() {
				o.logger.Info("Skipping optional step; precondition not met",
					zap.String("step", step.Name()),
					zap.String("state", cur.String()),
				)
				o.record(wctx, step, OutcomeSkipped, time.Now(), "", nil)
				continue
			}
			err := &UnexpectedStateError{Step: step.Name(), Got: cur}
			return o.fail(ctx, wctx, step, err)
		}

		started := time.Now()
		o.logger.Info("Running step",
			zap.String("step", step.Name()),
			zap.String("state", cur.String()),
		)

		timeout := wctx.Cfg.Timeout()
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		err := step.Run(stepCtx, wctx)
		deadlineHit := stepCtx.Err() == context.DeadlineExceeded
		cancel()

		if errors.Is(err, ErrNotApplicable) && step.Optional() {
			o.logger.Info("Step not applicable to this target", zap.String("step", step.Name()))
			o.record(wctx, step, OutcomeSkipped, started, "", nil)
			continue
		}
		if err != nil {
			if deadlineHit && ctx.Err() == nil {
				err = &StepTimeoutError{Step: step.Name(), Timeout: timeout, Err: err}
			}
			return o.fail(ctx, wctx, step, err)
		}

		after := o.classify(ctx)
		if !step.Verify(after) {
			return o.fail(ctx, wctx, step, &VerificationFailureError{Step: step.Name(), Got: after})
		}

		wctx.State = step.Advance(after)
		o.record(wctx, step, OutcomeSuccess, started, "", nil)
		o.logger.Info("Step succeeded",
			zap.String("step", step.Name()),
			zap.String("state", wctx.State.String()),
			zap.Duration("duration", time.Since(started)),
		)
	}

	wctx.State = state.Done
	o.summarize(wctx)
	return state.Done, nil
}

// classify takes a state snapshot and feeds it to the trace timeline.
func (o *Orchestrator) classify(ctx context.Context) state.State {
	cur := o.detector.Snapshot(ctx, o.page)
	if trace := o.recorder.Trace(); trace != nil {
		trace.Record("state", cur.String())
	}
	return cur
}

// fail performs the single diagnostic capture, records the failure, and
// returns the fatal error wrapped with the step name.
func (o *Orchestrator) fail(ctx context.Context, wctx *Context, step Step, err error) (state.State, error) {
	artifact := o.recorder.Capture(ctx, step.Name())
	o.record(wctx, step, OutcomeFailure, time.Now(), artifact, err)
	wctx.State = state.Failed

	o.logger.Error("Step failed; aborting run",
		zap.String("step", step.Name()),
		zap.String("kind", Kind(err)),
		zap.String("artifact", artifact),
		zap.Error(err),
	)
	o.summarize(wctx)
	return state.Failed, fmt.Errorf("step %q failed: %w", step.Name(), err)
}

func (o *Orchestrator) record(wctx *Context, step Step, outcome Outcome, started time.Time, artifact string, err error) {
	result := StepResult{
		Step:       step.Name(),
		Outcome:    outcome,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Artifact:   artifact,
	}
	if err != nil {
		result.Error = err.Error()
	}
	wctx.Results = append(wctx.Results, result)
}

// summarize logs the per-step outcome table for the operator.
func (o *Orchestrator) summarize(wctx *Context) {
	for _, r := range wctx.Results {
		o.logger.Info("Step summary",
			zap.String("step", r.Step),
			zap.String("outcome", string(r.Outcome)),
			zap.Duration("duration", r.Duration()),
		)
	}
	o.logger.Info("Run finished",
		zap.String("run_id", wctx.RunID),
		zap.String("final_state", wctx.State.String()),
		zap.String("app_url", wctx.AppURL),
	)
}
