// File: internal/workflow/context.go
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/uiprov/internal/config"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// Outcome is the result classification of one step.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeSkipped Outcome = "SKIPPED"
)

// StepResult records one step's outcome for the run summary.
type StepResult struct {
	Step       string
	Outcome    Outcome
	StartedAt  time.Time
	FinishedAt time.Time
	// Artifact is the diagnostic screenshot path for failures, "" otherwise.
	Artifact string
	Error    string
}

// Duration returns how long the step ran.
func (r StepResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Context is the configuration and accumulated progress of one provisioning
// run. It is owned exclusively by the orchestrator, passed by reference to
// each step, and updated only between steps; nothing reads or writes it
// concurrently. It lives for exactly one run and is discarded at exit.
type Context struct {
	RunID string
	Cfg   *config.Config

	// State is the last classified workflow state, advanced by the
	// orchestrator after each successful step.
	State state.State

	// AppURL is the canonical application URL discovered during URL
	// resolution (the target assigns application IDs dynamically on import).
	AppURL string

	// Results accumulates one entry per pipeline step, in order.
	Results []StepResult
}

// NewContext creates the context for a fresh run.
func NewContext(cfg *config.Config) *Context {
	return &Context{
		RunID: uuid.New().String(),
		Cfg:   cfg,
		State: state.NotReady,
	}
}
