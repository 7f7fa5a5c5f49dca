// File: internal/workflow/errors.go
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/uiprov/internal/probe"
	"github.com/xkilldash9x/uiprov/internal/resolver"
	"github.com/xkilldash9x/uiprov/internal/state"
)

// ErrNotApplicable is returned by an optional step whose trigger never
// appeared (an onboarding questionnaire the target skipped, a deploy
// control that isn't there). The orchestrator records the step as skipped
// instead of failing the run.
var ErrNotApplicable = errors.New("step not applicable to this target")

// StepTimeoutError means a step's action exceeded its allotted time.
type StepTimeoutError struct {
	Step    string
	Timeout time.Duration
	Err     error
}

func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %q exceeded its %s budget", e.Step, e.Timeout)
}

func (e *StepTimeoutError) Unwrap() error { return e.Err }

// UnexpectedStateError means the detector produced a state the current step
// cannot act on.
type UnexpectedStateError struct {
	Step string
	Got  state.State
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf("step %q cannot run from state %s", e.Step, e.Got)
}

// UploadFailureError means the file input could not be located or did not
// accept the configuration bundle.
type UploadFailureError struct {
	Path string
	Err  error
}

func (e *UploadFailureError) Error() string {
	return fmt.Sprintf("failed to upload configuration bundle %q: %v", e.Path, e.Err)
}

func (e *UploadFailureError) Unwrap() error { return e.Err }

// VerificationFailureError means a step's action appeared to run but the
// expected postcondition state was not reached.
type VerificationFailureError struct {
	Step string
	Got  state.State
}

func (e *VerificationFailureError) Error() string {
	return fmt.Sprintf("step %q finished but left the target in state %s", e.Step, e.Got)
}

// Kind names the taxonomy bucket of a fatal error for operator output.
func Kind(err error) string {
	var (
		readiness    *probe.ReadinessTimeoutError
		notFound     *resolver.ElementNotFoundError
		stepTimeout  *StepTimeoutError
		unexpected   *UnexpectedStateError
		upload       *UploadFailureError
		verification *VerificationFailureError
	)
	switch {
	case errors.As(err, &readiness):
		return "ReadinessTimeout"
	case errors.As(err, &upload):
		return "UploadFailure"
	case errors.As(err, &notFound):
		return "ElementNotFound"
	case errors.As(err, &stepTimeout):
		return "StepTimeout"
	case errors.As(err, &unexpected):
		return "UnexpectedState"
	case errors.As(err, &verification):
		return "VerificationFailure"
	default:
		return "Internal"
	}
}
