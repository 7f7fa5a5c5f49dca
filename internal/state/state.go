// File: internal/state/state.go
package state

// State is the orchestrator's classification of the target application's
// current setup progress. Transitions are monotonic forward, with two
// designed loop-backs: a signup submission may land on LoginRequired (the
// target redirecting an existing account, not a failure), and Onboarding
// is optional and may never be observed at all.
type State int

const (
	// NotReady means the page could not be classified yet. It is the
	// "keep polling" state, never an error. Transient loading screens and
	// blank pages land here.
	NotReady State = iota
	SignupRequired
	LoginRequired
	Onboarding
	AuthenticatedHome
	Editor
	Imported
	Deployed
	Failed
	Done
)

var stateNames = map[State]string{
	NotReady:          "NOT_READY",
	SignupRequired:    "SIGNUP_REQUIRED",
	LoginRequired:     "LOGIN_REQUIRED",
	Onboarding:        "ONBOARDING",
	AuthenticatedHome: "AUTHENTICATED_HOME",
	Editor:            "EDITOR",
	Imported:          "IMPORTED",
	Deployed:          "DEPLOYED",
	Failed:            "FAILED",
	Done:              "DONE",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether the workflow can make no further progress.
func (s State) Terminal() bool {
	return s == Failed || s == Done
}

// Authenticated reports whether the state implies an established admin
// session. Onboarding counts: the target only shows its questionnaire to a
// logged-in user.
func (s State) Authenticated() bool {
	switch s {
	case Onboarding, AuthenticatedHome, Editor, Imported, Deployed, Done:
		return true
	default:
		return false
	}
}

// AtLeast reports whether the state has progressed to want or beyond.
// Failed never satisfies any progress check.
func (s State) AtLeast(want State) bool {
	if s == Failed {
		return false
	}
	return s >= want
}
