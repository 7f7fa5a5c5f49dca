// File: internal/diag/trace.go
package diag

import (
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Event is one entry in the execution trace: an action the engine took, a
// network request the page made, or a state classification.
type Event struct {
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
}

// Trace is the ordered timeline of a run, kept in memory and finalized to
// a single JSON artifact for offline replay. Appends are cheap and safe
// from the CDP event listener goroutine.
type Trace struct {
	mu      sync.Mutex
	runID   string
	started time.Time
	events  []Event
}

// NewTrace starts a trace for the given run.
func NewTrace(runID string) *Trace {
	return &Trace{
		runID:   runID,
		started: time.Now(),
		events:  make([]Event, 0, 256),
	}
}

// Record appends an event to the timeline.
func (t *Trace) Record(kind, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, Event{Time: time.Now(), Kind: kind, Detail: detail})
}

// Len returns the number of recorded events.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

type traceDocument struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Events   []Event   `json:"events"`
}

// WriteFile serializes the timeline to path.
func (t *Trace) WriteFile(path string) error {
	t.mu.Lock()
	doc := traceDocument{
		RunID:    t.runID,
		Started:  t.started,
		Finished: time.Now(),
		Events:   append([]Event(nil), t.events...),
	}
	t.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
