// File: internal/diag/recorder.go
package diag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Screenshotter is the slice of the browser driver the recorder needs.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Recorder captures failure artifacts: a full-page screenshot per fatal
// error, and (when tracing is enabled) the execution trace of the whole
// run. It is side-effect only and never returns an error: a failed capture
// must not mask the failure that triggered it.
type Recorder struct {
	page   Screenshotter
	dir    string
	logger *zap.Logger
	trace  *Trace
}

// NewRecorder creates a recorder writing into dir. trace may be nil when
// trace recording is disabled.
func NewRecorder(page Screenshotter, dir string, logger *zap.Logger, trace *Trace) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		page:   page,
		dir:    dir,
		logger: logger.Named("diag"),
		trace:  trace,
	}
}

// Capture saves a screenshot tagged with the label and a timestamp and
// returns the artifact path, or "" when the capture itself failed. The
// artifacts directory is created lazily so a clean run leaves no empty
// directory behind.
func (r *Recorder) Capture(ctx context.Context, label string) string {
	if r.page == nil {
		return ""
	}
	if r.trace != nil {
		r.trace.Record("capture", label)
	}

	data, err := r.page.Screenshot(ctx)
	if err != nil {
		r.logger.Warn("Screenshot capture failed", zap.String("label", label), zap.Error(err))
		return ""
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.logger.Warn("Could not create artifacts directory", zap.String("dir", r.dir), zap.Error(err))
		return ""
	}

	name := fmt.Sprintf("%s-%s.png", sanitize(label), time.Now().Format("20060102-150405"))
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.logger.Warn("Could not write screenshot", zap.String("path", path), zap.Error(err))
		return ""
	}

	r.logger.Info("Saved diagnostic screenshot", zap.String("path", path))
	return path
}

// Finalize writes the execution trace artifact and returns its path, or ""
// when tracing is disabled or the write failed.
func (r *Recorder) Finalize() string {
	if r.trace == nil {
		return ""
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.logger.Warn("Could not create artifacts directory", zap.String("dir", r.dir), zap.Error(err))
		return ""
	}
	path := filepath.Join(r.dir, "trace.json")
	if err := r.trace.WriteFile(path); err != nil {
		r.logger.Warn("Could not write execution trace", zap.String("path", path), zap.Error(err))
		return ""
	}
	r.logger.Info("Saved execution trace", zap.String("path", path))
	return path
}

// Trace exposes the underlying trace for action recording; nil when
// tracing is disabled.
func (r *Recorder) Trace() *Trace {
	return r.trace
}

func sanitize(label string) string {
	label = strings.TrimSpace(strings.ToLower(label))
	var b strings.Builder
	for _, c := range label {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		case c == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "capture"
	}
	return b.String()
}
