// File: internal/probe/probe.go
//
// Readiness polling is a distinct retry discipline from anything in the
// workflow itself: a fixed attempt cap times a fixed sleep interval, no
// backoff growth, so the total wait is predictable. It runs exactly once,
// before the browser touches the target. Form submissions inside steps are
// never retried; a failed submission is a workflow-ending error.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ReadinessTimeoutError means the health signal never succeeded within the
// attempt cap.
type ReadinessTimeoutError struct {
	URL      string
	Attempts int
	LastErr  error
}

func (e *ReadinessTimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("target %s not ready after %d probes (last error: %v)", e.URL, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("target %s not ready after %d probes", e.URL, e.Attempts)
}

func (e *ReadinessTimeoutError) Unwrap() error { return e.LastErr }

// Config tunes the probe. Attempts and Interval must be positive.
type Config struct {
	URL      string
	Attempts int
	Interval time.Duration
	// Client overrides the HTTP client, mainly for tests. When nil a
	// client with a per-request timeout of Interval is used.
	Client *http.Client
}

// Probe polls an HTTP health signal until it answers or the cap runs out.
type Probe struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a readiness probe.
func New(cfg Config, logger *zap.Logger) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Client == nil {
		timeout := cfg.Interval
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		cfg.Client = &http.Client{Timeout: timeout}
	}
	return &Probe{cfg: cfg, logger: logger.Named("probe")}
}

// Wait polls the health URL. Any HTTP response with a status below 500
// counts as ready: the target answering at all (even with a redirect to its
// setup page) is the signal; deeper health semantics belong to the
// container runtime. Performs exactly cfg.Attempts probes before giving up
// with a ReadinessTimeoutError.
func (p *Probe) Wait(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := p.check(ctx)
		if ok {
			p.logger.Info("Target is ready", zap.String("url", p.cfg.URL), zap.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		p.logger.Debug("Target not ready yet",
			zap.String("url", p.cfg.URL),
			zap.Int("attempt", attempt),
			zap.Int("cap", p.cfg.Attempts),
			zap.Error(err),
		)

		// Sleep between probes, but not after the final one.
		if attempt == p.cfg.Attempts {
			break
		}
		timer := time.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &ReadinessTimeoutError{URL: p.cfg.URL, Attempts: p.cfg.Attempts, LastErr: lastErr}
}

func (p *Probe) check(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return false, err
	}
	resp, err := p.cfg.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, fmt.Errorf("health signal returned %s", resp.Status)
	}
	return true, nil
}
