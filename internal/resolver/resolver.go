// File: internal/resolver/resolver.go
//
// The resolver turns a semantic intent ("the email field") into a concrete
// selector by walking a ranked list of candidate strategies. A candidate
// that doesn't match is a normal "no match" result, never an error; errors
// are reserved for a broken driver or a cancelled context.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Candidate is one ranked strategy for locating a UI element. Candidates
// are tried in slice order; the first visible-and-interactable match wins.
type Candidate struct {
	Selector    string
	Strategy    string // "attribute", "role", "text", "structural"
	Description string
}

// Intent names the element being looked for, its ranked candidates, and an
// optional visible-text anchor used by the last-resort full-DOM scan.
type Intent struct {
	Name       string
	Text       string
	Candidates []Candidate
}

// Resolved is a successfully located element, addressable by selector.
type Resolved struct {
	Selector string
	Strategy string
}

// Page is the slice of the browser driver the resolver needs.
type Page interface {
	Visible(ctx context.Context, selector string) (bool, error)
	Evaluate(ctx context.Context, expr string, out any) error
}

// ElementNotFoundError reports that every candidate and the text-scan
// fallback were exhausted. Attempted always lists the full candidate set in
// rank order, so the same DOM state yields the same error.
type ElementNotFoundError struct {
	Intent    string
	Attempted []string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("no element found for %q (attempted: %s)",
		e.Intent, strings.Join(e.Attempted, ", "))
}

// Resolver performs the ranked candidate search.
type Resolver struct {
	page   Page
	logger *zap.Logger
	poll   time.Duration
}

// New creates a resolver polling at the default 250ms interval.
func New(page Page, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		page:   page,
		logger: logger.Named("resolver"),
		poll:   250 * time.Millisecond,
	}
}

// Resolve tries each candidate in rank order, giving each a slice of the
// total timeout, then falls back once to a full-DOM text scan. The search
// is an explicit sequential predicate walk: the first candidate that is
// visible and interactable short-circuits the rest.
func (r *Resolver) Resolve(ctx context.Context, intent Intent, timeout time.Duration) (Resolved, error) {
	if len(intent.Candidates) == 0 && intent.Text == "" {
		return Resolved{}, fmt.Errorf("intent %q has no candidates and no fallback text", intent.Name)
	}

	// The fallback scan gets the same share of the budget as a candidate.
	slices := len(intent.Candidates)
	if intent.Text != "" {
		slices++
	}
	slice := timeout / time.Duration(slices)

	for _, cand := range intent.Candidates {
		if err := ctx.Err(); err != nil {
			return Resolved{}, err
		}
		found, err := r.awaitVisible(ctx, cand.Selector, slice)
		if err != nil {
			return Resolved{}, err
		}
		if found {
			r.logger.Debug("Resolved intent",
				zap.String("intent", intent.Name),
				zap.String("selector", cand.Selector),
				zap.String("strategy", cand.Strategy),
			)
			return Resolved{Selector: cand.Selector, Strategy: cand.Strategy}, nil
		}
	}

	if intent.Text != "" {
		resolved, ok, err := r.textScan(ctx, intent, slice)
		if err != nil {
			return Resolved{}, err
		}
		if ok {
			return resolved, nil
		}
	}

	r.logger.Warn("Intent exhausted all candidates", zap.String("intent", intent.Name))
	return Resolved{}, r.notFound(intent)
}

// awaitVisible polls the presence probe until it matches or the slice of
// the budget runs out. A false return is a normal miss, not an error.
func (r *Resolver) awaitVisible(ctx context.Context, selector string, budget time.Duration) (bool, error) {
	deadline := time.Now().Add(budget)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		visible, err := r.page.Visible(ctx, selector)
		if err != nil {
			// A probe hiccup on one poll is not conclusive; log and keep
			// polling inside the budget. A cancelled context ends it above.
			r.logger.Debug("Visibility probe error", zap.String("selector", selector), zap.Error(err))
		} else if visible {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		wait := r.poll
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}
}

// textScanExpr walks clickable elements looking for exact trimmed text
// content. The first hit in document order is tagged so it can be
// addressed by selector afterwards; document order makes the scan
// deterministic for a given DOM.
const textScanExpr = `(() => {
	const want = %q;
	const mark = %q;
	const nodes = document.querySelectorAll('button, a, div, span, [role="button"]');
	for (const el of nodes) {
		if (el.textContent && el.textContent.trim() === want) {
			el.setAttribute('data-uiprov-hit', mark);
			return true;
		}
	}
	return false;
})()`

// textScan is the one-shot full-DOM fallback, matching the intent's visible
// text on clickable elements.
func (r *Resolver) textScan(ctx context.Context, intent Intent, budget time.Duration) (Resolved, bool, error) {
	mark := slug(intent.Name)
	expr := fmt.Sprintf(textScanExpr, intent.Text, mark)

	deadline := time.Now().Add(budget)
	for {
		if err := ctx.Err(); err != nil {
			return Resolved{}, false, err
		}
		var hit bool
		if err := r.page.Evaluate(ctx, expr, &hit); err != nil {
			r.logger.Debug("Text scan evaluation error", zap.String("intent", intent.Name), zap.Error(err))
		} else if hit {
			r.logger.Debug("Resolved intent via text scan",
				zap.String("intent", intent.Name),
				zap.String("text", intent.Text),
			)
			return Resolved{
				Selector: fmt.Sprintf(`[data-uiprov-hit=%q]`, mark),
				Strategy: "text-scan",
			}, true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Resolved{}, false, nil
		}
		wait := r.poll
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Resolved{}, false, ctx.Err()
		case <-timer.C:
		}
	}
}

// notFound builds the deterministic exhaustion error: the attempted list is
// derived from the intent alone, in rank order.
func (r *Resolver) notFound(intent Intent) *ElementNotFoundError {
	attempted := make([]string, 0, len(intent.Candidates)+1)
	for _, cand := range intent.Candidates {
		attempted = append(attempted, cand.Selector)
	}
	if intent.Text != "" {
		attempted = append(attempted, "text-scan:"+intent.Text)
	}
	return &ElementNotFoundError{Intent: intent.Name, Attempted: attempted}
}

func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
