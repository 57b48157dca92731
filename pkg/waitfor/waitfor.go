// Package waitfor turns one-shot visual queries into bounded retry loops:
// poll a query at an interval until a predicate over its results holds or a
// deadline passes.
package waitfor

import (
	"context"
	"time"

	"github.com/romaklym/kronsteen/pkg/match"
)

// DefaultInterval is the polling cadence used when Options.Interval is zero.
const DefaultInterval = 500 * time.Millisecond

// Query returns the current matches for a visual query. It must be free of
// side effects; the engine may call it many times.
type Query func(ctx context.Context) ([]match.Match, error)

// Predicate decides whether a result set satisfies the wait.
type Predicate func(matches []match.Match) bool

// Options bounds a wait.
type Options struct {
	// Timeout is the hard deadline. The loop never overshoots it by more
	// than one interval plus one query latency.
	Timeout time.Duration
	// Interval is the sleep between attempts. Defaults to DefaultInterval.
	Interval time.Duration
	// Describe names the query in errors, e.g. `text "Submit"`.
	Describe string
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultInterval
	}
	return o.Interval
}

// Status tags the result of a wait.
type Status int

const (
	// Found means the presence predicate was satisfied.
	Found Status = iota
	// TimedOut means the deadline passed without satisfaction.
	TimedOut
	// Disappeared means an absence wait observed zero qualifying matches.
	Disappeared
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case TimedOut:
		return "timed_out"
	case Disappeared:
		return "disappeared"
	default:
		return "unknown"
	}
}

// Outcome reports how a wait ended.
type Outcome struct {
	Status   Status
	Match    match.Match
	Attempts int
	Elapsed  time.Duration
	// EverPresent is set by absence waits: true when the target was
	// observed at least once before it disappeared, false when the
	// disappearance was vacuous (never present at any check).
	EverPresent bool
}

// Poll invokes query at the configured interval until predicate is
// satisfied or the timeout elapses. time.Now readings carry Go's monotonic
// clock, so system clock adjustments cannot move the deadline.
//
// The query runs at least once even when Timeout < Interval. A query error
// aborts immediately with a ProviderError; context cancellation aborts with
// ctx.Err(). The final sleep is clamped to the remaining time so one last
// attempt lands at the deadline rather than past it.
func Poll(ctx context.Context, opts Options, query Query, predicate Predicate) (Outcome, error) {
	start := time.Now()
	deadline := start.Add(opts.Timeout)
	interval := opts.interval()
	attempts := 0

	for {
		matches, err := query(ctx)
		attempts++
		if err != nil {
			return Outcome{Status: TimedOut, Attempts: attempts, Elapsed: time.Since(start)},
				&ProviderError{Op: opts.Describe, Err: err}
		}
		if predicate(matches) {
			best, _ := match.Best(matches)
			return Outcome{Status: Found, Match: best, Attempts: attempts, Elapsed: time.Since(start)}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Outcome{Status: TimedOut, Attempts: attempts, Elapsed: time.Since(start)}, nil
		}
		sleep := interval
		if remaining < sleep {
			sleep = remaining
		}
		select {
		case <-ctx.Done():
			return Outcome{Status: TimedOut, Attempts: attempts, Elapsed: time.Since(start)}, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// Until polls until the query yields at least one match. On success the
// outcome carries the best match (highest confidence, smaller area on ties,
// then provider order). A timeout returns the outcome alongside a
// NotFoundError so callers can inspect elapsed time and attempts.
func Until(ctx context.Context, opts Options, query Query) (Outcome, error) {
	out, err := Poll(ctx, opts, query, func(matches []match.Match) bool {
		return len(matches) > 0
	})
	if err != nil {
		return out, err
	}
	if out.Status == TimedOut {
		return out, &NotFoundError{Query: opts.Describe, Timeout: opts.Timeout}
	}
	return out, nil
}

// UntilGone polls until the query yields zero matches. A disappearance is
// reported immediately when the target was never present (a vacuously true
// absence, flagged by EverPresent=false) or after an observed transition
// from one or more matches to none, flagged by EverPresent=true. A timeout
// while matches still qualify returns a StillPresentError.
func UntilGone(ctx context.Context, opts Options, query Query) (Outcome, error) {
	everPresent := false
	out, err := Poll(ctx, opts, query, func(matches []match.Match) bool {
		if len(matches) > 0 {
			everPresent = true
			return false
		}
		return true
	})
	out.EverPresent = everPresent
	if err != nil {
		return out, err
	}
	switch out.Status {
	case Found:
		out.Status = Disappeared
		return out, nil
	default:
		return out, &StillPresentError{Query: opts.Describe, Timeout: opts.Timeout}
	}
}
