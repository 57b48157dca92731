// Package focus tracks whether a target window is foreground and gates
// input injection on that state. A background observer polls the active
// window title; the gate suspends actions while the window is unfocused so
// synthesized clicks and keystrokes never land in the wrong application.
package focus

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the observed focus of the monitored window. It lives in a single
// atomic word: the observer goroutine is the only writer, the gate and any
// other reader see whole-value snapshots, torn reads are impossible.
type State int32

const (
	// Unknown means monitoring is stopped or the last poll could not
	// determine the active window. The gate treats Unknown as permissive.
	Unknown State = iota
	// Focused means the monitored window was foreground at the last poll.
	Focused
	// Unfocused means another window was foreground at the last poll.
	Unfocused
)

func (s State) String() string {
	switch s {
	case Focused:
		return "focused"
	case Unfocused:
		return "unfocused"
	default:
		return "unknown"
	}
}

// DefaultCheckInterval is the polling cadence when Config.CheckInterval is zero.
const DefaultCheckInterval = 500 * time.Millisecond

// TitleFunc queries the platform for the active window's title.
type TitleFunc func() (string, error)

// QueryError reports that the active window could not be determined on a
// poll tick. Non-fatal: the observer records Unknown and keeps polling, so
// a transient platform error never falsely pauses automation.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("active window query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Config describes one monitoring session.
type Config struct {
	// WindowName is the title (or title fragment) of the window to track.
	WindowName string
	// CheckInterval is the polling cadence. Defaults to DefaultCheckInterval.
	CheckInterval time.Duration
	// Exact requires the full title to match WindowName. The default is
	// substring matching, which tolerates apps that decorate their titles.
	Exact bool
}

func (c Config) interval() time.Duration {
	if c.CheckInterval <= 0 {
		return DefaultCheckInterval
	}
	return c.CheckInterval
}

// Observer polls the active window identity on an interval and publishes
// the resulting State. At most one monitoring session runs per observer;
// starting a new session stops the previous one first.
type Observer struct {
	title  TitleFunc
	logger *zap.Logger

	state      atomic.Int32
	intervalNs atomic.Int64

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	current Config
}

// NewObserver returns a stopped observer. logger may be nil.
func NewObserver(title TitleFunc, logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Observer{title: title, logger: logger}
	o.intervalNs.Store(int64(DefaultCheckInterval))
	return o
}

// Start transitions the observer to polling. If a session is already
// running it is stopped first; the replacement is logged rather than
// silent.
func (o *Observer) Start(cfg Config) error {
	if cfg.WindowName == "" {
		return fmt.Errorf("focus: window name is required")
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stop != nil {
		o.logger.Warn("replacing active focus monitoring session",
			zap.String("previous_window", o.current.WindowName),
			zap.String("window", cfg.WindowName))
		o.stopLocked()
	}

	o.current = cfg
	o.intervalNs.Store(int64(cfg.interval()))
	o.state.Store(int32(Unknown))
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.poll(cfg, o.stop, o.done)

	o.logger.Info("started focus monitoring",
		zap.String("window", cfg.WindowName),
		zap.Duration("interval", cfg.interval()),
		zap.Bool("exact", cfg.Exact))
	return nil
}

// Stop cancels the polling goroutine and resets the state to Unknown,
// which releases any action blocked in the gate within one check interval.
// Stopping a stopped observer is a no-op.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop == nil {
		return
	}
	o.logger.Info("stopped focus monitoring", zap.String("window", o.current.WindowName))
	o.stopLocked()
}

func (o *Observer) stopLocked() {
	close(o.stop)
	<-o.done
	o.stop = nil
	o.done = nil
	o.state.Store(int32(Unknown))
}

// State returns a snapshot of the current focus state.
func (o *Observer) State() State {
	return State(o.state.Load())
}

// Polling reports whether a monitoring session is active.
func (o *Observer) Polling() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stop != nil
}

// CheckInterval returns the cadence of the active (or last) session. The
// gate busy-waits at this cadence while the window is unfocused.
func (o *Observer) CheckInterval() time.Duration {
	return time.Duration(o.intervalNs.Load())
}

func (o *Observer) poll(cfg Config, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(cfg.interval())
	defer ticker.Stop()

	o.tick(cfg)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.tick(cfg)
		}
	}
}

func (o *Observer) tick(cfg Config) {
	title, err := o.title()
	if err != nil {
		// Transient platform failure: report it but stay permissive.
		prev := State(o.state.Swap(int32(Unknown)))
		if prev != Unknown {
			o.logger.Warn("focus poll failed, treating focus as unknown", zap.Error(&QueryError{Err: err}))
		}
		return
	}

	next := Unfocused
	if windowMatches(title, cfg.WindowName, cfg.Exact) {
		next = Focused
	}
	prev := State(o.state.Swap(int32(next)))
	if prev == next {
		return
	}
	switch next {
	case Unfocused:
		o.logger.Warn("monitored window lost focus, pausing automation",
			zap.String("window", cfg.WindowName),
			zap.String("active", title))
	case Focused:
		if prev == Unfocused {
			o.logger.Info("monitored window regained focus, resuming automation",
				zap.String("window", cfg.WindowName))
		}
	}
}

func windowMatches(title, name string, exact bool) bool {
	if exact {
		return strings.EqualFold(strings.TrimSpace(title), strings.TrimSpace(name))
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(name))
}
