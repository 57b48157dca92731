package focus

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Gate serializes access to input injection: while the observer reports the
// monitored window unfocused, guarded actions block until focus returns.
// The gate never mutates focus state; it only reads snapshots.
//
// There is no queue: the calling flow itself suspends, so in the intended
// single-caller usage at most one action awaits the gate at a time.
type Gate struct {
	obs    *Observer
	logger *zap.Logger
}

// NewGate wraps an observer. logger may be nil.
func NewGate(obs *Observer, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{obs: obs, logger: logger}
}

// Do executes action once the monitored window has focus. When monitoring is
// stopped or the state is Unknown the action runs immediately: monitoring
// is opt-in and transient query failures must not stall automation. While
// Unfocused, Do blocks indefinitely at the observer's check-interval
// cadence; Stop() on the observer releases the wait by resetting the state
// to Unknown. Use DoContext for a bounded wait.
func (g *Gate) Do(action func() error) error {
	return g.DoContext(context.Background(), action)
}

// DoContext is Do with cancellation: a blocked action is abandoned with
// ctx.Err() when the context ends.
func (g *Gate) DoContext(ctx context.Context, action func() error) error {
	if err := g.wait(ctx); err != nil {
		return err
	}
	return action()
}

func (g *Gate) wait(ctx context.Context) error {
	paused := false
	for g.obs.State() == Unfocused {
		if !paused {
			paused = true
			g.logger.Info("action gated: waiting for monitored window to regain focus")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.obs.CheckInterval()):
		}
	}
	if paused {
		g.logger.Info("action gate released")
	}
	return nil
}
