package kronsteen

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/romaklym/kronsteen/pkg/platform"
)

// ErrFailSafe is returned when the fail-safe is armed and the pointer is
// parked in the top-left screen corner, the manual abort gesture.
var ErrFailSafe = errors.New("fail-safe triggered: mouse pointer parked in top-left screen corner")

// failSafeZone is the corner size, in pixels, that trips the fail-safe.
const failSafeZone = 10

// guarded runs an input action through the fail-safe check and the focus
// gate, then applies the configured post-action pause. While the monitored
// window is unfocused the call blocks until focus returns, monitoring
// stops, or ctx ends.
func (c *Client) guarded(ctx context.Context, name string, action func() error) error {
	if c.settings.FailSafe {
		x, y, err := c.provider.Inputter.MousePosition()
		// A position query failure never blocks input; the fail-safe is
		// a convenience, not a safety interlock.
		if err == nil && x <= failSafeZone && y <= failSafeZone {
			c.logger.Warn("fail-safe abort", zap.String("action", name))
			return ErrFailSafe
		}
	}
	c.logger.Debug("input action", zap.String("action", name))
	if err := c.gate.DoContext(ctx, action); err != nil {
		return err
	}
	if c.settings.DefaultPause > 0 {
		time.Sleep(c.settings.DefaultPause)
	}
	return nil
}

// Click performs a single left click at the given physical-pixel
// coordinates.
func (c *Client) Click(ctx context.Context, x, y int) error {
	return c.guarded(ctx, "click", func() error {
		return c.provider.Inputter.Click(x, y, platform.MouseLeft, 1)
	})
}

// DoubleClick performs a double left click.
func (c *Client) DoubleClick(ctx context.Context, x, y int) error {
	return c.guarded(ctx, "double_click", func() error {
		return c.provider.Inputter.Click(x, y, platform.MouseLeft, 2)
	})
}

// RightClick performs a single right click.
func (c *Client) RightClick(ctx context.Context, x, y int) error {
	return c.guarded(ctx, "right_click", func() error {
		return c.provider.Inputter.Click(x, y, platform.MouseRight, 1)
	})
}

// ClickButton clicks with an explicit button and count.
func (c *Client) ClickButton(ctx context.Context, x, y int, button platform.MouseButton, count int) error {
	return c.guarded(ctx, "click", func() error {
		return c.provider.Inputter.Click(x, y, button, count)
	})
}

// MoveTo moves the pointer to the given coordinates. A positive duration
// requests an eased move where the platform supports it.
func (c *Client) MoveTo(ctx context.Context, x, y int, duration time.Duration) error {
	return c.guarded(ctx, "move", func() error {
		return c.provider.Inputter.MoveMouse(x, y, int(duration.Milliseconds()))
	})
}

// Drag presses at the start point, moves to the end point, and releases.
func (c *Client) Drag(ctx context.Context, fromX, fromY, toX, toY int) error {
	return c.guarded(ctx, "drag", func() error {
		return c.provider.Inputter.Drag(fromX, fromY, toX, toY)
	})
}

// Scroll scrolls the wheel: positive clicks up, negative down.
func (c *Client) Scroll(ctx context.Context, clicks int) error {
	return c.guarded(ctx, "scroll", func() error {
		return c.provider.Inputter.Scroll(clicks)
	})
}

// TypeOptions refine text entry.
type TypeOptions struct {
	// Delay is the per-character delay.
	Delay time.Duration
	// PressEnter sends the enter key after the text.
	PressEnter bool
}

// TypeText types the string into the focused element.
func (c *Client) TypeText(ctx context.Context, text string, opts TypeOptions) error {
	return c.guarded(ctx, "type", func() error {
		if err := c.provider.Inputter.TypeText(text, int(opts.Delay.Milliseconds())); err != nil {
			return err
		}
		if opts.PressEnter {
			return c.provider.Inputter.KeyPress("enter")
		}
		return nil
	})
}

// Press presses a single named key, e.g. "enter" or "tab".
func (c *Client) Press(ctx context.Context, key string) error {
	return c.guarded(ctx, "key_press", func() error {
		return c.provider.Inputter.KeyPress(key)
	})
}

// Hotkey presses a modifier combination, e.g. Hotkey(ctx, "ctrl", "c").
func (c *Client) Hotkey(ctx context.Context, keys ...string) error {
	return c.guarded(ctx, "hotkey", func() error {
		return c.provider.Inputter.KeyCombo(keys)
	})
}

// MousePosition reports the pointer location in physical pixels.
func (c *Client) MousePosition() (int, int, error) {
	return c.provider.Inputter.MousePosition()
}
