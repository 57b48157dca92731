// Package platform provides the OS capability backends consumed by the
// automation core: input injection, screen capture, active-window queries,
// and application launching. All backends shell out to native tools rather
// than linking OS frameworks, so the module builds without cgo.
package platform

import (
	"fmt"
	"image"
	"runtime"

	"github.com/romaklym/kronsteen/pkg/match"
)

// Inputter simulates mouse and keyboard input. Calls are fire-and-forget:
// the core sequences them but never inspects their effects.
type Inputter interface {
	Click(x, y int, button MouseButton, count int) error
	MoveMouse(x, y int, durationMs int) error
	Drag(fromX, fromY, toX, toY int) error
	Scroll(clicks int) error
	TypeText(text string, delayMs int) error
	KeyPress(name string) error
	KeyCombo(keys []string) error
	MousePosition() (x, y int, err error)
}

// Screenshotter captures the screen, or a sub-region of it, in physical
// pixels.
type Screenshotter interface {
	Capture(region *match.Region) (image.Image, error)
}

// WindowQuerier reports which window currently has focus.
type WindowQuerier interface {
	ActiveWindowTitle() (string, error)
}

// Launcher starts and quits applications by name.
type Launcher interface {
	Launch(app string, args []string) error
	Close(app string) error
}

// Provider bundles all platform backends for the current OS.
type Provider struct {
	Inputter      Inputter
	Screenshotter Screenshotter
	WindowQuerier WindowQuerier
	Launcher      Launcher
}

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("kronsteen is not supported on %s/%s; supported: darwin, linux, windows", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by the OS-specific files via init().
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
