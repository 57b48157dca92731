// Package kronsteen is a vision-driven desktop automation layer: it locates
// on-screen text and images with OCR and template matching, then drives
// mouse and keyboard input to interact with applications that expose no
// API.
//
// The heart of the package is the find-wait-act loop: every find/click
// operation is a bounded retry of a visual query, and every injected input
// action passes through a focus gate that pauses automation whenever the
// monitored window loses foreground focus.
//
//	c, err := kronsteen.New()
//	if err != nil { ... }
//	defer c.StopWindowMonitoring()
//
//	c.StartWindowMonitoring(focus.Config{WindowName: "Chrome"})
//	if _, err := c.ClickOnText(ctx, "Sign in", kronsteen.TextOptions{}); err != nil { ... }
//
// A Client's public operations are not safe for concurrent use from
// multiple goroutines against the same client: settings and focus state
// are shared without transactional guarantees. Run automation flows
// sequentially, or serialize externally.
package kronsteen

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/romaklym/kronsteen/pkg/focus"
	"github.com/romaklym/kronsteen/pkg/match"
	"github.com/romaklym/kronsteen/pkg/platform"
	"github.com/romaklym/kronsteen/pkg/vision"
)

// Client coordinates the visual providers, the wait engine, and the input
// gate. Create one with New.
type Client struct {
	settings Settings
	provider *platform.Provider
	visual   vision.Provider
	observer *focus.Observer
	gate     *focus.Gate
	logger   *zap.Logger
}

// ClientOption customizes client construction.
type ClientOption func(*Client)

// WithSettings starts the client from the given settings instead of
// DefaultSettings.
func WithSettings(s Settings) ClientOption {
	return func(c *Client) { c.settings = s }
}

// WithLogger attaches a structured logger. The default is a nop logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithPlatform substitutes the platform backends. Intended for tests and
// for embedders with their own input or capture implementations.
func WithPlatform(p *platform.Provider) ClientOption {
	return func(c *Client) { c.provider = p }
}

// WithVisualProvider substitutes the visual provider directly, bypassing
// engine selection. Intended for tests.
func WithVisualProvider(v vision.Provider) ClientOption {
	return func(c *Client) { c.visual = v }
}

// New builds a client for the current OS. Settings default to
// DefaultSettings; the OCR engine defaults to tesseract.
func New(opts ...ClientOption) (*Client, error) {
	c := &Client{
		settings: DefaultSettings(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.provider == nil {
		p, err := platform.NewProvider()
		if err != nil {
			return nil, err
		}
		c.provider = p
	}
	if c.visual == nil {
		visual, err := c.buildVisual(c.settings.Engine)
		if err != nil {
			return nil, err
		}
		c.visual = visual
	}

	c.observer = focus.NewObserver(c.provider.WindowQuerier.ActiveWindowTitle, c.logger)
	c.gate = focus.NewGate(c.observer, c.logger)
	return c, nil
}

// Configure applies a partial merge of options onto the live settings.
// Settings not named by any option keep their previous values; nothing is
// ever reset to defaults by a partial call.
func (c *Client) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(&c.settings)
	}
	c.logger.Debug("settings updated",
		zap.Duration("default_timeout", c.settings.DefaultTimeout),
		zap.Duration("retry_interval", c.settings.RetryInterval),
		zap.Bool("fail_safe", c.settings.FailSafe))
}

// Settings returns a snapshot of the current settings.
func (c *Client) Settings() Settings {
	return c.settings
}

// UseEngine swaps the OCR backend for subsequent text queries. Waits
// already in flight keep the provider captured at their start.
func (c *Client) UseEngine(engine vision.Engine) error {
	visual, err := c.buildVisual(engine)
	if err != nil {
		return err
	}
	c.settings.Engine = engine
	c.visual = visual
	c.logger.Info("ocr engine switched", zap.Stringer("engine", engine))
	return nil
}

func (c *Client) buildVisual(engine vision.Engine) (vision.Provider, error) {
	capture := c.provider.Screenshotter.Capture
	switch engine {
	case vision.EngineOllama:
		ocr, err := vision.NewOllama(c.settings.OllamaURL, c.settings.OllamaModel)
		if err != nil {
			return nil, err
		}
		return vision.NewScreen(capture, ocr), nil
	case vision.EngineTesseract:
		ocr := vision.NewTesseract()
		ocr.BinaryPath = c.settings.TesseractPath
		return vision.NewScreen(capture, ocr), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine: %v", engine)
	}
}

// StartWindowMonitoring begins tracking focus of the named window. While
// the window is unfocused, all input operations pause until it becomes
// foreground again. Starting a second session replaces the first.
func (c *Client) StartWindowMonitoring(cfg focus.Config) error {
	return c.observer.Start(cfg)
}

// StopWindowMonitoring stops focus tracking and releases any operation
// paused at the gate.
func (c *Client) StopWindowMonitoring() {
	c.observer.Stop()
}

// FocusState returns the current observed focus state.
func (c *Client) FocusState() focus.State {
	return c.observer.State()
}

// Screenshot captures the screen, or a region of it, in physical pixels.
func (c *Client) Screenshot(region *match.Region) (image.Image, error) {
	return c.provider.Screenshotter.Capture(region)
}

// SaveScreenshot captures the screen and writes it to path as PNG.
func (c *Client) SaveScreenshot(path string, region *match.Region) error {
	img, err := c.Screenshot(region)
	if err != nil {
		return err
	}
	return vision.EncodePNG(path, img)
}

// Launch starts an application by name or path.
func (c *Client) Launch(app string, args ...string) error {
	c.logger.Info("launching application", zap.String("app", app))
	return c.provider.Launcher.Launch(app, args)
}

// CloseApp quits an application by name.
func (c *Client) CloseApp(app string) error {
	c.logger.Info("closing application", zap.String("app", app))
	return c.provider.Launcher.Close(app)
}

// RecordRegion builds a Region from two mouse positions sampled by
// a caller-driven prompt flow: call once to mark the top-left corner and
// again for the bottom-right, then construct the region.
func RecordRegion(topLeftX, topLeftY, bottomRightX, bottomRightY int) (match.Region, error) {
	return match.NewRegion(topLeftX, topLeftY, bottomRightX-topLeftX, bottomRightY-topLeftY)
}
