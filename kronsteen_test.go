package kronsteen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/romaklym/kronsteen/pkg/focus"
	"github.com/romaklym/kronsteen/pkg/match"
	"github.com/romaklym/kronsteen/pkg/platform"
	"github.com/romaklym/kronsteen/pkg/vision"
	"github.com/romaklym/kronsteen/pkg/waitfor"
)

// fakeInput records injected input events.
type fakeInput struct {
	mu     sync.Mutex
	clicks [][2]int
	typed  []string
	keys   []string
	scroll []int
	mouseX int
	mouseY int
	posErr error
}

func (f *fakeInput) Click(x, y int, button platform.MouseButton, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, [2]int{x, y})
	return nil
}

func (f *fakeInput) MoveMouse(x, y int, durationMs int) error { return nil }
func (f *fakeInput) Drag(fromX, fromY, toX, toY int) error    { return nil }

func (f *fakeInput) Scroll(clicks int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scroll = append(f.scroll, clicks)
	return nil
}

func (f *fakeInput) TypeText(text string, delayMs int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeInput) KeyPress(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, name)
	return nil
}

func (f *fakeInput) KeyCombo(keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, keys...)
	return nil
}

func (f *fakeInput) MousePosition() (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mouseX, f.mouseY, f.posErr
}

func (f *fakeInput) clickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clicks)
}

type fakeWindow struct {
	mu    sync.Mutex
	title string
}

func (f *fakeWindow) ActiveWindowTitle() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title, nil
}

func (f *fakeWindow) set(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}

// fakeVisual serves canned matches per query call.
type fakeVisual struct {
	mu      sync.Mutex
	results [][]match.Match
	calls   int
	err     error
}

func (f *fakeVisual) Query(ctx context.Context, req vision.Request) ([]match.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	if i < 0 {
		return nil, nil
	}
	return f.results[i], nil
}

func textMatch(text string, x, y, w, h int, conf float64) match.Match {
	m, _ := match.New(match.KindText, text, match.Region{X: x, Y: y, Width: w, Height: h}, conf)
	return m
}

// newTestClient wires a client over fakes. The mouse starts outside the
// fail-safe corner and pauses are zeroed to keep tests fast.
func newTestClient(t *testing.T, visual vision.Provider) (*Client, *fakeInput, *fakeWindow) {
	t.Helper()
	input := &fakeInput{mouseX: 500, mouseY: 500}
	window := &fakeWindow{title: "Test Window"}
	settings := DefaultSettings()
	settings.DefaultPause = 0
	settings.DefaultTimeout = time.Second
	settings.RetryInterval = time.Millisecond

	c, err := New(
		WithSettings(settings),
		WithPlatform(&platform.Provider{
			Inputter:      input,
			WindowQuerier: window,
		}),
		WithVisualProvider(visual),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, input, window
}

func focusConfig(name string, interval time.Duration) focus.Config {
	return focus.Config{WindowName: name, CheckInterval: interval}
}

// waitForFocusState polls until the client reports the named focus state.
func waitForFocusState(t *testing.T, c *Client, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.FocusState().String() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("focus state never reached %q (currently %q)", want, c.FocusState().String())
}

func TestConfigure_PartialMerge(t *testing.T) {
	c, _, _ := newTestClient(t, &fakeVisual{})

	c.Configure(WithDefaultTimeout(20 * time.Second))
	c.Configure(WithFailSafe(false))

	s := c.Settings()
	if s.DefaultTimeout != 20*time.Second {
		t.Errorf("a later partial Configure must not reset earlier options: timeout = %v", s.DefaultTimeout)
	}
	if s.FailSafe {
		t.Error("expected FailSafe disabled")
	}
	if s.MinConfidence != DefaultSettings().MinConfidence {
		t.Errorf("untouched settings must keep their values, got %v", s.MinConfidence)
	}
}

func TestFindText_ReturnsBestMatch(t *testing.T) {
	visual := &fakeVisual{results: [][]match.Match{{
		textMatch("Submit Order", 10, 10, 100, 20, 0.9),
		textMatch("Submit", 200, 50, 60, 20, 0.95),
	}}}
	c, _, _ := newTestClient(t, visual)

	m, err := c.FindText(context.Background(), "Submit", TextOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Text != "Submit" {
		t.Errorf("expected the higher-confidence match, got %q", m.Text)
	}
}

func TestFindText_RetriesUntilVisible(t *testing.T) {
	visual := &fakeVisual{results: [][]match.Match{
		nil,
		nil,
		{textMatch("Loaded", 0, 0, 50, 20, 0.9)},
	}}
	c, _, _ := newTestClient(t, visual)

	m, err := c.FindText(context.Background(), "Loaded", TextOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Text != "Loaded" {
		t.Errorf("expected Loaded, got %q", m.Text)
	}
	if visual.calls != 3 {
		t.Errorf("expected 3 queries, got %d", visual.calls)
	}
}

func TestFindText_TimeoutReturnsNotFound(t *testing.T) {
	c, _, _ := newTestClient(t, &fakeVisual{})

	_, err := c.FindText(context.Background(), "Ghost", TextOptions{Timeout: 20 * time.Millisecond})
	var notFound *waitfor.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestFindText_ConfidenceCutUsesSettings(t *testing.T) {
	visual := &fakeVisual{results: [][]match.Match{{
		textMatch("Submit", 0, 0, 50, 20, 0.5), // below the 0.8 default cut
	}}}
	c, _, _ := newTestClient(t, visual)

	_, err := c.FindText(context.Background(), "Submit", TextOptions{Timeout: 20 * time.Millisecond})
	if err == nil {
		t.Error("expected the low-confidence match to be filtered out")
	}
}

func TestClickOnText_ClicksRegionCenter(t *testing.T) {
	visual := &fakeVisual{results: [][]match.Match{{
		textMatch("Sign in", 100, 200, 80, 24, 0.9),
	}}}
	c, input, _ := newTestClient(t, visual)

	m, err := c.ClickOnText(context.Background(), "Sign in", TextOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Text != "Sign in" {
		t.Errorf("expected the match back, got %q", m.Text)
	}
	if input.clickCount() != 1 {
		t.Fatalf("expected exactly one click, got %d", input.clickCount())
	}
	if input.clicks[0] != [2]int{140, 212} {
		t.Errorf("expected a click at the region center (140, 212), got %v", input.clicks[0])
	}
}

func TestClickOnText_NoClickWhenNotFound(t *testing.T) {
	c, input, _ := newTestClient(t, &fakeVisual{})

	_, err := c.ClickOnText(context.Background(), "Ghost", TextOptions{Timeout: 20 * time.Millisecond})
	if err == nil {
		t.Fatal("expected an error")
	}
	if input.clickCount() != 0 {
		t.Error("a failed find must never click")
	}
}

func TestWaitForTextToDisappear(t *testing.T) {
	visual := &fakeVisual{results: [][]match.Match{
		{textMatch("Loading...", 0, 0, 80, 20, 0.9)},
		{textMatch("Loading...", 0, 0, 80, 20, 0.9)},
		nil,
	}}
	c, _, _ := newTestClient(t, visual)

	out, err := c.WaitForTextToDisappear(context.Background(), "Loading", TextOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != waitfor.Disappeared {
		t.Errorf("expected Disappeared, got %v", out.Status)
	}
	if !out.EverPresent {
		t.Error("expected EverPresent=true")
	}
}

func TestWaitForTextToDisappear_StillPresent(t *testing.T) {
	visual := &fakeVisual{results: [][]match.Match{
		{textMatch("Modal", 0, 0, 80, 20, 0.9)},
	}}
	c, _, _ := newTestClient(t, visual)

	_, err := c.WaitForTextToDisappear(context.Background(), "Modal", TextOptions{Timeout: 20 * time.Millisecond})
	var stillPresent *waitfor.StillPresentError
	if !errors.As(err, &stillPresent) {
		t.Fatalf("expected StillPresentError, got %v", err)
	}
}

func TestFailSafe_AbortsWhenPointerParkedInCorner(t *testing.T) {
	c, input, _ := newTestClient(t, &fakeVisual{})
	input.mouseX, input.mouseY = 0, 0

	err := c.Click(context.Background(), 100, 100)
	if !errors.Is(err, ErrFailSafe) {
		t.Fatalf("expected ErrFailSafe, got %v", err)
	}
	if input.clickCount() != 0 {
		t.Error("the fail-safe must abort before any input lands")
	}
}

func TestFailSafe_DisabledByConfigure(t *testing.T) {
	c, input, _ := newTestClient(t, &fakeVisual{})
	input.mouseX, input.mouseY = 0, 0
	c.Configure(WithFailSafe(false))

	if err := c.Click(context.Background(), 100, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.clickCount() != 1 {
		t.Error("expected the click to land with the fail-safe disabled")
	}
}

func TestFailSafe_PositionQueryFailureNeverBlocks(t *testing.T) {
	c, input, _ := newTestClient(t, &fakeVisual{})
	input.posErr = errors.New("no pointer")

	if err := c.Click(context.Background(), 100, 100); err != nil {
		t.Fatalf("a position query failure must not block input: %v", err)
	}
}

func TestInput_PausesWhileWindowUnfocused(t *testing.T) {
	c, input, window := newTestClient(t, &fakeVisual{})

	window.set("Another App")
	if err := c.StartWindowMonitoring(focusConfig("Test Window", 2*time.Millisecond)); err != nil {
		t.Fatalf("StartWindowMonitoring: %v", err)
	}
	defer c.StopWindowMonitoring()
	waitForFocusState(t, c, "unfocused")

	done := make(chan error, 1)
	go func() {
		done <- c.Click(context.Background(), 50, 50)
	}()

	select {
	case <-done:
		t.Fatal("click ran while the monitored window was unfocused")
	case <-time.After(30 * time.Millisecond):
	}
	if input.clickCount() != 0 {
		t.Fatal("no input may land while unfocused")
	}

	window.set("Test Window")
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("click never resumed after focus returned")
	}
	if input.clickCount() != 1 {
		t.Errorf("expected the queued click to land, got %d", input.clickCount())
	}
}

func TestStopWindowMonitoring_ReleasesPausedInput(t *testing.T) {
	c, _, window := newTestClient(t, &fakeVisual{})

	window.set("Another App")
	if err := c.StartWindowMonitoring(focusConfig("Test Window", 2*time.Millisecond)); err != nil {
		t.Fatalf("StartWindowMonitoring: %v", err)
	}
	waitForFocusState(t, c, "unfocused")

	done := make(chan error, 1)
	go func() {
		done <- c.Click(context.Background(), 50, 50)
	}()
	time.Sleep(10 * time.Millisecond)

	c.StopWindowMonitoring()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("StopWindowMonitoring did not release the paused input")
	}
}

func TestUseEngine_InFlightWaitKeepsItsProvider(t *testing.T) {
	slow := &fakeVisual{} // never yields a match
	c, _, _ := newTestClient(t, slow)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := c.FindText(ctx, "Ghost", TextOptions{Timeout: time.Hour, Interval: time.Millisecond})
		done <- err
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	// Swapping the provider mid-wait must not disturb the running loop.
	replacement := &fakeVisual{results: [][]match.Match{{textMatch("Ghost", 0, 0, 10, 10, 1)}}}
	c.visual = replacement

	time.Sleep(10 * time.Millisecond)
	if replacement.calls != 0 {
		t.Error("the in-flight wait must keep the provider captured at its start")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
