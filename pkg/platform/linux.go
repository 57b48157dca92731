//go:build linux

package platform

import (
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"

	"github.com/romaklym/kronsteen/pkg/match"
)

func init() {
	NewProviderFunc = func() (*Provider, error) {
		return &Provider{
			Inputter:      &linuxInput{},
			Screenshotter: &linuxScreen{},
			WindowQuerier: &linuxWindow{},
			Launcher:      &linuxLauncher{},
		}, nil
	}
}

// linuxInput drives X11 input through xdotool. X11 reports physical pixels
// directly, so no coordinate scaling is needed.
type linuxInput struct{}

func xdoButton(button MouseButton) string {
	switch button {
	case MouseRight:
		return "3"
	case MouseMiddle:
		return "2"
	default:
		return "1"
	}
}

func (l *linuxInput) Click(x, y int, button MouseButton, count int) error {
	if count < 1 {
		count = 1
	}
	if _, err := run("xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
		return err
	}
	_, err := run("xdotool", "click", "--repeat", strconv.Itoa(count), xdoButton(button))
	return err
}

func (l *linuxInput) MoveMouse(x, y int, durationMs int) error {
	_, err := run("xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y))
	return err
}

func (l *linuxInput) Drag(fromX, fromY, toX, toY int) error {
	steps := [][]string{
		{"mousemove", strconv.Itoa(fromX), strconv.Itoa(fromY)},
		{"mousedown", "1"},
		{"mousemove", strconv.Itoa(toX), strconv.Itoa(toY)},
		{"mouseup", "1"},
	}
	for _, step := range steps {
		if _, err := run("xdotool", step...); err != nil {
			return err
		}
	}
	return nil
}

func (l *linuxInput) Scroll(clicks int) error {
	// Wheel up is button 4, wheel down is button 5.
	button := "4"
	if clicks < 0 {
		button = "5"
		clicks = -clicks
	}
	if clicks == 0 {
		return nil
	}
	_, err := run("xdotool", "click", "--repeat", strconv.Itoa(clicks), button)
	return err
}

func (l *linuxInput) TypeText(text string, delayMs int) error {
	args := []string{"type"}
	if delayMs > 0 {
		args = append(args, "--delay", strconv.Itoa(delayMs))
	}
	args = append(args, "--", text)
	_, err := run("xdotool", args...)
	return err
}

func (l *linuxInput) KeyPress(name string) error {
	_, err := run("xdotool", "key", name)
	return err
}

func (l *linuxInput) KeyCombo(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("key combo requires at least one key")
	}
	combo := keys[0]
	for _, k := range keys[1:] {
		combo += "+" + k
	}
	_, err := run("xdotool", "key", combo)
	return err
}

func (l *linuxInput) MousePosition() (int, int, error) {
	// Output: "x:123 y:456 screen:0 window:12345"
	out, err := run("xdotool", "getmouselocation")
	if err != nil {
		return 0, 0, err
	}
	x, y := -1, -1
	for _, field := range strings.Fields(out) {
		if v, ok := strings.CutPrefix(field, "x:"); ok {
			x, _ = strconv.Atoi(v)
		}
		if v, ok := strings.CutPrefix(field, "y:"); ok {
			y, _ = strconv.Atoi(v)
		}
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("unexpected xdotool mouse location output: %q", out)
	}
	return x, y, nil
}

type linuxScreen struct{}

func (l *linuxScreen) Capture(region *match.Region) (image.Image, error) {
	path, err := tempPNG()
	if err != nil {
		return nil, err
	}
	if _, lookErr := exec.LookPath("import"); lookErr == nil {
		args := []string{"-window", "root"}
		if region != nil {
			args = append(args, "-crop", fmt.Sprintf("%dx%d+%d+%d", region.Width, region.Height, region.X, region.Y))
		}
		args = append(args, "png:"+path)
		if _, err := run("import", args...); err != nil {
			return nil, err
		}
		return decodePNGFile(path)
	}
	// Wayland fallback.
	args := []string{}
	if region != nil {
		args = append(args, "-g", fmt.Sprintf("%d,%d %dx%d", region.X, region.Y, region.Width, region.Height))
	}
	args = append(args, path)
	if _, err := run("grim", args...); err != nil {
		return nil, err
	}
	return decodePNGFile(path)
}

type linuxWindow struct{}

func (l *linuxWindow) ActiveWindowTitle() (string, error) {
	return run("xdotool", "getactivewindow", "getwindowname")
}

type linuxLauncher struct{}

func (l *linuxLauncher) Launch(app string, args []string) error {
	cmd := exec.Command(app, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", app, err)
	}
	// Detach: the automation flow never waits on launched apps.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (l *linuxLauncher) Close(app string) error {
	_, err := run("pkill", "-f", app)
	return err
}
