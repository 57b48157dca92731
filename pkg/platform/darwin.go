//go:build darwin

package platform

import (
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"github.com/romaklym/kronsteen/pkg/match"
)

func init() {
	NewProviderFunc = func() (*Provider, error) {
		scale := &scaleCache{}
		return &Provider{
			Inputter:      &darwinInput{scale: scale},
			Screenshotter: &darwinScreen{},
			WindowQuerier: &darwinWindow{},
			Launcher:      &darwinLauncher{},
		}, nil
	}
}

// scaleCache lazily measures the Retina scale factor by comparing a full
// capture's pixel width against the logical desktop width. cliclick speaks
// logical points while the rest of the system speaks physical pixels, so
// every injected coordinate is divided by this factor.
type scaleCache struct {
	once  sync.Once
	value float64
}

func (s *scaleCache) factor() float64 {
	s.once.Do(func() {
		s.value = 1.0
		out, err := run("osascript", "-e", `tell application "Finder" to get bounds of window of desktop`)
		if err != nil {
			return
		}
		parts := strings.Split(out, ",")
		if len(parts) != 4 {
			return
		}
		logicalW, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || logicalW <= 0 {
			return
		}
		path, err := tempPNG()
		if err != nil {
			return
		}
		if _, err := run("screencapture", "-x", path); err != nil {
			return
		}
		img, err := decodePNGFile(path)
		if err != nil {
			return
		}
		if w := img.Bounds().Dx(); w > 0 {
			s.value = float64(w) / float64(logicalW)
		}
	})
	return s.value
}

type darwinInput struct {
	scale *scaleCache
}

func (d *darwinInput) logical(v int) int {
	return int(float64(v) / d.scale.factor())
}

func (d *darwinInput) point(x, y int) string {
	return fmt.Sprintf("%d,%d", d.logical(x), d.logical(y))
}

func (d *darwinInput) Click(x, y int, button MouseButton, count int) error {
	var op string
	switch {
	case button == MouseRight:
		op = "rc"
	case count >= 3:
		op = "tc"
	case count == 2:
		op = "dc"
	default:
		op = "c"
	}
	if button == MouseMiddle {
		return fmt.Errorf("middle click is not supported on darwin (cliclick has no middle-button event)")
	}
	_, err := run("cliclick", fmt.Sprintf("%s:%s", op, d.point(x, y)))
	return err
}

func (d *darwinInput) MoveMouse(x, y int, durationMs int) error {
	args := []string{}
	if durationMs > 0 {
		// cliclick easing approximates a timed move.
		args = append(args, "-e", strconv.Itoa(durationMs))
	}
	args = append(args, fmt.Sprintf("m:%s", d.point(x, y)))
	_, err := run("cliclick", args...)
	return err
}

func (d *darwinInput) Drag(fromX, fromY, toX, toY int) error {
	_, err := run("cliclick",
		fmt.Sprintf("dd:%s", d.point(fromX, fromY)),
		fmt.Sprintf("du:%s", d.point(toX, toY)))
	return err
}

func (d *darwinInput) Scroll(clicks int) error {
	return fmt.Errorf("scroll is not supported on darwin: cliclick provides no wheel events")
}

func (d *darwinInput) TypeText(text string, delayMs int) error {
	args := []string{}
	if delayMs > 0 {
		args = append(args, "-w", strconv.Itoa(delayMs))
	}
	args = append(args, "t:"+text)
	_, err := run("cliclick", args...)
	return err
}

func (d *darwinInput) KeyPress(name string) error {
	_, err := run("cliclick", "kp:"+strings.ToLower(name))
	return err
}

var darwinModifiers = map[string]string{
	"cmd":     "command down",
	"command": "command down",
	"ctrl":    "control down",
	"control": "control down",
	"alt":     "option down",
	"option":  "option down",
	"shift":   "shift down",
}

func (d *darwinInput) KeyCombo(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("key combo requires at least one key")
	}
	var mods []string
	key := keys[len(keys)-1]
	for _, k := range keys[:len(keys)-1] {
		mod, ok := darwinModifiers[strings.ToLower(k)]
		if !ok {
			return fmt.Errorf("unknown modifier key: %q", k)
		}
		mods = append(mods, mod)
	}
	script := fmt.Sprintf("tell application %q to keystroke %q", "System Events", key)
	if len(mods) > 0 {
		script += fmt.Sprintf(" using {%s}", strings.Join(mods, ", "))
	}
	_, err := run("osascript", "-e", script)
	return err
}

func (d *darwinInput) MousePosition() (int, int, error) {
	out, err := run("cliclick", "p")
	if err != nil {
		return 0, 0, err
	}
	parts := strings.Split(out, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected cliclick position output: %q", out)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	f := d.scale.factor()
	return int(float64(x) * f), int(float64(y) * f), nil
}

type darwinScreen struct{}

func (d *darwinScreen) Capture(region *match.Region) (image.Image, error) {
	path, err := tempPNG()
	if err != nil {
		return nil, err
	}
	args := []string{"-x", "-t", "png"}
	if region != nil {
		args = append(args, "-R", fmt.Sprintf("%d,%d,%d,%d", region.X, region.Y, region.Width, region.Height))
	}
	args = append(args, path)
	if _, err := run("screencapture", args...); err != nil {
		return nil, err
	}
	return decodePNGFile(path)
}

type darwinWindow struct{}

func (d *darwinWindow) ActiveWindowTitle() (string, error) {
	return run("osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`)
}

type darwinLauncher struct{}

func (d *darwinLauncher) Launch(app string, args []string) error {
	cmd := []string{"-a", app}
	if len(args) > 0 {
		cmd = append(cmd, "--args")
		cmd = append(cmd, args...)
	}
	_, err := run("open", cmd...)
	return err
}

func (d *darwinLauncher) Close(app string) error {
	_, err := run("osascript", "-e", fmt.Sprintf("tell application %q to quit", app))
	return err
}
