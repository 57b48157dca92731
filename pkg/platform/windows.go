//go:build windows

package platform

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/romaklym/kronsteen/pkg/match"
)

func init() {
	NewProviderFunc = func() (*Provider, error) {
		return &Provider{
			Inputter:      &windowsInput{},
			Screenshotter: &windowsScreen{},
			WindowQuerier: &windowsWindow{},
			Launcher:      &windowsLauncher{},
		}, nil
	}
}

func powershell(script string) (string, error) {
	return run("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

const mouseEventType = `
Add-Type @"
using System;
using System.Runtime.InteropServices;
public class KronsteenMouse {
    [DllImport("user32.dll")]
    public static extern bool SetCursorPos(int x, int y);
    [DllImport("user32.dll")]
    public static extern void mouse_event(uint flags, uint dx, uint dy, int data, int extra);
}
"@
`

// mouse_event flag pairs per button.
var buttonFlags = map[MouseButton][2]string{
	MouseLeft:   {"0x0002", "0x0004"},
	MouseRight:  {"0x0008", "0x0010"},
	MouseMiddle: {"0x0020", "0x0040"},
}

type windowsInput struct{}

func (w *windowsInput) Click(x, y int, button MouseButton, count int) error {
	if count < 1 {
		count = 1
	}
	flags := buttonFlags[button]
	var b strings.Builder
	b.WriteString(mouseEventType)
	fmt.Fprintf(&b, "[KronsteenMouse]::SetCursorPos(%d, %d)\n", x, y)
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "[KronsteenMouse]::mouse_event(%s, 0, 0, 0, 0)\n", flags[0])
		fmt.Fprintf(&b, "[KronsteenMouse]::mouse_event(%s, 0, 0, 0, 0)\n", flags[1])
	}
	_, err := powershell(b.String())
	return err
}

func (w *windowsInput) MoveMouse(x, y int, durationMs int) error {
	_, err := powershell(mouseEventType + fmt.Sprintf("[KronsteenMouse]::SetCursorPos(%d, %d)", x, y))
	return err
}

func (w *windowsInput) Drag(fromX, fromY, toX, toY int) error {
	script := mouseEventType + fmt.Sprintf(`
[KronsteenMouse]::SetCursorPos(%d, %d)
[KronsteenMouse]::mouse_event(0x0002, 0, 0, 0, 0)
Start-Sleep -Milliseconds 100
[KronsteenMouse]::SetCursorPos(%d, %d)
[KronsteenMouse]::mouse_event(0x0004, 0, 0, 0, 0)
`, fromX, fromY, toX, toY)
	_, err := powershell(script)
	return err
}

func (w *windowsInput) Scroll(clicks int) error {
	// One wheel notch is 120 delta units.
	_, err := powershell(mouseEventType + fmt.Sprintf("[KronsteenMouse]::mouse_event(0x0800, 0, 0, %d, 0)", clicks*120))
	return err
}

func (w *windowsInput) TypeText(text string, delayMs int) error {
	escaped := escapeSendKeys(text)
	_, err := powershell(fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
[System.Windows.Forms.SendKeys]::SendWait(%q)
`, escaped))
	return err
}

func (w *windowsInput) KeyPress(name string) error {
	token, ok := sendKeysTokens[strings.ToLower(name)]
	if !ok {
		token = name
	}
	_, err := powershell(fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
[System.Windows.Forms.SendKeys]::SendWait(%q)
`, token))
	return err
}

func (w *windowsInput) KeyCombo(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("key combo requires at least one key")
	}
	var b strings.Builder
	for _, k := range keys[:len(keys)-1] {
		switch strings.ToLower(k) {
		case "ctrl", "control":
			b.WriteString("^")
		case "alt":
			b.WriteString("%")
		case "shift":
			b.WriteString("+")
		default:
			return fmt.Errorf("unknown modifier key: %q", k)
		}
	}
	key := strings.ToLower(keys[len(keys)-1])
	if token, ok := sendKeysTokens[key]; ok {
		b.WriteString(token)
	} else {
		b.WriteString(key)
	}
	_, err := powershell(fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
[System.Windows.Forms.SendKeys]::SendWait(%q)
`, b.String()))
	return err
}

var sendKeysTokens = map[string]string{
	"enter":     "{ENTER}",
	"return":    "{ENTER}",
	"tab":       "{TAB}",
	"esc":       "{ESC}",
	"escape":    "{ESC}",
	"space":     " ",
	"backspace": "{BACKSPACE}",
	"delete":    "{DELETE}",
	"up":        "{UP}",
	"down":      "{DOWN}",
	"left":      "{LEFT}",
	"right":     "{RIGHT}",
	"home":      "{HOME}",
	"end":       "{END}",
	"pageup":    "{PGUP}",
	"pagedown":  "{PGDN}",
}

// escapeSendKeys quotes characters SendKeys treats as control syntax.
func escapeSendKeys(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '+', '^', '%', '~', '(', ')', '{', '}', '[', ']':
			fmt.Fprintf(&b, "{%c}", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (w *windowsInput) MousePosition() (int, int, error) {
	out, err := powershell(`
Add-Type -AssemblyName System.Windows.Forms
$p = [System.Windows.Forms.Cursor]::Position
"$($p.X),$($p.Y)"
`)
	if err != nil {
		return 0, 0, err
	}
	parts := strings.Split(strings.TrimSpace(out), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected cursor position output: %q", out)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

type windowsScreen struct{}

func (w *windowsScreen) Capture(region *match.Region) (image.Image, error) {
	path, err := tempPNG()
	if err != nil {
		return nil, err
	}
	bounds := "[System.Windows.Forms.SystemInformation]::VirtualScreen"
	x, y := fmt.Sprintf("%s.X", bounds), fmt.Sprintf("%s.Y", bounds)
	width, height := fmt.Sprintf("%s.Width", bounds), fmt.Sprintf("%s.Height", bounds)
	if region != nil {
		x, y = fmt.Sprintf("%d", region.X), fmt.Sprintf("%d", region.Y)
		width, height = fmt.Sprintf("%d", region.Width), fmt.Sprintf("%d", region.Height)
	}
	script := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
Add-Type -AssemblyName System.Drawing
$bmp = New-Object System.Drawing.Bitmap (%s), (%s)
$gfx = [System.Drawing.Graphics]::FromImage($bmp)
$gfx.CopyFromScreen((%s), (%s), 0, 0, $bmp.Size)
$bmp.Save(%q, [System.Drawing.Imaging.ImageFormat]::Png)
$gfx.Dispose()
$bmp.Dispose()
`, width, height, x, y, path)
	if _, err := powershell(script); err != nil {
		return nil, err
	}
	return decodePNGFile(path)
}

type windowsWindow struct{}

func (w *windowsWindow) ActiveWindowTitle() (string, error) {
	return powershell(`
Add-Type @"
using System;
using System.Runtime.InteropServices;
using System.Text;
public class KronsteenWindow {
    [DllImport("user32.dll")]
    public static extern IntPtr GetForegroundWindow();
    [DllImport("user32.dll")]
    public static extern int GetWindowText(IntPtr hWnd, StringBuilder text, int count);
}
"@
$handle = [KronsteenWindow]::GetForegroundWindow()
$title = New-Object System.Text.StringBuilder 256
[void][KronsteenWindow]::GetWindowText($handle, $title, 256)
$title.ToString()
`)
}

type windowsLauncher struct{}

func (w *windowsLauncher) Launch(app string, args []string) error {
	cmd := append([]string{"/c", "start", "", app}, args...)
	_, err := run("cmd", cmd...)
	return err
}

func (w *windowsLauncher) Close(app string) error {
	name := app
	if !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}
	_, err := run("taskkill", "/F", "/IM", name)
	return err
}
