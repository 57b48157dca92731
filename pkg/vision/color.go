package vision

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/romaklym/kronsteen/pkg/match"
)

// NormalizeHexColor canonicalizes "#RGB" or "#RRGGBB" (leading # optional)
// to lowercase "#rrggbb" form.
func NormalizeHexColor(value string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if !strings.HasPrefix(normalized, "#") {
		normalized = "#" + normalized
	}
	switch len(normalized) {
	case 4:
		var b strings.Builder
		b.WriteByte('#')
		for _, ch := range normalized[1:] {
			b.WriteRune(ch)
			b.WriteRune(ch)
		}
		normalized = b.String()
	case 7:
	default:
		return "", fmt.Errorf("hex color %q must be #RGB or #RRGGBB", value)
	}
	if _, err := strconv.ParseUint(normalized[1:], 16, 32); err != nil {
		return "", fmt.Errorf("hex color %q is not valid hex: %w", value, err)
	}
	return normalized, nil
}

// HexToRGB converts a hex color to its 8-bit channel values.
func HexToRGB(value string) (uint8, uint8, uint8, error) {
	normalized, err := NormalizeHexColor(value)
	if err != nil {
		return 0, 0, 0, err
	}
	v, _ := strconv.ParseUint(normalized[1:], 16, 32)
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// ScanColor scans the image for the first pixel exactly matching the hex
// color and returns it as a 1x1 match relative to the image origin.
// Returns no matches (not an error) when the color is absent.
func ScanColor(img image.Image, hexColor string) ([]match.Match, error) {
	r, g, b, err := HexToRGB(hexColor)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			if uint8(pr>>8) == r && uint8(pg>>8) == g && uint8(pb>>8) == b {
				m, err := match.New(match.KindColor, "",
					match.Region{X: x - bounds.Min.X, Y: y - bounds.Min.Y, Width: 1, Height: 1}, 1.0)
				if err != nil {
					return nil, err
				}
				return []match.Match{m}, nil
			}
		}
	}
	return nil, nil
}
