package match

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is a rectangle on screen in physical-pixel coordinates.
// X and Y may be negative on multi-monitor layouts where a display sits
// left of or above the primary origin; Width and Height are never negative.
type Region struct {
	X      int `yaml:"x"      json:"x"`
	Y      int `yaml:"y"      json:"y"`
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// NewRegion validates and returns a Region.
func NewRegion(x, y, width, height int) (Region, error) {
	if width < 0 || height < 0 {
		return Region{}, fmt.Errorf("invalid region %d,%d,%d,%d: width and height must be non-negative", x, y, width, height)
	}
	return Region{X: x, Y: y, Width: width, Height: height}, nil
}

// ParseRegion parses a "x,y,w,h" string into a Region.
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("invalid region %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		vals[i] = v
	}
	return NewRegion(vals[0], vals[1], vals[2], vals[3])
}

// Center returns the center point of the region.
func (r Region) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the region's area in pixels.
func (r Region) Area() int {
	return r.Width * r.Height
}

// Contains reports whether the point (x, y) lies within the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether r and other overlap.
func (r Region) Intersects(other Region) bool {
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}

// Expand grows the region by pad pixels on every side.
func (r Region) Expand(pad int) Region {
	return Region{
		X:      r.X - pad,
		Y:      r.Y - pad,
		Width:  r.Width + pad*2,
		Height: r.Height + pad*2,
	}
}

// IsZero reports whether the region is the zero value.
func (r Region) IsZero() bool {
	return r == Region{}
}

func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}
