package vision

import (
	"image"
	"image/color"
	"testing"
)

func TestNormalizeHexColor(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"#FF0000", "#ff0000", false},
		{"ff0000", "#ff0000", false},
		{"#f00", "#ff0000", false},
		{"abc", "#aabbcc", false},
		{"  #00FF7F  ", "#00ff7f", false},
		{"#12345", "", true},
		{"#gggggg", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeHexColor(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeHexColor(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeHexColor(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeHexColor(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHexToRGB(t *testing.T) {
	r, g, b, err := HexToRGB("#1a2b3c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != 0x1a || g != 0x2b || b != 0x3c {
		t.Errorf("HexToRGB = (%d, %d, %d), want (26, 43, 60)", r, g, b)
	}
}

func TestScanColor_Found(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(7, 3, color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff})

	matches, err := ScanColor(img, "#ff0000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.Region.X != 7 || m.Region.Y != 3 {
		t.Errorf("expected match at (7, 3), got (%d, %d)", m.Region.X, m.Region.Y)
	}
	if m.Region.Width != 1 || m.Region.Height != 1 {
		t.Errorf("expected a 1x1 region, got %+v", m.Region)
	}
	if m.Confidence != 1.0 {
		t.Errorf("exact pixel hits carry confidence 1.0, got %v", m.Confidence)
	}
}

func TestScanColor_AbsentIsNotAnError(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))

	matches, err := ScanColor(img, "#00ff00")
	if err != nil {
		t.Fatalf("absence must not be an error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %+v", matches)
	}
}

func TestScanColor_OffsetBounds(t *testing.T) {
	// Sub-images keep their parent's coordinate space; matches must be
	// reported relative to the image origin.
	base := image.NewRGBA(image.Rect(0, 0, 20, 20))
	base.Set(12, 14, color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff})
	sub := base.SubImage(image.Rect(10, 10, 20, 20))

	matches, err := ScanColor(sub, "#0000ff")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Region.X != 2 || matches[0].Region.Y != 4 {
		t.Errorf("expected origin-relative (2, 4), got (%d, %d)", matches[0].Region.X, matches[0].Region.Y)
	}
}

func TestScanColor_InvalidColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if _, err := ScanColor(img, "#nothex"); err == nil {
		t.Error("expected an error for an invalid color")
	}
}
