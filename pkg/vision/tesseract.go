package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/romaklym/kronsteen/pkg/match"
)

// Tesseract recognizes text by shelling out to the tesseract binary and
// parsing its TSV word boxes. Confidences arrive as 0-100 and are
// normalized to [0, 1].
type Tesseract struct {
	// BinaryPath overrides binary discovery. When empty, a bundled
	// ./tesseract/tesseract next to the working directory wins over PATH.
	BinaryPath string
	// Languages is passed as -l when set, e.g. "eng+deu".
	Languages string
}

// NewTesseract returns a Tesseract backend using binary discovery.
func NewTesseract() *Tesseract {
	return &Tesseract{}
}

func (t *Tesseract) binary() (string, error) {
	if t.BinaryPath != "" {
		return t.BinaryPath, nil
	}
	for _, candidate := range []string{
		filepath.Join("tesseract", "tesseract"),
		filepath.Join("tesseract", "tesseract.exe"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	path, err := exec.LookPath("tesseract")
	if err != nil {
		return "", fmt.Errorf("tesseract binary not found (install it or set BinaryPath): %w", err)
	}
	return path, nil
}

// Recognize runs tesseract over the image and returns one match per
// recognized word, relative to the image origin.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]match.Match, error) {
	bin, err := t.binary()
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "kronsteen-ocr-*.png")
	if err != nil {
		return nil, err
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return nil, fmt.Errorf("encode capture for OCR: %w", err)
	}
	f.Close()

	args := []string{tmpPath, "stdout"}
	if t.Languages != "" {
		args = append(args, "-l", t.Languages)
	}
	args = append(args, "tsv")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("tesseract: %s", msg)
	}
	return ParseTSV(stdout.String())
}

// ParseTSV parses tesseract's TSV output into word matches. Rows with empty
// text or the sentinel confidence -1 (structural rows: pages, blocks,
// lines) are skipped.
func ParseTSV(tsv string) ([]match.Match, error) {
	lines := strings.Split(tsv, "\n")
	if len(lines) == 0 {
		return nil, nil
	}

	// Column order varies across tesseract versions; resolve by header.
	header := strings.Split(strings.TrimRight(lines[0], "\r"), "\t")
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"left", "top", "width", "height", "conf", "text"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("unexpected tesseract tsv header: missing %q column", required)
		}
	}

	var matches []match.Match
	for _, line := range lines[1:] {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < len(header) {
			continue
		}
		text := strings.TrimSpace(fields[col["text"]])
		if text == "" {
			continue
		}
		conf, err := strconv.ParseFloat(fields[col["conf"]], 64)
		if err != nil || conf < 0 {
			continue
		}
		x, _ := strconv.Atoi(fields[col["left"]])
		y, _ := strconv.Atoi(fields[col["top"]])
		w, _ := strconv.Atoi(fields[col["width"]])
		h, _ := strconv.Atoi(fields[col["height"]])
		m, err := match.New(match.KindText, text, match.Region{X: x, Y: y, Width: w, Height: h}, conf/100.0)
		if err != nil {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}
