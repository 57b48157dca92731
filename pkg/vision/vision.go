// Package vision exposes the visual providers behind a query: OCR engines
// that read text off the screen, a template matcher, and a color scanner.
// Every provider reports match coordinates in physical pixels; any
// logical-to-physical normalization happens inside the provider, never in
// the callers.
package vision

import (
	"context"
	"fmt"
	"image"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/romaklym/kronsteen/pkg/match"
)

// CaptureFunc captures the screen, or a region of it, in physical pixels.
// Wired to the platform screenshotter in production and to fixed images in
// tests.
type CaptureFunc func(region *match.Region) (image.Image, error)

// Request describes a single visual query.
type Request struct {
	// Kind selects the query type: text, template, or color.
	Kind match.Kind
	// Needle is the text query, the template image path, or the hex color,
	// depending on Kind.
	Needle string
	// Region scopes the capture. Match coordinates are always absolute
	// (screen space), regardless of scoping.
	Region *match.Region
}

// Provider answers visual queries. Implementations must be safe to call at
// a wait loop's retry cadence and must not cache results between calls.
type Provider interface {
	Query(ctx context.Context, req Request) ([]match.Match, error)
}

// OCR recognizes text in a captured image. Matches are relative to the
// image origin; the Screen provider translates them to screen space.
type OCR interface {
	Recognize(ctx context.Context, img image.Image) ([]match.Match, error)
}

// Engine selects which OCR backend answers text queries. The set is closed:
// only the two documented backends exist, selected by enumeration rather
// than an open-ended registry.
type Engine int

const (
	// EngineTesseract shells out to the tesseract binary. The default:
	// fast and dependency-light.
	EngineTesseract Engine = iota
	// EngineOllama sends captures to a local vision model through the
	// Ollama API. Slower, but reads text tesseract cannot.
	EngineOllama
)

// ParseEngine converts a string flag value to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(s) {
	case "tesseract", "":
		return EngineTesseract, nil
	case "ollama":
		return EngineOllama, nil
	default:
		return EngineTesseract, fmt.Errorf("unknown OCR engine: %q (expected tesseract or ollama)", s)
	}
}

func (e Engine) String() string {
	switch e {
	case EngineOllama:
		return "ollama"
	default:
		return "tesseract"
	}
}

// MarshalYAML writes the engine by name.
func (e Engine) MarshalYAML() (interface{}, error) {
	return e.String(), nil
}

// UnmarshalYAML reads the engine by name.
func (e *Engine) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseEngine(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Screen is the standard provider: it captures the screen and routes the
// query to the OCR backend, the template matcher, or the color scanner.
type Screen struct {
	ocr     OCR
	capture CaptureFunc
}

// NewScreen builds a provider over a capture function and an OCR backend.
func NewScreen(capture CaptureFunc, ocr OCR) *Screen {
	return &Screen{ocr: ocr, capture: capture}
}

// Query captures the (possibly scoped) screen and answers the request.
// Returned regions are absolute: when the request is scoped, the scope
// origin is added back onto every match.
func (s *Screen) Query(ctx context.Context, req Request) ([]match.Match, error) {
	img, err := s.capture(req.Region)
	if err != nil {
		return nil, fmt.Errorf("screen capture: %w", err)
	}

	var matches []match.Match
	switch req.Kind {
	case match.KindText:
		matches, err = s.ocr.Recognize(ctx, img)
	case match.KindTemplate:
		matches, err = MatchTemplate(img, req.Needle)
	case match.KindColor:
		matches, err = ScanColor(img, req.Needle)
	default:
		return nil, fmt.Errorf("unsupported query kind: %s", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	if req.Region != nil {
		for i := range matches {
			matches[i].Region.X += req.Region.X
			matches[i].Region.Y += req.Region.Y
		}
	}
	return matches, nil
}
