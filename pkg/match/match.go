// Package match holds the value types produced by visual queries: screen
// regions, matches, and the text filters applied to OCR results.
//
// All coordinates in this package are physical pixels. Providers that
// receive logical coordinates from the OS (e.g. Retina displays) must
// normalize before constructing a Match.
package match

import (
	"fmt"
	"sort"
)

// Kind identifies which kind of visual query produced a match.
type Kind int

const (
	KindText Kind = iota
	KindTemplate
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTemplate:
		return "template"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Match is the result of a visual query. Matches are immutable values and
// may be copied freely.
type Match struct {
	// Text is the recognized text. Empty for template and color matches.
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
	// Region is the bounding box of the match in physical pixels.
	Region Region `yaml:"region" json:"region"`
	// Confidence is the provider's score for the match, in [0, 1].
	Confidence float64 `yaml:"confidence" json:"confidence"`
	// Kind records the query type that produced the match.
	Kind Kind `yaml:"kind" json:"kind"`
}

// New validates and returns a Match.
func New(kind Kind, text string, region Region, confidence float64) (Match, error) {
	if confidence < 0 || confidence > 1 {
		return Match{}, fmt.Errorf("invalid confidence %v: must be in [0, 1]", confidence)
	}
	if region.Width < 0 || region.Height < 0 {
		return Match{}, fmt.Errorf("invalid match region %s: negative dimensions", region)
	}
	return Match{Text: text, Region: region, Confidence: confidence, Kind: kind}, nil
}

// Best selects the winning match from a non-empty result set: highest
// confidence first, ties broken by smaller region area (tighter hits are
// more specific), remaining ties by provider order. Returns false when the
// slice is empty.
func Best(matches []Match) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}
	idx := make([]int, len(matches))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ma, mb := matches[idx[a]], matches[idx[b]]
		if ma.Confidence != mb.Confidence {
			return ma.Confidence > mb.Confidence
		}
		return ma.Region.Area() < mb.Region.Area()
	})
	return matches[idx[0]], true
}
