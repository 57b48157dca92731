package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode is the string-comparison strategy used to decide whether recognized
// text satisfies a text query.
type Mode int

const (
	// ModeContains matches when the query is a substring of the candidate.
	ModeContains Mode = iota
	// ModeEquals matches when the candidate, after trimming surrounding
	// whitespace, equals the query.
	ModeEquals
	// ModeStartsWith matches when the candidate begins with the query.
	ModeStartsWith
	// ModeRegex compiles the query as a pattern and matches when it finds
	// at least one occurrence in the candidate.
	ModeRegex
)

// ParseMode converts a string flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "contains", "":
		return ModeContains, nil
	case "equals":
		return ModeEquals, nil
	case "starts-with", "startswith":
		return ModeStartsWith, nil
	case "regex":
		return ModeRegex, nil
	default:
		return ModeContains, fmt.Errorf("unknown match mode: %q (expected contains, equals, starts-with, or regex)", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeContains:
		return "contains"
	case ModeEquals:
		return "equals"
	case ModeStartsWith:
		return "starts-with"
	case ModeRegex:
		return "regex"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Matches reports whether candidate satisfies query under this mode.
// Comparison is case-insensitive unless caseSensitive is set. Regex queries
// that fail to compile return an error rather than silently not matching.
func (m Mode) Matches(candidate, query string, caseSensitive bool) (bool, error) {
	if m == ModeRegex {
		pattern := query
		if !caseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid regex query %q: %w", query, err)
		}
		return re.MatchString(candidate), nil
	}

	left, right := candidate, query
	if !caseSensitive {
		left = strings.ToLower(left)
		right = strings.ToLower(right)
	}
	switch m {
	case ModeEquals:
		return strings.TrimSpace(left) == right, nil
	case ModeContains:
		return strings.Contains(left, right), nil
	case ModeStartsWith:
		return strings.HasPrefix(left, right), nil
	default:
		return false, fmt.Errorf("unsupported match mode: %s", m)
	}
}
