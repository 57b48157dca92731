package match

// Filter reduces a raw match list to the subset relevant to a text query.
//
// Filters run before any wait predicate: confidence cut first, then the
// match-mode predicate, then region scoping. The scope test expects every
// match already normalized to physical pixels (the provider's job) and
// keeps a match when its region's center point lies inside the scope.
type Filter struct {
	Query         string
	Mode          Mode
	CaseSensitive bool
	MinConfidence float64
	// Scope limits results to matches centered within this region.
	// Nil means no region scoping.
	Scope *Region
}

// Apply returns the matches that pass the filter. Template and color
// matches skip the text predicate (they carry no text) but still go through
// the confidence and scope cuts.
func (f Filter) Apply(matches []Match) ([]Match, error) {
	var kept []Match
	for _, m := range matches {
		if m.Confidence < f.MinConfidence {
			continue
		}
		if f.Query != "" && m.Kind == KindText {
			ok, err := f.Mode.Matches(m.Text, f.Query, f.CaseSensitive)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if f.Scope != nil {
			cx, cy := m.Region.Center()
			if !f.Scope.Contains(cx, cy) {
				continue
			}
		}
		kept = append(kept, m)
	}
	return kept, nil
}
