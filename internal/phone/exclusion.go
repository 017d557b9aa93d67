package phone

import "strings"

// ExclusionMatcher applies the static override table of
// (country, number, required-tag) exceptions.
type ExclusionMatcher struct {
	entries []Exclusion
}

// NewExclusionMatcher builds a matcher over an exclusion table.
func NewExclusionMatcher(entries []Exclusion) *ExclusionMatcher {
	return &ExclusionMatcher{entries: entries}
}

// Match returns the first exclusion covering the parsed national number in
// the given country whose required tags are all present on the feature, or
// nil when none applies.
func (m *ExclusionMatcher) Match(country, nationalNumber string, tags map[string]string) *Exclusion {
	for i := range m.entries {
		e := &m.entries[i]
		if e.Country != country {
			continue
		}
		// Tolerate a national trunk prefix in the raw digits.
		if e.Number != nationalNumber && e.Number != strings.TrimPrefix(nationalNumber, "0") {
			continue
		}
		if tagsSatisfy(e.RequiredTags, tags) {
			return e
		}
	}
	return nil
}

func tagsSatisfy(required, tags map[string]string) bool {
	for k, v := range required {
		if tags[k] != v {
			return false
		}
	}
	return true
}
