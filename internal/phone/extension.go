package phone

import (
	"regexp"
	"strings"
	"sync"
)

// Extension is a sub-address suffix split off the core number text.
type Extension struct {
	Digits string
	Marker string
	// Standard is true when the marker already uses the canonical spelling
	// and spacing. It feeds fixability classification, not validity.
	Standard bool
}

// genericMarkers are recognized in every country, longest first so that
// "extension" is not consumed as "ext" plus garbage.
var genericMarkers = []string{"extension", "ext.", "ext", "x"}

// ExtensionExtractor splits a trailing extension marker from a number
// string, country-aware: generic x/ext markers everywhere, configured
// keyword markers (wew, poste, ...) and the hyphen-suffix convention in the
// countries that use them.
type ExtensionExtractor struct {
	rules  *Rules
	parser Parser

	mu      sync.Mutex
	byMarks map[string]*regexp.Regexp
}

// NewExtensionExtractor builds an extractor over the given rule tables. The
// parser is needed for the hyphen convention, which only applies when the
// remaining core is already a valid number.
func NewExtensionExtractor(rules *Rules, parser Parser) *ExtensionExtractor {
	return &ExtensionExtractor{
		rules:   rules,
		parser:  parser,
		byMarks: make(map[string]*regexp.Regexp),
	}
}

var dinSuffix = regexp.MustCompile(`^(.+?\d)[-–—]([0-9]{1,5})$`)

// Split separates text into core number and extension. When no recognized
// marker is present the full text comes back with a nil extension.
func (e *ExtensionExtractor) Split(text, country string) (string, *Extension) {
	trimmed := strings.TrimSpace(text)

	markers := append([]string{}, e.rules.MarkersFor(country)...)
	markers = append(markers, genericMarkers...)

	if m := e.markerPattern(markers).FindStringSubmatch(trimmed); m != nil {
		core := strings.TrimSpace(m[1])
		marker := strings.ToLower(m[3])
		return core, &Extension{
			Digits:   m[5],
			Marker:   marker,
			Standard: isStandardSpacing(marker, m[2], m[4]),
		}
	}

	if e.rules.HasDINExtensions(country) {
		if m := dinSuffix.FindStringSubmatch(trimmed); m != nil {
			core := strings.TrimSpace(m[1])
			if hasDialingPrefix(core) && e.parser.Parse(NormalizeSeparators(core), country).Valid {
				return core, &Extension{Digits: m[2], Marker: "-"}
			}
		}
	}

	return trimmed, nil
}

// hasDialingPrefix reports whether the text is written as a dialable number,
// with an international prefix or trunk zero. The hyphen-extension convention
// only applies to such numbers; bare subscriber digits can accidentally
// re-parse as a shorter valid number once the suffix is stripped (dashed
// NANP numbers in particular), so they never take the split.
func hasDialingPrefix(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "(")
	return strings.HasPrefix(s, "+") || strings.HasPrefix(s, "0")
}

// markerPattern compiles (and caches) the suffix pattern for a marker set.
// The core must end in a digit so a bare "x123" is never split.
func (e *ExtensionExtractor) markerPattern(markers []string) *regexp.Regexp {
	key := strings.Join(markers, "|")

	e.mu.Lock()
	defer e.mu.Unlock()
	if re, ok := e.byMarks[key]; ok {
		return re
	}

	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	re := regexp.MustCompile(`(?i)^(.*?\d)([\s,;:/.-]*)(` + strings.Join(quoted, "|") + `)([\s.:-]*)([0-9]{1,5})$`)
	e.byMarks[key] = re
	return re
}

// isStandardSpacing reports whether the marker matched the canonical
// rendering exactly: " x123" (or "x123" flush against the number) and
// "... ext. 123". Everything else needs reformatting.
func isStandardSpacing(marker, pre, post string) bool {
	switch marker {
	case "x":
		return (pre == "" || pre == " ") && post == ""
	case "ext.":
		return pre == " " && post == " "
	default:
		return false
	}
}
