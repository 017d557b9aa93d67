package phone

import (
	"regexp"
	"strings"
)

// TagVerdict aggregates per-number verdicts over one field's raw text.
type TagVerdict struct {
	IsInvalid     bool
	IsAutoFixable bool

	// SuggestedNumbers holds the canonical rendering of every candidate that
	// is not type-mismatched, in input order, within-field duplicates
	// collapsed. MismatchTypeNumbers holds the canonicals that must move to
	// a voice field.
	SuggestedNumbers    []string
	MismatchTypeNumbers []string

	NumberOfValues  int
	ValidPhonewords bool
	BadSeparator    bool
}

var (
	wordSeparator     = regexp.MustCompile(`(?i)\s+(?:or|and)\s+`)
	interiorPlus      = regexp.MustCompile(`(\d)\s+\+`)
	nonCanonicalSplit = strings.NewReplacer(",", ";", "/", ";", "|", ";")
)

// splitValues breaks a multi-valued field into candidate number strings.
// The canonical separator is a semicolon; every other accepted separator is
// still splittable but flags the field as non-canonical. Link values are
// never split (their paths legitimately contain slashes).
func splitValues(raw string) (parts []string, bad bool) {
	s := strings.TrimSpace(raw)
	if ResolveLink(s).Kind != LinkNone {
		return []string{s}, false
	}

	if strings.HasPrefix(s, "++") {
		s = s[1:]
		bad = true
	}
	if t := strings.ReplaceAll(s, `\;`, ";"); t != s {
		s, bad = t, true
	}
	if t := wordSeparator.ReplaceAllString(s, ";"); t != s {
		s, bad = t, true
	}
	if t := nonCanonicalSplit.Replace(s); t != s {
		s, bad = t, true
	}
	if strings.Count(s, "+") > 1 {
		if t := interiorPlus.ReplaceAllString(s, "$1;+"); t != s {
			s, bad = t, true
		}
	}

	for _, p := range strings.Split(s, ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts, bad
}

// CheckTag splits one field's raw text, validates every candidate and
// aggregates the field-level verdict.
func (v *Validator) CheckTag(raw, country, field string, tags map[string]string) TagVerdict {
	parts, bad := splitValues(raw)
	tv := TagVerdict{NumberOfValues: len(parts), BadSeparator: bad}
	if len(parts) == 0 {
		tv.IsInvalid = true
		return tv
	}

	// More than one plausible phoneword in a single field: give up rather
	// than guess which one to decode.
	phonewordCandidates := 0
	for _, p := range parts {
		if ResolveLink(p).Kind == LinkNone && HasLetters(p) {
			if core, _ := v.ext.Split(p, country); HasLetters(core) {
				phonewordCandidates++
			}
		}
	}
	if phonewordCandidates > 1 {
		tv.IsInvalid = true
		return tv
	}

	tv.IsAutoFixable = true
	anyInvalid := false
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		nv := v.CheckNumber(p, country, field, tags)
		anyInvalid = anyInvalid || nv.IsInvalid
		tv.IsAutoFixable = tv.IsAutoFixable && nv.AutoFixable
		tv.ValidPhonewords = tv.ValidPhonewords || nv.ValidPhonewords

		if nv.Canonical == "" {
			continue
		}
		if nv.TypeMismatch {
			tv.MismatchTypeNumbers = append(tv.MismatchTypeNumbers, nv.Canonical)
			continue
		}
		if seen[nv.Canonical] {
			// Within-field duplicate: collapse and flag.
			anyInvalid = true
			continue
		}
		seen[nv.Canonical] = true
		tv.SuggestedNumbers = append(tv.SuggestedNumbers, nv.Canonical)
	}

	tv.IsInvalid = anyInvalid || tv.BadSeparator || len(tv.MismatchTypeNumbers) > 0
	return tv
}

// JoinNumbers renders a multi-value field suggestion in canonical form.
func JoinNumbers(numbers []string) string {
	return strings.Join(numbers, "; ")
}
