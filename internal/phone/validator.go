package phone

import (
	"strconv"
	"strings"
)

// Verdict is the judgement for one number string.
type Verdict struct {
	IsInvalid       bool
	SuggestedFix    *string
	AutoFixable     bool
	TypeMismatch    bool
	ValidPhonewords bool

	// Canonical is the canonical rendering (extension included) whenever the
	// number was parseable; it drives cross-field duplicate matching even for
	// values that are already valid.
	Canonical string
}

// Validator judges one number string in the context of its feature: link
// resolution, extension splitting, phoneword decoding, exclusion overrides,
// then parse-and-compare against the canonical format.
type Validator struct {
	parser Parser
	rules  *Rules
	ext    *ExtensionExtractor
	excl   *ExclusionMatcher
}

// NewValidator wires a validator from the parsing service and rule tables.
func NewValidator(parser Parser, rules *Rules) *Validator {
	return &Validator{
		parser: parser,
		rules:  rules,
		ext:    NewExtensionExtractor(rules, parser),
		excl:   NewExclusionMatcher(rules.Exclusions),
	}
}

// Rules exposes the injected rule tables.
func (v *Validator) Rules() *Rules { return v.rules }

// Parser exposes the underlying parsing service.
func (v *Validator) Parser() Parser { return v.parser }

func unfixable() Verdict {
	return Verdict{IsInvalid: true}
}

// CheckNumber validates one number string from the named field of a feature.
// tags is the feature's full field map, consulted by the exclusion table.
func (v *Validator) CheckNumber(raw, country, field string, tags map[string]string) Verdict {
	text := strings.TrimSpace(raw)
	if text == "" {
		return unfixable()
	}

	switch link := ResolveLink(text); link.Kind {
	case LinkResource:
		return Verdict{AutoFixable: true}
	case LinkInvalid:
		return unfixable()
	case LinkNumber:
		text = link.Number
	}

	core, ext := v.ext.Split(text, country)

	phoneword := false
	if HasLetters(core) {
		if !v.rules.AllowsPhonewords(country) {
			return unfixable()
		}
		decoded, ok := DecodePhoneword(core)
		if !ok {
			return unfixable()
		}
		core = decoded
		phoneword = true
	}

	normalized := NormalizeSeparators(core)

	if e := v.excl.Match(country, nationalDigits(normalized, country), tags); e != nil {
		switch e.Policy {
		case ExclusionFixable:
			fix := e.Fix
			return Verdict{IsInvalid: true, AutoFixable: true, SuggestedFix: &fix, Canonical: fix}
		default:
			return Verdict{AutoFixable: true, Canonical: text}
		}
	}

	p := v.parser.Parse(normalized, country)
	if !p.Valid {
		return unfixable()
	}

	canonical := CanonicalFormat(p)
	if ext != nil {
		canonical += " x" + ext.Digits
	}

	verdict := Verdict{
		AutoFixable:     true,
		ValidPhonewords: phoneword,
		Canonical:       canonical,
	}
	if v.rules.IsMobileOnlyField(field) && !p.IsMobileCompatible() {
		verdict.TypeMismatch = true
	}
	if text != canonical {
		verdict.IsInvalid = true
		fix := canonical
		verdict.SuggestedFix = &fix
	}
	return verdict
}

// nationalDigits reduces text to its national significant digits for
// exclusion matching, dropping a leading country calling code when the text
// carried an international prefix.
func nationalDigits(s, country string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(s, "+") {
		if cc := RegionCallingCode(country); cc > 0 {
			digits = strings.TrimPrefix(digits, strconv.Itoa(cc))
		}
	}
	return digits
}
