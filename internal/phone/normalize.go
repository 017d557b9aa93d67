package phone

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Exotic space and separator variants seen in the wild. Bidi control
// characters (category Cf) are stripped outright; the rest collapse to a
// plain space so the parser sees ordinary separators.
var spaceLikes = map[rune]rune{
	'\t':     ' ',
	' ': ' ', // no-break space
	' ': ' ', // thin space
	' ': ' ', // narrow no-break space
	'　': ' ', // ideographic space
	'·': ' ', // middle dot
	'_':      ' ',
	'~':      ' ',
}

var separatorNormalizer = transform.Chain(
	runes.Remove(runes.In(unicode.Cf)),
	runes.Map(func(r rune) rune {
		if mapped, ok := spaceLikes[r]; ok {
			return mapped
		}
		return r
	}),
)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// NormalizeSeparators maps whitespace and separator variants to their plain
// equivalents and collapses runs of spaces. It feeds the parser only; the
// validity comparison still runs against the raw text.
func NormalizeSeparators(s string) string {
	out, _, err := transform.String(separatorNormalizer, s)
	if err != nil {
		out = s
	}
	out = multiSpace.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
