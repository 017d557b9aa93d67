package phone

import (
	"strings"
	"unicode"
)

// keypadDigit maps a letter to its telephone keypad digit.
func keypadDigit(r rune) (rune, bool) {
	switch unicode.ToUpper(r) {
	case 'A', 'B', 'C':
		return '2', true
	case 'D', 'E', 'F':
		return '3', true
	case 'G', 'H', 'I':
		return '4', true
	case 'J', 'K', 'L':
		return '5', true
	case 'M', 'N', 'O':
		return '6', true
	case 'P', 'Q', 'R', 'S':
		return '7', true
	case 'T', 'U', 'V':
		return '8', true
	case 'W', 'X', 'Y', 'Z':
		return '9', true
	}
	return 0, false
}

// HasLetters reports whether the text contains any ASCII letter.
func HasLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// DecodePhoneword converts a vanity number to digits, keeping separators in
// place ("1-870-KAKESNY" -> "1-870-5253769"). Letters must span whole
// separator-delimited segments; a segment mixing digits and letters is not a
// phoneword and decoding fails.
func DecodePhoneword(s string) (string, bool) {
	segments := strings.FieldsFunc(s, isPhonewordSeparator)
	sawLetters := false
	for _, seg := range segments {
		hasDigit, hasLetter := false, false
		for _, r := range seg {
			switch {
			case unicode.IsDigit(r):
				hasDigit = true
			case unicode.IsLetter(r):
				hasLetter = true
			default:
				return "", false
			}
		}
		if hasDigit && hasLetter {
			return "", false
		}
		sawLetters = sawLetters || hasLetter
	}
	if !sawLetters {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) {
			d, ok := keypadDigit(r)
			if !ok {
				return "", false
			}
			b.WriteRune(d)
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), true
}

func isPhonewordSeparator(r rune) bool {
	switch r {
	case ' ', '-', '.', '/', '(', ')', '+':
		return true
	}
	return false
}
