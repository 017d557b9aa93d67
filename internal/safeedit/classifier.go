// Package safeedit decides which corrections are provably equivalent to the
// original value and therefore safe to apply without human review.
package safeedit

import (
	"regexp"

	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/internal/phone"
)

// allowedOriginal is the character allow-list for originals. Anything else
// (quoted labels, annotations, letters) is never safe to auto-rewrite.
var allowedOriginal = regexp.MustCompile(`^[0-9+ .()\-]+$`)

// Classifier re-derives each proposed fix independently before declaring it
// safe. It is deliberately stricter than the validator that produced the fix.
type Classifier struct {
	validator *phone.Validator
}

// NewClassifier builds a classifier around the same validator configuration
// used for the validation pass.
func NewClassifier(v *phone.Validator) *Classifier {
	return &Classifier{validator: v}
}

// IsSafeEdit reports whether replacing original with proposed is a provable
// round-trip: the original must re-validate to exactly the proposed text,
// and the proposed text must parse as a valid number of a dialing region
// consistent with the country.
func (c *Classifier) IsSafeEdit(original string, proposed *string, country string) bool {
	if original == "" || proposed == nil || *proposed == "" {
		return false
	}
	if !allowedOriginal.MatchString(original) {
		return false
	}

	verdict := c.validator.CheckNumber(original, country, "phone", nil)
	if !verdict.AutoFixable || verdict.SuggestedFix == nil || *verdict.SuggestedFix != *proposed {
		return false
	}

	p := c.validator.Parser().Parse(*proposed, country)
	if !p.Valid {
		return false
	}
	// Accept sibling regions that share the country's calling code (the
	// North American plan spans many ISO countries).
	return p.Region == country || p.CountryCode == phone.RegionCallingCode(country)
}

// IsSafeItemEdit reports whether every correction on the record is safe for
// unattended application. Any duplicate resolution, type relocation or
// unfixable field disqualifies the whole feature.
func (c *Classifier) IsSafeItemEdit(rec *model.FeatureRecord, country string) bool {
	if !rec.AutoFixable || rec.HasTypeMismatch {
		return false
	}
	if len(rec.MismatchTypeNumbers) > 0 || len(rec.DuplicateNumbers) > 0 {
		return false
	}
	if rec.Validate() != nil {
		return false
	}
	for field, original := range rec.InvalidNumbers {
		if !c.IsSafeEdit(original, rec.SuggestedFixes[field], country) {
			return false
		}
	}
	return true
}
