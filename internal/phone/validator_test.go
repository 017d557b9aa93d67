package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return NewValidator(NewParser(), DefaultRules())
}

func TestCheckNumber_CanonicalIsValid(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		raw     string
		country string
	}{
		{"GB landline", "+44 20 7946 0000", "GB"},
		{"GB mobile", "+44 7901 854574", "GB"},
		{"US NANP dashes", "+1-213-373-1234", "US"},
		{"GB with extension", "+44 20 7946 0000 x123", "GB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := v.CheckNumber(tt.raw, tt.country, "phone", nil)
			assert.False(t, verdict.IsInvalid)
			assert.True(t, verdict.AutoFixable)
			assert.Nil(t, verdict.SuggestedFix)
		})
	}
}

func TestCheckNumber_MisformattedButParseable(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		raw     string
		country string
		fix     string
	}{
		{"national format", "0207 9460000", "GB", "+44 20 7946 0000"},
		{"US parens", "(213) 373-1234", "US", "+1-213-373-1234"},
		{"five digit area code", "+44 1768 779 280", "GB", "+44 17687 79280"},
		{"no break spaces", "+44 20 7946 0000", "GB", "+44 20 7946 0000"},
		{"middle dots", "+44·20·7946·0000", "GB", "+44 20 7946 0000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := v.CheckNumber(tt.raw, tt.country, "phone", nil)
			assert.True(t, verdict.IsInvalid)
			assert.True(t, verdict.AutoFixable)
			require.NotNil(t, verdict.SuggestedFix)
			assert.Equal(t, tt.fix, *verdict.SuggestedFix)
		})
	}
}

func TestCheckNumber_FixIsIdempotent(t *testing.T) {
	v := newTestValidator()

	for _, raw := range []string{"0207 9460000", "(213) 373-1234", "020 7946 0000 ext. 12"} {
		country := "GB"
		if raw[0] == '(' {
			country = "US"
		}
		first := v.CheckNumber(raw, country, "phone", nil)
		require.NotNil(t, first.SuggestedFix, raw)

		second := v.CheckNumber(*first.SuggestedFix, country, "phone", nil)
		assert.False(t, second.IsInvalid, "fix %q should round-trip", *first.SuggestedFix)
	}
}

func TestCheckNumber_GarbageIsUnfixable(t *testing.T) {
	v := newTestValidator()

	for _, raw := range []string{"12", "not a number", "+44 20", "999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			verdict := v.CheckNumber(raw, "GB", "phone", nil)
			assert.True(t, verdict.IsInvalid)
			assert.False(t, verdict.AutoFixable)
			assert.Nil(t, verdict.SuggestedFix)
		})
	}
}

func TestCheckNumber_Phoneword(t *testing.T) {
	v := newTestValidator()

	verdict := v.CheckNumber("1-870-KAKESNY", "US", "phone", nil)
	assert.True(t, verdict.IsInvalid)
	assert.True(t, verdict.AutoFixable)
	assert.True(t, verdict.ValidPhonewords)
	require.NotNil(t, verdict.SuggestedFix)
	assert.Equal(t, "+1-870-525-3769", *verdict.SuggestedFix)
}

func TestCheckNumber_PhonewordOnlyWhereConventional(t *testing.T) {
	v := newTestValidator()

	verdict := v.CheckNumber("0800-FLOWERS", "DE", "phone", nil)
	assert.True(t, verdict.IsInvalid)
	assert.False(t, verdict.AutoFixable)
}

func TestCheckNumber_TypeMismatchInMobileField(t *testing.T) {
	v := newTestValidator()

	verdict := v.CheckNumber("+44 20 7946 0000", "GB", "mobile", nil)
	assert.True(t, verdict.TypeMismatch)
	// Canonical text: mismatch alone does not make the value invalid.
	assert.False(t, verdict.IsInvalid)
	assert.True(t, verdict.AutoFixable)

	mobile := v.CheckNumber("+44 7901 854574", "GB", "mobile", nil)
	assert.False(t, mobile.TypeMismatch)
}

func TestCheckNumber_ExclusionOverride(t *testing.T) {
	v := newTestValidator()

	postOffice := map[string]string{"amenity": "post_office", "phone": "3631"}
	verdict := v.CheckNumber("3631", "FR", "phone", postOffice)
	assert.False(t, verdict.IsInvalid, "excluded short code with required tags is valid")

	bakery := map[string]string{"shop": "bakery", "phone": "3631"}
	verdict = v.CheckNumber("3631", "FR", "phone", bakery)
	assert.True(t, verdict.IsInvalid, "short code without required tags fails parsing")
	assert.False(t, verdict.AutoFixable)
}

func TestCheckNumber_WhatsAppLinks(t *testing.T) {
	v := newTestValidator()

	resource := v.CheckNumber("https://wa.me/message/ABCDEF123", "GB", "contact:whatsapp", nil)
	assert.False(t, resource.IsInvalid, "message resource links are valid non-numeric content")

	embedded := v.CheckNumber("https://wa.me/442079460000", "GB", "contact:whatsapp", nil)
	assert.True(t, embedded.IsInvalid)
	require.NotNil(t, embedded.SuggestedFix)
	assert.Equal(t, "+44 20 7946 0000", *embedded.SuggestedFix)

	junk := v.CheckNumber("https://example.com/contact", "GB", "contact:whatsapp", nil)
	assert.True(t, junk.IsInvalid)
	assert.False(t, junk.AutoFixable)
}

func TestCheckNumber_Empty(t *testing.T) {
	v := newTestValidator()

	verdict := v.CheckNumber("   ", "GB", "phone", nil)
	assert.True(t, verdict.IsInvalid)
	assert.False(t, verdict.AutoFixable)
}
