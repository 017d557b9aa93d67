package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor() *ExtensionExtractor {
	return NewExtensionExtractor(DefaultRules(), NewParser())
}

func TestSplit_GenericMarkers(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name     string
		raw      string
		core     string
		digits   string
		standard bool
	}{
		{"canonical x", "+44 20 7946 0000 x123", "+44 20 7946 0000", "123", true},
		{"x flush", "+44 20 7946 0000x123", "+44 20 7946 0000", "123", true},
		{"ext dot", "020 7946 0000 ext. 12", "020 7946 0000", "12", true},
		{"uppercase ext", "020 7946 0000 EXT 12", "020 7946 0000", "12", false},
		{"extension word", "020 7946 0000 extension 9", "020 7946 0000", "9", false},
		{"comma before marker", "020 7946 0000, ext 44", "020 7946 0000", "44", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, ext := e.Split(tt.raw, "GB")
			require.NotNil(t, ext)
			assert.Equal(t, tt.core, core)
			assert.Equal(t, tt.digits, ext.Digits)
			assert.Equal(t, tt.standard, ext.Standard)
		})
	}
}

func TestSplit_NoMarker(t *testing.T) {
	e := newTestExtractor()

	for _, raw := range []string{"+44 20 7946 0000", "x123", "1-870-KAKESNY"} {
		core, ext := e.Split(raw, "US")
		assert.Nil(t, ext, raw)
		assert.Equal(t, raw, core)
	}
}

func TestSplit_CountryMarkers(t *testing.T) {
	e := newTestExtractor()

	core, ext := e.Split("+48 22 123 45 67 wew. 12", "PL")
	require.NotNil(t, ext)
	assert.Equal(t, "+48 22 123 45 67", core)
	assert.Equal(t, "12", ext.Digits)
	assert.False(t, ext.Standard)

	// Same text outside Poland: "wew" is not a marker there.
	_, ext = e.Split("+48 22 123 45 67 wew. 12", "GB")
	assert.Nil(t, ext)
}

func TestSplit_DINConvention(t *testing.T) {
	e := newTestExtractor()

	// Hyphen suffix splits only when the core is written with a dialing
	// prefix and is already valid on its own.
	core, ext := e.Split("+49 30 123456-1", "DE")
	require.NotNil(t, ext)
	assert.Equal(t, "+49 30 123456", core)
	assert.Equal(t, "1", ext.Digits)

	core, ext = e.Split("030 123456-78", "DE")
	require.NotNil(t, ext)
	assert.Equal(t, "030 123456", core)
	assert.Equal(t, "78", ext.Digits)

	// NANP-style dashed numbers lack a dialing prefix and must never split,
	// even when the truncated digits would re-parse as a valid number.
	_, ext = e.Split("213-373-1234", "DE")
	assert.Nil(t, ext)
	_, ext = e.Split("(213) 373-1234", "DE")
	assert.Nil(t, ext)

	// Outside DIN countries the hyphen stays part of the number text.
	_, ext = e.Split("+44 20 7946 0000-12", "GB")
	assert.Nil(t, ext)
}
