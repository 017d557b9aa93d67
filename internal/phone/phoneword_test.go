package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePhoneword(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		ok      bool
	}{
		{"full word segment", "1-870-KAKESNY", "1-870-5253769", true},
		{"flowers", "1-800-FLOWERS", "1-800-3569377", true},
		{"lowercase", "1-800-flowers", "1-800-3569377", true},
		{"spaces as separators", "1 800 TAXI", "1 800 8294", true},
		{"letters mid digit run", "1-800-4FLOWERS", "", false},
		{"no letters at all", "1-800-123-4567", "", false},
		{"non keypad rune", "1-800-CAFÉ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodePhoneword(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasLetters(t *testing.T) {
	assert.True(t, HasLetters("1-800-TAXI"))
	assert.False(t, HasLetters("+44 20 7946 0000"))
}
