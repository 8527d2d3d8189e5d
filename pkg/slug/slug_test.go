package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Office Chairs", "office-chairs"},
		{"  Standing   Desk  ", "standing-desk"},
		{"USB-C Cable (2m)", "usb-c-cable-2m"},
		{"Café Au Lait", "cafe-au-lait"},
		{"Çocuk Ürünleri", "cocuk-urunleri"},
		{"İstanbul", "istanbul"},
		{"Straße", "strasse"},
		{"a---b", "a-b"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_TruncatesAtWordBoundary(t *testing.T) {
	name := strings.Repeat("keyboard ", 30)
	s := Generate(name)

	assert.LessOrEqual(t, len(s), MaxLength)
	assert.False(t, strings.HasSuffix(s, "-"))
	assert.True(t, strings.HasSuffix(s, "keyboard"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("office-chairs"))
	assert.False(t, Valid("Office Chairs"))
	assert.False(t, Valid("-chairs"))
	assert.False(t, Valid(""))
}
