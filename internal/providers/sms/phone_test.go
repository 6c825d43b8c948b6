package sms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{"bare mobile", "3001234567", "+573001234567", true},
		{"plus prefixed", "+573001234567", "+573001234567", true},
		{"country code no plus", "573001234567", "+573001234567", true},
		{"with separators", "300 123-45.67", "+573001234567", true},
		{"landline", "6011234567", "", false},
		{"too short", "300123456", "", false},
		{"too long", "30012345678", "", false},
		{"letters", "30012345ab", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizePhone(tc.raw)
			assert.Equal(t, tc.valid, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
