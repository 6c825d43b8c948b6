package sms

import (
	"strings"
	"unicode"
)

// NormalizePhone validates a Colombian mobile number and returns it in
// +57XXXXXXXXXX form. Accepted inputs are +57 or 57 prefixed numbers
// and bare 10-digit mobiles starting with 3. Separators are ignored.
func NormalizePhone(raw string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '+' {
			return r
		}
		return -1
	}, raw)

	switch {
	case strings.HasPrefix(cleaned, "+57"):
		cleaned = cleaned[3:]
	case strings.HasPrefix(cleaned, "57") && len(cleaned) == 12:
		cleaned = cleaned[2:]
	}

	if len(cleaned) != 10 {
		return "", false
	}
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return "", false
		}
	}
	if cleaned[0] != '3' {
		return "", false
	}
	return "+57" + cleaned, true
}
