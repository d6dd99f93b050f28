package customers

import (
	"strings"
	"unicode"
)

// MinPhoneLength is the shortest accepted normalized phone number.
const MinPhoneLength = 9

// NormalizePhone strips every whitespace character.
func NormalizePhone(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// ValidPhone reports whether an already normalized phone is long enough.
func ValidPhone(phone string) bool {
	return len(phone) >= MinPhoneLength
}
