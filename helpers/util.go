package helpers

import "strings"

// ExtractDigits pulls every digit out of a text and returns them as an int.
// "1.234 vendidos" -> 1234. Returns 0 when the text has no digits.
func ExtractDigits(text string) int {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}

	n := 0
	for _, r := range b.String() {
		n = n*10 + int(r-'0')
	}
	return n
}

// NormalizeWhitespace lower-cases a string and collapses runs of whitespace
// into single spaces.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
